package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/edirooss/vectordb-server/internal/api/http/dto"
	"github.com/edirooss/vectordb-server/internal/service"
	"github.com/gin-gonic/gin"
)

// compare returns a handler for one of the three /compare/* routes:
// GET /compare/<kernel>?index1=<i>&index2=<j>.
func (h *VectorHandler) compare(kernel service.Kernel) gin.HandlerFunc {
	return func(c *gin.Context) {
		i1, err := strconv.Atoi(c.Query("index1"))
		if err != nil {
			respondError(c, http.StatusBadRequest, errors.New("invalid index1"))
			return
		}
		i2, err := strconv.Atoi(c.Query("index2"))
		if err != nil {
			respondError(c, http.StatusBadRequest, errors.New("invalid index2"))
			return
		}

		result, err := h.svc.Compare(kernel, i1, i2)
		if err != nil {
			respondError(c, mapEngineError(err), err)
			return
		}
		c.JSON(http.StatusOK, dto.CompareResponse{Result: result})
	}
}
