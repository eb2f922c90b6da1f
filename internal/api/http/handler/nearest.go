package handler

import (
	"errors"
	"net/http"

	"github.com/edirooss/vectordb-server/internal/api/http/dto"
	"github.com/edirooss/vectordb-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

// Nearest handles POST /nearest, body is a raw [...D...] query point.
func (h *VectorHandler) Nearest(c *gin.Context) {
	var query []float64
	if err := jsonx.ParseStrictJSONBody(c.Request, &query); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(query) != h.dim {
		respondError(c, http.StatusBadRequest, errors.New("Vector size mismatch"))
		return
	}

	v, idx, err := h.svc.Nearest(query)
	if err != nil {
		respondError(c, mapEngineError(err), err)
		return
	}
	c.JSON(http.StatusOK, toVectorResponse(v, idx))
}
