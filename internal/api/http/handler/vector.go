package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/edirooss/vectordb-server/internal/api/http/dto"
	"github.com/edirooss/vectordb-server/pkg/jsonx"
	"github.com/gin-gonic/gin"
)

// GetVector handles GET /vector?index=<i> or ?uuid=<u>.
func (h *VectorHandler) GetVector(c *gin.Context) {
	if uuid := c.Query("uuid"); uuid != "" {
		v, idx, err := h.svc.GetByUUID(uuid)
		if err != nil {
			respondError(c, mapEngineError(err), err)
			return
		}
		c.JSON(http.StatusOK, toVectorResponse(v, idx))
		return
	}

	idxStr := c.Query("index")
	if idxStr == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing index or uuid query parameter"))
		return
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid index"))
		return
	}

	v, err := h.svc.Get(idx)
	if err != nil {
		respondError(c, mapEngineError(err), err)
		return
	}
	c.JSON(http.StatusOK, toVectorResponse(v, idx))
}

// CreateVector handles POST /vector, body {"uuid": "...", "vector": [...]}.
func (h *VectorHandler) CreateVector(c *gin.Context) {
	var req dto.CreateVectorRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Vector) != h.dim {
		respondError(c, http.StatusBadRequest, errors.New("Vector size mismatch"))
		return
	}

	v, idx, err := h.svc.Create(req.UUID, req.Vector)
	if err != nil {
		respondError(c, mapEngineError(err), err)
		return
	}
	c.JSON(http.StatusOK, toVectorResponse(v, idx))
}

// UpdateVector handles PUT /vector?index=<i>, body is a raw [...D...] array.
func (h *VectorHandler) UpdateVector(c *gin.Context) {
	idxStr := c.Query("index")
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid index"))
		return
	}

	var vec []float64
	if err := jsonx.ParseStrictJSONBody(c.Request, &vec); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if len(vec) != h.dim {
		respondError(c, http.StatusBadRequest, errors.New("Vector size mismatch"))
		return
	}

	v, err := h.svc.Update(idx, vec)
	if err != nil {
		respondError(c, mapEngineError(err), err)
		return
	}
	c.JSON(http.StatusOK, toVectorResponse(v, idx))
}

// DeleteVector handles DELETE /vector?index=<i>.
func (h *VectorHandler) DeleteVector(c *gin.Context) {
	idxStr := c.Query("index")
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("invalid index"))
		return
	}

	if err := h.svc.Delete(idx); err != nil {
		respondError(c, mapEngineError(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": idx})
}
