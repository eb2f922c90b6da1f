// Package handler implements the gin handlers for the HTTP surface
// described in spec.md §6.2: /vector, /compare/*, and /nearest. Each
// handler translates query/body parameters into a VectorService call
// and maps the result (or error) onto the {"error": "..."} / status
// code contract.
package handler

import (
	"errors"
	"net/http"

	"github.com/edirooss/vectordb-server/internal/api/http/dto"
	"github.com/edirooss/vectordb-server/internal/engine/similarity"
	"github.com/edirooss/vectordb-server/internal/engine/store"
	"github.com/edirooss/vectordb-server/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VectorHandler serves /vector, /compare/*, and /nearest.
type VectorHandler struct {
	log *zap.Logger
	svc *service.VectorService
	dim int
}

// New returns a VectorHandler bound to svc, configured for vectors of
// dimension dim.
func New(log *zap.Logger, svc *service.VectorService, dim int) *VectorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VectorHandler{log: log.Named("vector"), svc: svc, dim: dim}
}

// Register attaches the handler's routes to r.
func (h *VectorHandler) Register(r gin.IRouter) {
	r.GET("/vector", h.GetVector)
	r.POST("/vector", h.CreateVector)
	r.PUT("/vector", h.UpdateVector)
	r.DELETE("/vector", h.DeleteVector)

	r.GET("/compare/cosine_similarity", h.compare(service.KernelCosineSimilarity))
	r.GET("/compare/euclidean_distance", h.compare(service.KernelEuclideanDist))
	r.GET("/compare/dot_product", h.compare(service.KernelDotProduct))

	r.POST("/nearest", h.Nearest)
}

func respondError(c *gin.Context, status int, err error) {
	c.Error(err)
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

// mapEngineError translates a store/similarity error to an HTTP status.
func mapEngineError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDimensionMismatch),
		errors.Is(err, similarity.ErrDimensionMismatch),
		errors.Is(err, store.ErrUUIDTooLong):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUUIDExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrOverflow):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func toVectorResponse(v store.Vector, index int) dto.VectorResponse {
	return dto.VectorResponse{Index: index, UUID: v.UUID, Vector: v.Data}
}
