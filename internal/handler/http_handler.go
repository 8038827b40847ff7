// Package handler implements the optional GraphQL/API-port HTTP surface:
// liveness and readiness probes and divergence-investigation submission.
// Grounded on the teacher's gin-based
// services/audit-log/internal/handler/http_handler.go (NewXHandler +
// RegisterRoutes + JSON error/success envelopes).
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// ErrorResponse mirrors the teacher pack's flat JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse mirrors the teacher pack's flat JSON success envelope.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler serves Graphix's HTTP surface.
type Handler struct {
	store  ports.Store
	logger ports.Logger
}

// New builds a Handler.
func New(store ports.Store, logger ports.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes wires every route onto router. Metrics exposition lives
// on its own listener (see cmd/graphix), mirroring the original's
// independent graphql-API and Prometheus-exporter ports, so it is not
// registered here.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Healthz)
	router.GET("/readyz", h.Readyz)
	router.POST("/api/v1/divergence-investigations", h.SubmitDivergenceInvestigation)
}

// Healthz always reports alive once the process is serving requests.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Readyz checks that the Store can currently serve a round trip before
// reporting ready, the same shape as the teacher's HealthCheck handlers.
func (h *Handler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, _, err := h.store.EarliestBlockNumber(ctx, domain.IndexerID{ID: "__readyz_probe__"}, "__readyz_probe__"); err != nil {
		h.logger.Error("readiness probe failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// SubmitDivergenceInvestigationRequest is the JSON body accepted by
// SubmitDivergenceInvestigation.
type SubmitDivergenceInvestigationRequest struct {
	IndexerA         string `json:"indexerA" binding:"required"`
	IndexerB         string `json:"indexerB" binding:"required"`
	Deployment       string `json:"deployment" binding:"required"`
	UpperBlockNumber uint64 `json:"upperBlockNumber" binding:"required"`
}

// SubmitDivergenceInvestigation files a new investigation request, the
// external entry point named in spec.md section 4.H ("requests produced
// through the external API").
func (h *Handler) SubmitDivergenceInvestigation(c *gin.Context) {
	var body SubmitDivergenceInvestigationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	req := domain.DivergenceInvestigationRequest{
		ID:               uuid.New().String(),
		IndexerA:         domain.IndexerID{ID: body.IndexerA},
		IndexerB:         domain.IndexerID{ID: body.IndexerB},
		Deployment:       domain.SubgraphDeployment(body.Deployment),
		UpperBlockNumber: body.UpperBlockNumber,
		CreatedAt:        time.Now().UTC(),
	}

	if err := h.store.SubmitDivergenceInvestigationRequest(c.Request.Context(), req); err != nil {
		h.logger.Error("failed to submit divergence investigation request", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to submit investigation request"})
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{Message: "investigation request accepted", Data: gin.H{"id": req.ID}})
}
