// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/courseloop/courseloop-api/internal/http/mw"
	"github.com/courseloop/courseloop-api/internal/version"
)

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Version
	return out, nil
}

// ProbeOutput is the response body for K8s probes.
type ProbeOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez is the liveness probe. It succeeds as long as the process serves.
func Livez(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	out := &ProbeOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// DBPinger is the subset of *sql.DB the readiness probe needs.
type DBPinger interface {
	Ping() error
}

// ReadyzHandler is the readiness probe, gated on database connectivity.
type ReadyzHandler struct {
	db DBPinger
}

// NewReadyzHandler creates a readiness probe handler.
func NewReadyzHandler(db DBPinger) *ReadyzHandler {
	return &ReadyzHandler{db: db}
}

// Readyz reports ready once the database answers pings.
func (h *ReadyzHandler) Readyz(ctx context.Context, input *struct{}) (*ProbeOutput, error) {
	if err := h.db.Ping(); err != nil {
		return nil, huma.Error503ServiceUnavailable("database not ready")
	}
	out := &ProbeOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// getUserID extracts user ID from context.
func getUserID(ctx context.Context) string {
	claims := mw.GetUserClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// getUserClaims extracts user claims from context.
func getUserClaims(ctx context.Context) *mw.UserClaims {
	return mw.GetUserClaims(ctx)
}
