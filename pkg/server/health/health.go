// Package health serves the readiness endpoint of the gateway.
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fanout-labs/gqlgate/pkg/logger"
)

const (
	StatusServing    = "SERVING"
	StatusNotServing = "NOT_SERVING"
)

// TargetService defines an interface that services can implement for server health checks.
type TargetService interface {
	IsReady(ctx context.Context) (bool, error)
}

type Checker struct {
	TargetService
	Logger logger.Logger
}

type response struct {
	Status string `json:"status"`
}

// ServeHTTP answers 200 with SERVING while the target is ready, and 503 otherwise.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, code := StatusServing, http.StatusOK

	ready, err := c.IsReady(r.Context())
	if err != nil && c.Logger != nil {
		c.Logger.WarnWithContext(r.Context(), "readiness check failed", zap.Error(err))
	}
	if err != nil || !ready {
		status, code = StatusNotServing, http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{Status: status})
}
