package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type sweepResponse struct {
	Queued bool   `json:"queued"`
	Reason string `json:"reason,omitempty"`
}

// Sweep queues a dangling-reference sweep. Only one request can wait for
// the sweeper at a time.
func Sweep(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SweepTrigger <- struct{}{}:
			d.Logger.Info("sweep queued", logger.String("request_id", requestID(r)))
			writeJSON(w, http.StatusAccepted, sweepResponse{Queued: true})
		default:
			writeJSON(w, http.StatusTooManyRequests, sweepResponse{Reason: "a sweep is already pending"})
		}
	}
}
