package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type checkRequest struct {
	IDs []string `json:"ids,omitempty"`
}

type checkResponse struct {
	Summary  domain.LinkSummary       `json:"summary"`
	Results  []domain.LinkCheckResult `json:"results"`
	Partial  bool                     `json:"partial,omitempty"`
	Duration string                   `json:"duration"`
}

type linkReport struct {
	LastRun *time.Time               `json:"lastRun,omitempty"`
	Running bool                     `json:"running"`
	Summary domain.LinkSummary       `json:"summary"`
	Results []domain.LinkCheckResult `json:"results"`
}

// CheckLinks runs the link checker over the listed bookmarks, or over the
// whole collection when the body is empty or lists no ids. When the request
// deadline hits, the results of the completed batches are returned with 504.
func CheckLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, r, d, err)
				return
			}
		}

		start := time.Now()
		results, err := d.Library.CheckLinks(r.Context(), req.IDs, nil)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			writeError(w, r, d, err)
			return
		}

		status := http.StatusOK
		if err != nil {
			status = http.StatusGatewayTimeout
			d.Logger.Warn("link check interrupted",
				logger.Int("checked", len(results)),
				logger.Error(err))
		}
		if results == nil {
			results = []domain.LinkCheckResult{}
		}
		writeJSON(w, status, checkResponse{
			Summary:  domain.SummarizeLinks(results),
			Results:  results,
			Partial:  err != nil,
			Duration: time.Since(start).Round(time.Millisecond).String(),
		})
	}
}

// LinkReport returns the last recorded result of every checked bookmark.
func LinkReport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links := d.Library.Links
		rep := linkReport{
			Running: links.Running(),
			Summary: links.Summary(),
			Results: links.All(),
		}
		if last := links.LastRun(); !last.IsZero() {
			rep.LastRun = &last
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

// RemoveBrokenLinks deletes every bookmark whose last result is broken.
func RemoveBrokenLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !confirmed(r) {
			writeError(w, r, d, errConfirmRequired)
			return
		}
		ids, n := d.Library.RemoveBrokenLinks(r.Context())
		d.Logger.Info("broken links removed via endpoint",
			logger.Int("count", n),
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, countResponse{Count: n, IDs: ids})
	}
}
