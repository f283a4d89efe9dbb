package deps

import (
	"time"

	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store"
)

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time // for testing, defaults to time.Now
	AllowedHosts     []string         // Host headers allowed to access the server
	AllowedCIDRS     []string         // IPs allowed to access the API
	TrustProxy       bool             // true if running behind a trusted reverse proxy
	Library          *library.Library // bookmark and project repositories
	Store            store.KV         // pinged by readyz and infra
	StoreBackend     string           // "sqlite" | "redis" | "memory"
	RequestTimeout   time.Duration    // timeout for regular API routes
	LinkCheckTimeout time.Duration    // timeout for the link-check route
	CheckBurst       int              // link-check requests allowed in a burst
	CheckRefillPM    int              // link-check requests refilled per minute
	SweepTrigger     chan struct{}    // Channel to trigger a manual reference sweep
}

// Now returns the current time from TimeNow, or time.Now when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
