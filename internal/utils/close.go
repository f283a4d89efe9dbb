package utils

import (
	"io"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// CloseLogged closes c and logs a failure with what naming the resource.
// Use for best-effort cleanup in defer where the error cannot be returned.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("resource", what),
			logger.Error(err))
	}
}
