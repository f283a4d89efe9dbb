package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// EnforceHost allows requests only if r.Host matches one of the allowed hosts.
// Supports subdomain wildcards ("*.example.com") and port wildcards
// ("localhost:*"). If allowedHosts is empty, it acts as a passthrough.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedHosts) == 0 {
		log.Debug("EnforceHost: empty allowedHosts, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("EnforceHost: initialized", logger.Strings("hosts", allowedHosts))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(r.Host)
			for _, pattern := range allowedHosts {
				if matchHost(host, strings.ToLower(pattern)) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Debug("EnforceHost: rejected", logger.String("host", r.Host))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

// matchHost checks host against pattern. A pattern ending in ":*" matches
// its host with any port or none; the remaining host part may itself be a
// "*.example.com" wildcard.
func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}

	if base, ok := strings.CutSuffix(pattern, ":*"); ok {
		return matchHostname(stripPort(host), base)
	}
	return matchHostname(host, pattern)
}

func matchHostname(host, pattern string) bool {
	if host == pattern {
		return true
	}
	// *.example.com matches sub.example.com
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}

// stripPort removes a trailing port, keeping the brackets of IPv6 literals
// so that "[::1]:8080" and "[::1]" both reduce to "[::1]".
func stripPort(host string) string {
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if strings.Contains(h, ":") {
		return "[" + h + "]"
	}
	return h
}
