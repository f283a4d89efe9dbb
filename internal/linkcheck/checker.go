// Package linkcheck classifies bookmark URLs as working, uncertain or broken.
//
// A check runs a fixed chain: URL parsing, a local-host screen, a favicon
// lookup that proves the domain resolves, then direct HEAD, the CORS relay
// and the known-domain list (first success wins), and finally the pattern
// and TLD heuristics. Every network probe is bounded by its own deadline.
package linkcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	MethodHead  = "head"
	MethodRelay = "relay"
	MethodKnown = "known"

	userAgent = "marks-linkcheck/1.0"
)

// Config tunes the checker.
type Config struct {
	FaviconEndpoint string // fmt template, %s = hostname; empty skips the favicon probe
	RelayEndpoint   string // fmt template, %s = escaped url; empty skips the relay probe
	ReachTimeout    time.Duration
	ProbeTimeout    time.Duration
	BatchSize       int
	BatchPause      time.Duration

	// Transport overrides the HTTP transport. Nil uses a dedicated
	// transport with short dial and TLS timeouts.
	Transport http.RoundTripper
}

// ConfigFrom extracts the checker settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		FaviconEndpoint: cfg.FaviconEndpoint,
		RelayEndpoint:   cfg.RelayEndpoint,
		ReachTimeout:    cfg.ReachTimeout,
		ProbeTimeout:    cfg.ProbeTimeout,
		BatchSize:       cfg.CheckBatchSize,
		BatchPause:      cfg.CheckBatchPause,
	}
}

// Checker runs link checks. It is safe for concurrent use.
type Checker struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
	now    func() time.Time
}

// New builds a Checker.
func New(cfg Config, log logger.Logger) *Checker {
	if cfg.ReachTimeout <= 0 {
		cfg.ReachTimeout = 10 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 5
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newTransport(cfg.ProbeTimeout)
	}

	return &Checker{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// A redirect already proves the host answers.
				return http.ErrUseLastResponse
			},
		},
		log: log.With(logger.Component("linkcheck")),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
}

// Check classifies a single bookmark.
func (c *Checker) Check(ctx context.Context, b domain.Bookmark) domain.LinkCheckResult {
	res := c.check(ctx, b.URL)
	res.BookmarkID = b.ID
	res.Title = b.Title
	res.URL = b.URL
	res.Working = res.Status.Working()
	res.CheckedAt = c.now()

	c.log.Debug("link checked",
		logger.String("id", b.ID),
		logger.String("url", b.URL),
		logger.String("status", string(res.Status)),
		logger.String("method", res.Method))
	return res
}

func (c *Checker) check(ctx context.Context, rawURL string) domain.LinkCheckResult {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return domain.LinkCheckResult{Status: domain.LinkInvalidURL, Error: "Invalid URL format"}
	}
	host := u.Hostname()

	// Local targets are never contacted.
	if isLocalHost(host) {
		return domain.LinkCheckResult{Status: domain.LinkSuspicious, Error: "Local or private address"}
	}

	if res, ok := c.probeDomain(ctx, host); !ok {
		return res
	}

	if code, err := c.probeHead(ctx, u.String()); err == nil {
		return domain.LinkCheckResult{Status: domain.LinkOK, Method: MethodHead, HTTPStatus: code}
	}
	if err := c.probeRelay(ctx, u.String()); err == nil {
		return domain.LinkCheckResult{Status: domain.LinkCORSOK, Method: MethodRelay}
	}
	if isKnownDomain(host) {
		return domain.LinkCheckResult{Status: domain.LinkKnownWorking, Method: MethodKnown}
	}

	if isSuspicious(rawURL) {
		return domain.LinkCheckResult{Status: domain.LinkSuspicious, Error: "Suspicious URL pattern detected"}
	}
	if !hasCommonTLD(host) {
		return domain.LinkCheckResult{Status: domain.LinkUncommonTLD, Error: "Uncommon or suspicious TLD"}
	}
	return domain.LinkCheckResult{Status: domain.LinkAssumedWorking, Error: "Could not verify, but URL appears valid"}
}

// probeDomain asks the favicon service for an icon of host. An icon, even
// the generic one some services send with an error status, means the
// domain resolves.
func (c *Checker) probeDomain(ctx context.Context, host string) (domain.LinkCheckResult, bool) {
	if c.cfg.FaviconEndpoint == "" {
		return domain.LinkCheckResult{}, true
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReachTimeout)
	defer cancel()

	endpoint := fmt.Sprintf(c.cfg.FaviconEndpoint, url.QueryEscape(host))
	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		if isTimeout(err) {
			return domain.LinkCheckResult{Status: domain.LinkTimeout, Error: "Request timeout"}, false
		}
		if errors.Is(err, context.Canceled) {
			return domain.LinkCheckResult{Status: domain.LinkFetchError, Error: err.Error()}, false
		}
		return domain.LinkCheckResult{Status: domain.LinkDomainError, Error: "Domain not reachable"}, false
	}
	defer drain(resp)

	if isSuccess(resp.StatusCode) || strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return domain.LinkCheckResult{}, true
	}
	return domain.LinkCheckResult{Status: domain.LinkDomainError, Error: "Domain not reachable"}, false
}

func (c *Checker) probeHead(ctx context.Context, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
}

func (c *Checker) probeRelay(ctx context.Context, target string) error {
	if c.cfg.RelayEndpoint == "" {
		return errors.New("relay disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf(c.cfg.RelayEndpoint, url.QueryEscape(target)))
	if err != nil {
		return err
	}
	defer drain(resp)

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("relay status %d", resp.StatusCode)
	}
	return nil
}

func (c *Checker) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return c.client.Do(req)
}

// CheckAll checks bs in batches of BatchSize, pausing BatchPause between
// batches. progress, when non-nil, is called after every batch with the
// number of results so far. Cancelling ctx aborts the running batch; the
// results of the completed batches are returned with ctx.Err().
func (c *Checker) CheckAll(ctx context.Context, bs []domain.Bookmark, progress func(done, total int)) ([]domain.LinkCheckResult, error) {
	results := make([]domain.LinkCheckResult, len(bs))
	total := len(bs)
	start := time.Now()

	for lo := 0; lo < total; lo += c.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return results[:lo], err
		}

		hi := min(lo+c.cfg.BatchSize, total)
		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.Check(ctx, bs[i])
			}(i)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			c.log.Warn("link check cancelled",
				logger.Int("done", lo),
				logger.Int("total", total),
				logger.Error(err))
			return results[:lo], err
		}
		if progress != nil {
			progress(hi, total)
		}

		if hi < total && c.cfg.BatchPause > 0 {
			t := time.NewTimer(c.cfg.BatchPause)
			select {
			case <-ctx.Done():
				t.Stop()
				return results[:hi], ctx.Err()
			case <-t.C:
			}
		}
	}

	summary := domain.SummarizeLinks(results)
	c.log.Info("link check finished",
		logger.Int("total", summary.Total),
		logger.Int("working", summary.Working),
		logger.Int("uncertain", summary.Uncertain),
		logger.Int("broken", summary.Broken),
		logger.Duration("took", time.Since(start)))
	return results, nil
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// drain discards a bounded amount of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10)
	_ = resp.Body.Close()
}
