package linkcheck

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	faviconHost = "favicons.test"
	relayHost   = "relay.test"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(r *http.Request, code int, contentType string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: code,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    r,
	}
}

// fakeNet routes requests by host: the favicon service, the relay and
// everything else (the bookmarked sites).
type fakeNet struct {
	favicon func(r *http.Request) (*http.Response, error)
	relay   func(r *http.Request) (*http.Response, error)
	site    func(r *http.Request) (*http.Response, error)
	calls   atomic.Int32
}

func (n *fakeNet) RoundTrip(r *http.Request) (*http.Response, error) {
	n.calls.Add(1)
	var h func(*http.Request) (*http.Response, error)
	switch r.URL.Host {
	case faviconHost:
		h = n.favicon
	case relayHost:
		h = n.relay
	default:
		h = n.site
	}
	if h == nil {
		return nil, errors.New("connection refused")
	}
	return h(r)
}

func okIcon(r *http.Request) (*http.Response, error) { return respond(r, 200, "image/png"), nil }

func newChecker(n *fakeNet) *Checker {
	return New(Config{
		FaviconEndpoint: "http://" + faviconHost + "/s2/favicons?domain=%s&sz=16",
		RelayEndpoint:   "http://" + relayHost + "/v1/proxy?quest=%s",
		ReachTimeout:    200 * time.Millisecond,
		ProbeTimeout:    100 * time.Millisecond,
		BatchSize:       2,
		Transport:       n,
	}, logger.Nop())
}

func TestCheck_Classification(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		net        *fakeNet
		wantStatus domain.LinkStatus
		wantMethod string
	}{
		{
			name:       "unparseable url",
			url:        "not a url",
			net:        &fakeNet{},
			wantStatus: domain.LinkInvalidURL,
		},
		{
			name:       "url without host",
			url:        "mailto:someone@example.org",
			net:        &fakeNet{},
			wantStatus: domain.LinkInvalidURL,
		},
		{
			name:       "domain does not resolve",
			url:        "https://gone.com",
			net:        &fakeNet{},
			wantStatus: domain.LinkDomainError,
		},
		{
			name: "favicon service error page",
			url:  "https://gone.com",
			net: &fakeNet{favicon: func(r *http.Request) (*http.Response, error) {
				return respond(r, 404, "text/html"), nil
			}},
			wantStatus: domain.LinkDomainError,
		},
		{
			name: "generic icon with error status still proves the domain",
			url:  "https://site.com/page",
			net: &fakeNet{
				favicon: func(r *http.Request) (*http.Response, error) { return respond(r, 404, "image/png"), nil },
				site:    func(r *http.Request) (*http.Response, error) { return respond(r, 200, ""), nil },
			},
			wantStatus: domain.LinkOK,
			wantMethod: MethodHead,
		},
		{
			name: "redirect counts as reachable",
			url:  "https://site.com/old",
			net: &fakeNet{
				favicon: okIcon,
				site:    func(r *http.Request) (*http.Response, error) { return respond(r, 301, ""), nil },
			},
			wantStatus: domain.LinkOK,
			wantMethod: MethodHead,
		},
		{
			name: "head rejected, relay succeeds",
			url:  "https://site.com",
			net: &fakeNet{
				favicon: okIcon,
				site:    func(r *http.Request) (*http.Response, error) { return respond(r, 405, ""), nil },
				relay:   func(r *http.Request) (*http.Response, error) { return respond(r, 200, "text/html"), nil },
			},
			wantStatus: domain.LinkCORSOK,
			wantMethod: MethodRelay,
		},
		{
			name:       "known domain",
			url:        "https://gist.github.com/x",
			net:        &fakeNet{favicon: okIcon},
			wantStatus: domain.LinkKnownWorking,
			wantMethod: MethodKnown,
		},
		{
			name:       "uncommon tld",
			url:        "https://thing.xyz",
			net:        &fakeNet{favicon: okIcon},
			wantStatus: domain.LinkUncommonTLD,
		},
		{
			name:       "unverified but plausible",
			url:        "https://thing.org",
			net:        &fakeNet{favicon: okIcon},
			wantStatus: domain.LinkAssumedWorking,
		},
		{
			name: "favicon probe timeout",
			url:  "https://slow.com",
			net: &fakeNet{favicon: func(r *http.Request) (*http.Response, error) {
				<-r.Context().Done()
				return nil, r.Context().Err()
			}},
			wantStatus: domain.LinkTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(tt.net)
			got := c.Check(context.Background(), domain.Bookmark{ID: "b", Title: "t", URL: tt.url})

			if got.Status != tt.wantStatus {
				t.Fatalf("status = %q (%s), want %q", got.Status, got.Error, tt.wantStatus)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("method = %q, want %q", got.Method, tt.wantMethod)
			}
			if got.Working != tt.wantStatus.Working() {
				t.Errorf("working = %v", got.Working)
			}
			if got.BookmarkID != "b" || got.URL != tt.url || got.CheckedAt.IsZero() {
				t.Errorf("result metadata = %+v", got)
			}
		})
	}
}

func TestCheck_LocalHostsSkipNetwork(t *testing.T) {
	n := &fakeNet{favicon: okIcon, site: func(r *http.Request) (*http.Response, error) { return respond(r, 200, ""), nil }}
	c := newChecker(n)

	for _, u := range []string{
		"http://localhost:3000",
		"http://127.0.0.1:8080/admin",
		"http://192.168.1.10",
		"http://10.0.0.5/dashboard",
		"http://[::1]:9000",
		"http://printer.local",
	} {
		got := c.Check(context.Background(), domain.Bookmark{URL: u})
		if got.Status != domain.LinkSuspicious || got.Working {
			t.Errorf("%s: status = %q", u, got.Status)
		}
	}
	if n.calls.Load() != 0 {
		t.Errorf("local urls must not be contacted, got %d requests", n.calls.Load())
	}

	// .local only counts at the end of the host.
	got := c.Check(context.Background(), domain.Bookmark{URL: "https://site.com/docs.local"})
	if got.Status == domain.LinkSuspicious {
		t.Error("path ending in .local should not be suspicious")
	}
}

func TestCheck_PatternsOnlyAfterProbesFail(t *testing.T) {
	reachable := &fakeNet{favicon: okIcon, site: func(r *http.Request) (*http.Response, error) { return respond(r, 200, ""), nil }}
	unreachable := &fakeNet{favicon: okIcon}

	tests := []struct {
		name       string
		url        string
		net        *fakeNet
		wantStatus domain.LinkStatus
	}{
		{"reachable site with test. in the host", "https://pytest.org", reachable, domain.LinkOK},
		{"reachable site with test. in the path", "https://www.latest.com/", reachable, domain.LinkOK},
		{"known domain with test. in the path", "https://github.com/user/repo/blob/main/test.py", unreachable, domain.LinkKnownWorking},
		{"unreachable staging host", "https://staging.myapp.io", unreachable, domain.LinkSuspicious},
		{"unreachable example domain", "https://www.example.com", unreachable, domain.LinkSuspicious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newChecker(tt.net).Check(context.Background(), domain.Bookmark{URL: tt.url})
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q (%s), want %q", got.Status, got.Error, tt.wantStatus)
			}
			if got.Working != tt.wantStatus.Working() {
				t.Errorf("working = %v", got.Working)
			}
		})
	}
}

func TestCheckAll_BatchesInOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	n := &fakeNet{
		favicon: okIcon,
		site: func(r *http.Request) (*http.Response, error) {
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return respond(r, 200, ""), nil
		},
	}
	c := newChecker(n)

	bs := []domain.Bookmark{
		{ID: "1", URL: "https://a.com"},
		{ID: "2", URL: "http://localhost"},
		{ID: "3", URL: "https://c.com"},
		{ID: "4", URL: "::"},
		{ID: "5", URL: "https://e.com"},
	}

	var calls [][2]int
	results, err := c.CheckAll(context.Background(), bs, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d", len(results))
	}
	for i, r := range results {
		if r.BookmarkID != bs[i].ID {
			t.Errorf("result %d is for %q", i, r.BookmarkID)
		}
	}
	if want := [][2]int{{2, 5}, {4, 5}, {5, 5}}; len(calls) != len(want) || calls[0] != want[0] || calls[2] != want[2] {
		t.Errorf("progress calls = %v, want %v", calls, want)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= batch size", peak)
	}

	summary := domain.SummarizeLinks(results)
	if summary.Working != 3 || summary.Broken != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestCheckAll_Cancellation(t *testing.T) {
	c := newChecker(&fakeNet{favicon: okIcon})
	c.cfg.BatchPause = time.Second

	bs := make([]domain.Bookmark, 6)
	for i := range bs {
		bs[i] = domain.Bookmark{ID: string(rune('a' + i)), URL: "https://thing.org"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	results, err := c.CheckAll(ctx, bs, func(done, total int) {
		if done == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want the first batch only", len(results))
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation should interrupt the pause between batches")
	}

	already, cancel2 := context.WithCancel(context.Background())
	cancel2()
	results, err = c.CheckAll(already, bs, nil)
	if !errors.Is(err, context.Canceled) || len(results) != 0 {
		t.Errorf("pre-cancelled run = %d results, %v", len(results), err)
	}
}
