// Package culler checks tool websites and sorts them into healthy, dead and
// unreachable.
package culler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/aidir/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
	NoURL                     // tool has no website
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	case Unreachable:
		return "unreachable"
	case NoURL:
		return "no-url"
	default:
		return "unknown"
	}
}

// Defaults for Params.
const (
	DefaultConcurrency = 10
	DefaultTimeout     = 10 * time.Second
)

// Result holds the check result for a single tool.
type Result struct {
	Tool       *model.Tool
	Status     Status
	StatusCode int    // HTTP status code (0 if connection failed)
	Error      string // Error message for unreachable URLs
}

// ProgressFunc is called after each URL is checked.
// completed is the number of URLs checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// Params configures CheckURLs.
type Params struct {
	Concurrency    int           // optional, DefaultConcurrency if zero
	Timeout        time.Duration // optional, DefaultTimeout if zero
	ExcludeDomains []string      // 404s here are treated as possibly private
	OnProgress     ProgressFunc  // optional
	Limiter        *rate.Limiter // optional, paces requests across workers
	Client         *http.Client  // optional
	Logger         *zap.Logger   // optional
}

// CheckURLs checks every tool website concurrently. Results are in the order
// of tools. Cancelling ctx marks the remaining tools unreachable.
func CheckURLs(ctx context.Context, tools []model.Tool, params Params) []Result {
	if len(tools) == 0 {
		return nil
	}

	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	excludeMap := make(map[string]bool)
	for _, domain := range params.ExcludeDomains {
		excludeMap[strings.ToLower(domain)] = true
	}

	client := params.Client
	if client == nil {
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Follow redirects but limit to 10
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	results := make([]Result, len(tools))
	var progressMu sync.Mutex
	completed := 0

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i := range tools {
		g.Go(func() error {
			results[i] = checkURL(ctx, client, params.Limiter, &tools[i], excludeMap)
			logger.Debug("checked",
				zap.String("url", tools[i].URL),
				zap.Stringer("status", results[i].Status),
				zap.Int("code", results[i].StatusCode))

			if params.OnProgress != nil {
				progressMu.Lock()
				completed++
				params.OnProgress(completed, len(tools))
				progressMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// checkURL checks a single URL and returns the result.
func checkURL(ctx context.Context, client *http.Client, limiter *rate.Limiter, tool *model.Tool, excludeMap map[string]bool) Result {
	result := Result{
		Tool: tool,
	}

	if strings.TrimSpace(tool.URL) == "" {
		result.Status = NoURL
		return result
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}

	// Try HEAD first (faster, less bandwidth)
	resp, err := do(ctx, client, http.MethodHead, tool.URL)
	if err != nil {
		// HEAD failed, try GET as fallback (some servers don't support HEAD)
		resp, err = do(ctx, client, http.MethodGet, tool.URL)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if isExcludedDomain(tool.URL, excludeMap) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		// 5xx, 403 and friends may be temporary or behind auth.
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func do(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "aidir-culler/1.0")
	return client.Do(req)
}

// Summarize counts results per status.
func Summarize(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// isExcludedDomain checks if the URL's domain is in the exclude list.
func isExcludedDomain(rawURL string, excludeMap map[string]bool) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if excludeMap[host] {
		return true
	}
	// "api.github.com" matches "github.com"
	for domain := range excludeMap {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "context canceled"):
		return "Cancelled"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return errStr
	}
}
