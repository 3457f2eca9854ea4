// Package culler finds bookmarks whose URLs no longer resolve.
package culler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// Status represents the health of a bookmark URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx
	Dead                      // 404 or 410
	Unreachable               // network failure or any other status
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Result is the outcome of checking one bookmark.
type Result struct {
	ID         uint64
	Name       string
	URL        string
	Status     Status
	StatusCode int    // 0 if the request never completed
	Reason     string // short explanation for unreachable URLs
}

// Options configures a check run.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	// Private lists domains that answer 404 to anonymous visitors, like
	// private repositories. Their 404s count as unreachable instead of dead.
	Private []string
	// Client overrides the HTTP client; Timeout is ignored when set.
	Client *http.Client
}

const (
	defaultConcurrency = 8
	defaultTimeout     = 10 * time.Second
	maxRedirects       = 10
)

// Check probes every bookmark URL with a pool of workers. Results keep the
// order of bookmarks.
func Check(ctx context.Context, bookmarks []model.Bookmark, opts Options) []Result {
	if len(bookmarks) == 0 {
		return nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	private := make(map[string]bool, len(opts.Private))
	for _, domain := range opts.Private {
		private[strings.ToLower(domain)] = true
	}

	results := make([]Result, len(bookmarks))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = check(ctx, client, bookmarks[idx], private)
			}
		}()
	}

	for i := range bookmarks {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// DeadResults returns the results with status Dead.
func DeadResults(results []Result) []Result {
	var dead []Result
	for _, r := range results {
		if r.Status == Dead {
			dead = append(dead, r)
		}
	}
	return dead
}

func check(ctx context.Context, client *http.Client, bm model.Bookmark, private map[string]bool) Result {
	result := Result{ID: bm.ID, Name: bm.Name, URL: bm.URL}

	// HEAD first; some servers only answer GET.
	resp, err := do(ctx, client, http.MethodHead, bm.URL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = do(ctx, client, http.MethodGet, bm.URL)
	}
	if err != nil {
		result.Status = Unreachable
		result.Reason = reason(err.Error())
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if isPrivate(bm.URL, private) {
			result.Status = Unreachable
			result.Reason = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		result.Status = Unreachable
		result.Reason = http.StatusText(resp.StatusCode)
	}
	return result
}

func do(ctx context.Context, client *http.Client, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// isPrivate matches the host and its parent domains, so "api.github.com"
// matches "github.com".
func isPrivate(rawURL string, private map[string]bool) bool {
	if len(private) == 0 {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for host != "" {
		if private[host] {
			return true
		}
		_, parent, ok := strings.Cut(host, ".")
		if !ok {
			break
		}
		host = parent
	}
	return false
}

// reason folds verbose transport errors into short categories.
func reason(errStr string) string {
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
	case strings.Contains(lower, "certificate"), strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Not a web URL"
	default:
		return errStr
	}
}
