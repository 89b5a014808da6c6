package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobwatch-engine/internal/scrape/util"
)

const DefaultSourceURL = "https://raw.githubusercontent.com/SimplifyJobs/New-Grad-Positions/dev/README.md"

var (
	// ErrBadStatus wraps non-2xx responses from the source.
	ErrBadStatus = errors.New("unexpected status")
	// ErrTooLarge means the body ran past the size cap. A cut document is
	// never parsed.
	ErrTooLarge = errors.New("document too large")
)

// maxDocumentBytes caps the README download; the real file is a few MB.
const maxDocumentBytes = 32 << 20

type Fetcher struct {
	url      string
	hc       *http.Client
	limiter  *util.HostLimiter
	maxBytes int64
}

func NewFetcher(url string, timeout time.Duration, limiter *util.HostLimiter) *Fetcher {
	if url == "" {
		url = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if limiter == nil {
		limiter = util.NewHostLimiter(1.0, 2)
	}
	return &Fetcher{
		url:      url,
		hc:       &http.Client{Timeout: timeout},
		limiter:  limiter,
		maxBytes: maxDocumentBytes,
	}
}

func (f *Fetcher) URL() string { return f.url }

// Fetch returns the full source document.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if err := f.limiter.WaitURL(ctx, f.url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "JobWatch/1.0 (+local)")

	res, err := f.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("get source: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("get source: %w %d", ErrBadStatus, res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	if int64(len(b)) > f.maxBytes {
		return "", fmt.Errorf("read source: %w (over %d bytes)", ErrTooLarge, f.maxBytes)
	}
	return string(b), nil
}
