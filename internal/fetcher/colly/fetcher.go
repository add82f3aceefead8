// Package collyfetcher implements harvest.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher issues single HTTP GETs through a Colly collector. Retry and rate
// limiting live in the harvest.RetryingFetcher decorator; this type only
// performs one attempt and classifies its failure.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; synchronous collection is the default, so no option is passed.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the raw markup.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	// Retries re-fetch the same URL, so the visited check must not trip.
	collector.AllowURLRevisit = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &harvest.FetchError{Kind: harvest.FetchTimeout, URL: url, Err: ctx.Err()}
		}
		return nil, ctx.Err()
	case err := <-done:
		if err == nil {
			err = fetchErr
		}
		if err != nil {
			return nil, classify(url, status, err)
		}
	}

	if status != http.StatusOK || len(body) == 0 {
		return nil, classify(url, status, errors.New("unusable response"))
	}
	return body, nil
}

// classify maps a transport or status failure onto the fetch error taxonomy.
func classify(url string, status int, err error) *harvest.FetchError {
	switch {
	case status == http.StatusNotFound:
		return &harvest.FetchError{Kind: harvest.FetchNotFound, URL: url, Status: status, Err: err}
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return &harvest.FetchError{Kind: harvest.FetchHTTPStatus, URL: url, Status: status, Err: err}
	case status >= http.StatusBadRequest:
		return &harvest.FetchError{Kind: harvest.FetchHTTPStatus, URL: url, Status: status, Err: err}
	case status == http.StatusOK:
		return &harvest.FetchError{Kind: harvest.FetchMalformed, URL: url, Status: status, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &harvest.FetchError{Kind: harvest.FetchTimeout, URL: url, Err: err}
	}
	return &harvest.FetchError{Kind: harvest.FetchUnreachable, URL: url, Err: err}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
