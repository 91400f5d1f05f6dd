// Package fetcher retrieves raw feed documents. It is the transport
// collaborator: HTTP details stay here and surface only as a fixed set of
// outcomes.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Status int

const (
	StatusSuccess Status = iota
	StatusUnableToConnect
	StatusRedirect
	StatusCanceled
)

type Result struct {
	Status      Status
	Data        []byte
	RedirectURL string
	Detail      string
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 60 * time.Second,
			// Redirects are reported to the caller so the feed can adopt the
			// moved URL instead of silently following it.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves the document at url. It observes ctx cancellation promptly
// and never returns a Go error: every failure mode maps onto an outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Status: StatusUnableToConnect, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{Status: StatusCanceled}
		}
		return Result{Status: StatusUnableToConnect, Detail: fmt.Sprintf("failed to fetch feed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		if location == "" {
			return Result{Status: StatusUnableToConnect, Detail: fmt.Sprintf("HTTP redirect without location: %d", resp.StatusCode)}
		}
		if ref, err := resp.Request.URL.Parse(location); err == nil {
			location = ref.String()
		}
		return Result{Status: StatusRedirect, RedirectURL: location}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{Status: StatusUnableToConnect, Detail: fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Result{Status: StatusCanceled}
		}
		return Result{Status: StatusUnableToConnect, Detail: fmt.Sprintf("failed to read response body: %v", err)}
	}

	return Result{Status: StatusSuccess, Data: data}
}
