package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

type transferClient struct {
	client    *http.Client
	userAgent string
}

func newTransferClient(userAgent string) *transferClient {
	// No overall timeout: large episodes may legitimately take a long time.
	// Cancellation comes from the job context.
	return &transferClient{client: &http.Client{}, userAgent: userAgent}
}

// download streams the source URL into the target directory, writing through
// a .part file renamed on success so an interrupted transfer never leaves a
// plausible-looking episode behind.
func (c *transferClient) download(ctx context.Context, job Job, progress ProgressFunc) error {
	target := filepath.Join(job.TargetDir, job.Filename)

	if !job.Overwrite {
		if _, err := os.Stat(target); err == nil {
			// Already on disk and overwrite is off: report completion.
			if progress != nil {
				progress(job, 100)
			}
			return nil
		}
	}

	if err := os.MkdirAll(job.TargetDir, 0o755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	partial := target + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	err = copyWithProgress(ctx, out, resp.Body, resp.ContentLength, job, progress)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return fmt.Errorf("failed to finalize file: %w", err)
	}
	if progress != nil {
		progress(job, 100)
	}
	return nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, job Job, progress ProgressFunc) error {
	buf := make([]byte, 64*1024)
	var written int64
	lastPercent := -1
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			written += int64(n)
			if progress != nil && total > 0 {
				percent := int(written * 100 / total)
				if percent > 100 {
					percent = 100
				}
				if percent != lastPercent {
					lastPercent = percent
					progress(job, percent)
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			if errors.Is(readErr, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read media stream: %w", readErr)
		}
	}
}
