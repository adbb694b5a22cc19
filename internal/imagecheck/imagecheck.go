// Package imagecheck confirms that the images referenced by things exist
// before any page is rendered for them.
package imagecheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Jeyveen7/40-avocados/internal/errors"
	"github.com/Jeyveen7/40-avocados/internal/model"
)

// maxDrainBytes bounds how much of a response body is read before closing
// so the connection can be reused.
const maxDrainBytes = 64 * 1024

// NewHTTPClient returns a client whose requests give up after timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}

// Validator checks image attributes and the URLs they point at.
type Validator struct {
	client *http.Client
}

// New returns a Validator issuing requests through client. A nil client
// gets the default timeout.
func New(client *http.Client) *Validator {
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	return &Validator{client: client}
}

// Validate requires the image attribute to be present and the image to be
// reachable. It returns the image URL.
func (v *Validator) Validate(ctx context.Context, name string, attrs model.Attributes) (string, error) {
	image, cerr := attrs.Image()
	if cerr != nil {
		return "", cerr.With("thing", name)
	}
	if err := v.Check(ctx, image); err != nil {
		if e, ok := err.(*errors.Error); ok {
			return "", e.With("thing", name)
		}
		return "", err
	}
	return image, nil
}

// Check issues a GET for imageURL and fails unless the response is 200 OK.
func (v *Validator) Check(ctx context.Context, imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return errors.Validation(err, "invalid image URL %q", imageURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.Validation(nil, "unsupported image URL scheme %q", parsed.Scheme).With("image", imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return errors.Validation(err, "build request for %s", imageURL)
	}

	start := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		return errors.Validation(err, "fetch image %s", imageURL)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	slog.Debug("image checked", "image", imageURL, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return errors.Validation(nil, "image %s returned HTTP %d", imageURL, resp.StatusCode).With("status", resp.StatusCode)
	}
	return nil
}
