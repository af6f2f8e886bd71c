package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// fetch executes a single GET request and returns the body and content-type.
// A transport error or a non-2xx status is returned as an error; there are
// no retries, every URL gets exactly one attempt per run.
func (m *Mirror) fetch(ctx context.Context, rawURL string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	req.Header.Set("User-Agent", m.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return body, resp.Header.Get("Content-Type"), nil
}
