// Package netx holds small HTTP transfer helpers shared by the client.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// FetchToFile downloads url with the given client and writes the body to
// path. The file is created with 0644 and truncated if it exists. Non-2xx
// responses are reported as errors and nothing is written.
func FetchToFile(ctx context.Context, client *http.Client, url string, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch failed: %s; body: %s", resp.Status, string(b))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}
