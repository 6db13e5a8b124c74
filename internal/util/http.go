package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps remote downloads; student photos are resized on upload
// so anything larger is almost certainly not an image we want.
const MaxBodyBytes = 25 << 20

// GetBytes performs a GET bound to ctx and returns the body of a 2xx
// response.
func GetBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
}
