package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"pickme/internal/structures"
)

const maxResponseBytes = 16 << 20

// Transport posts an encoded action and returns the status and body.
type Transport interface {
	Post(ctx context.Context, body []byte) (int, []byte, error)
}

type HTTPTransport struct {
	url    string
	client *http.Client
}

func NewHTTPTransport(conf *structures.Config) Transport {
	return &HTTPTransport{
		url:    conf.Remote.URL,
		client: &http.Client{Timeout: conf.Remote.Timeout},
	}
}

func (t *HTTPTransport) Post(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}
