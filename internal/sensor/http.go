package sensor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpalmerr/envmon/internal/climate"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; a remote node is a single host
const (
	defaultMaxIdleConns    = 4
	defaultIdleConnTimeout = 60 * time.Second
	defaultHTTPTimeout     = 5 * time.Second
)

// HTTPConfig configures an [HTTP] source.
type HTTPConfig struct {
	// URL is fetched with GET on every sample.
	URL string

	// Timeout bounds one request; zero means 5 seconds.
	Timeout time.Duration

	// Headers are added to every request (for example Authorization).
	Headers map[string]string

	// Decoder parses the body; nil means [StateDecoder].
	Decoder Decoder
}

// HTTP polls a remote node for its latest reading.
type HTTP struct {
	cfg        HTTPConfig
	httpClient *http.Client
}

// NewHTTP creates an [HTTP] source.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.Decoder == nil {
		cfg.Decoder = StateDecoder
	}
	return &HTTP{
		cfg: cfg,
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConns,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Sample fetches and decodes one reading.
func (h *HTTP) Sample(ctx context.Context) (climate.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.URL, nil)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return climate.Reading{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return climate.Reading{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return climate.Reading{}, fmt.Errorf("failed to read response body: %w", err)
	}

	return h.cfg.Decoder(body)
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	if transport, ok := h.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
