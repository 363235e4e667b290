package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// ErrModelListUnavailable marks a model listing that failed in transport or
// decoding. A listing answered with an error status is not an error for
// LatestModel; it simply yields no model.
var ErrModelListUnavailable = errors.New("model list unavailable")

type Client struct {
	client  *api.Client
	http    *http.Client
	baseURL *url.URL
	filter  string
	log     *zap.Logger
}

type ModelInfo struct {
	Name string
	Size int64
}

// NewClient creates a client for the Ollama server at baseURL. filter is the
// case-insensitive substring LatestModel matches model names against.
func NewClient(baseURL, filter string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL %q: scheme and host are required", baseURL)
	}

	return &Client{
		client:  api.NewClient(parsedURL, httpClient),
		http:    httpClient,
		baseURL: parsedURL,
		filter:  strings.ToLower(filter),
		log:     logger,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]ModelInfo, len(resp.Models))
	for i, model := range resp.Models {
		models[i] = ModelInfo{
			Name: model.Name,
			Size: model.Size,
		}
	}

	return models, nil
}

// LatestModel returns the most recently listed model whose name contains the
// filter. "Most recent" is the server's listing order: the last match wins.
//
// An empty name with a nil error means no model matched or the server
// answered with an error status. Transport and decode failures return an
// error wrapping ErrModelListUnavailable.
func (c *Client) LatestModel(ctx context.Context) (string, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			c.log.Debug("model listing rejected",
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.ErrorMessage))
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", ErrModelListUnavailable, err)
	}

	return SelectLatest(models, c.filter), nil
}

// SelectLatest returns the last model name containing filter, compared
// case-insensitively, or "" when none does.
func SelectLatest(models []ModelInfo, filter string) string {
	filter = strings.ToLower(filter)
	latest := ""
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Name), filter) {
			latest = m.Name
		}
	}
	return latest
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}
