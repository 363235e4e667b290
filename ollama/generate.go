package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// maxBufferSize matches the line limit of Ollama's own streaming client.
const maxBufferSize = 512 * 1000

// ErrMalformedChunk is returned by GenerateStream.Next for a stream line that
// is not valid JSON. The stream stays usable.
var ErrMalformedChunk = errors.New("unable to parse JSON chunk")

// ResponseError is a generation failure reported by the server, either as a
// non-200 response or as an in-band {"error": ...} stream line.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return e.Body
}

// generateLine is the part of a /api/generate stream element the chat reads.
// Reasoning sent in the separate "thinking" field is ignored. A nil Response
// marks an element without text, such as a bare final statistics line.
type generateLine struct {
	Response *string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// GenerateStream is a finite, single-pass sequence of response chunks.
type GenerateStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	log     *zap.Logger
}

// Generate opens a streaming completion of prompt against model.
// A status other than 200 returns a *ResponseError carrying the body.
func (c *Client) Generate(ctx context.Context, model, prompt string) (*GenerateStream, error) {
	stream := true
	payload, err := json.Marshal(&api.GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: &stream,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	endpoint := c.baseURL.JoinPath("/api/generate")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read error response (%s): %w", resp.Status, readErr)
		}
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, maxBufferSize), maxBufferSize)

	return &GenerateStream{
		body:    resp.Body,
		scanner: scanner,
		log:     c.log,
	}, nil
}

// Next returns the response text of the next stream element that carries
// one; elements without a response field are skipped. It returns
// io.EOF once the server closes the stream, an error wrapping
// ErrMalformedChunk for an undecodable element (iteration may continue),
// and any other error for a failed transport or an in-band server error.
func (s *GenerateStream) Next() (string, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateLine
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.log.Debug("malformed stream line", zap.ByteString("line", line), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrMalformedChunk, err)
		}

		if chunk.Error != "" {
			return "", &ResponseError{StatusCode: http.StatusOK, Body: chunk.Error}
		}

		if chunk.Response == nil {
			continue
		}
		return *chunk.Response, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *GenerateStream) Close() error {
	return s.body.Close()
}
