package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func listing(t *testing.T, names ...string) string {
	t.Helper()
	var resp api.ListResponse
	for _, name := range names {
		resp.Models = append(resp.Models, api.ListModelResponse{Name: name, Model: name, Size: 42})
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(data)
}

func TestLatestModel(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "last match in server order wins",
			status: http.StatusOK,
			body:   listing(t, "deepseek-r1:7b", "llama3.1:latest", "DeepSeek-Coder:33b", "qwen2.5:7b"),
			want:   "DeepSeek-Coder:33b",
		},
		{
			name:   "no match",
			status: http.StatusOK,
			body:   listing(t, "llama3.1:latest", "qwen2.5:7b"),
			want:   "",
		},
		{
			name:   "empty listing",
			status: http.StatusOK,
			body:   `{"models":[]}`,
			want:   "",
		},
		{
			name:   "error status is silent",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tagsServer(t, tt.status, tt.body)
			client, err := NewClient(srv.URL, "deepseek", srv.Client(), nil)
			require.NoError(t, err)

			got, err := client.LatestModel(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestModelUndecodableListing(t *testing.T) {
	srv := tagsServer(t, http.StatusOK, `{"models": [`)
	client, err := NewClient(srv.URL, "deepseek", srv.Client(), nil)
	require.NoError(t, err)

	got, err := client.LatestModel(context.Background())
	assert.ErrorIs(t, err, ErrModelListUnavailable)
	assert.Empty(t, got)
}

func TestLatestModelUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, "deepseek", nil, nil)
	require.NoError(t, err)

	got, err := client.LatestModel(context.Background())
	assert.ErrorIs(t, err, ErrModelListUnavailable)
	assert.Empty(t, got)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost", "deepseek", nil, nil)
	assert.Error(t, err)

	client, err := NewClient("", "deepseek", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", client.BaseURL())
}

func TestSelectLatest(t *testing.T) {
	models := []ModelInfo{{Name: "a-deepseek"}, {Name: "b"}, {Name: "c-DEEPSEEK"}}
	assert.Equal(t, "c-DEEPSEEK", SelectLatest(models, "DeepSeek"))
	assert.Equal(t, "", SelectLatest(nil, "deepseek"))
	assert.Equal(t, "b", SelectLatest(models[:2], "b"))
}
