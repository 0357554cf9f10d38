package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatParsesToolCalls(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_1","function":{"name":"search_child_chunks","arguments":"{\"query\":\"rag\"}"}}]}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	tools := []ToolDefinition{{Type: "function", Function: FunctionDefinition{
		Name:       "search_child_chunks",
		Parameters: json.RawMessage(`{"type":"object"}`),
	}}}
	msg, err := client.Chat(context.Background(), ChatConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "m"},
		[]ChatMessage{{Role: RoleUser, Content: "hi"}}, tools)
	require.NoError(t, err)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Empty(t, msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "function", msg.ToolCalls[0].Type)
	assert.Equal(t, "search_child_chunks", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"rag"}`, msg.ToolCalls[0].Function.Arguments)

	assert.Contains(t, got, "tools")
	assert.JSONEq(t, `"auto"`, string(got["tool_choice"]))
	assert.JSONEq(t, `"m"`, string(got["model"]))
}

func TestCompleteOmitsToolsAndReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "tools")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	model := NewChatModel(NewOpenAICompatibleClient(0), ChatConfig{BaseURL: srv.URL})
	out, err := model.Complete(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "status", status: http.StatusTooManyRequests, body: `rate limited`, want: "llm response status 429: rate limited"},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`, want: ErrEmptyChoices.Error()},
		{name: "bad json", status: http.StatusOK, body: `{`, want: "parse llm json failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenAICompatibleClient(0).Chat(context.Background(), ChatConfig{BaseURL: srv.URL}, nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "embed-model", body.Model)
		assert.Equal(t, []string{"a", "b"}, body.Input)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	embedder := NewEmbedder(NewOpenAICompatibleClient(0), EmbeddingConfig{BaseURL: srv.URL, Model: "embed-model"})
	vecs, err := embedder.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAICompatibleClient(0).EmbedBatch(context.Background(), EmbeddingConfig{BaseURL: srv.URL}, []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 vectors for 2 inputs")
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	vecs, err := NewOpenAICompatibleClient(0).EmbedBatch(context.Background(), EmbeddingConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
