package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/types"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		verdict    types.Verdict
		confidence int
	}{
		{"plain true", "TRUE - water does boil at that temperature", types.VerdictTrue, 85},
		{"plain false", "FALSE - the earth is not flat", types.VerdictFalse, 85},
		{"true with confidence", "TRUE - I am 97% sure about this", types.VerdictTrue, 97},
		{"lowercase verdict", "true - widely documented", types.VerdictTrue, 85},
		{"both keywords", "This could be TRUE or FALSE depending on context", types.VerdictUncertain, 50},
		{"neither keyword", "I cannot determine this", types.VerdictUncertain, 50},
		{"overflow percentage ignored", "TRUE - 250% certain", types.VerdictTrue, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, confidence := parseReply(tt.content)
			assert.Equal(t, tt.verdict, verdict)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func newChatCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGroqVerify(t *testing.T) {
	server := newChatCompletionServer(t, "TRUE - water boils at 100°C at standard pressure, 95% confidence")
	defer server.Close()

	g := NewGroqVerifier(config.VerifyConfig{
		APIKey:  "test-key",
		Model:   "llama-3.3-70b-versatile",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})

	result, err := g.Verify(context.Background(), "Water boils at 100°C at sea level")
	require.NoError(t, err)

	assert.Equal(t, types.VerdictTrue, result.Verdict)
	assert.Equal(t, 95, result.Confidence)
	assert.Contains(t, result.Verifier, "GROQ AI")
	assert.False(t, result.Cached)
}

func TestGroqVerifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewGroqVerifier(config.VerifyConfig{
		APIKey:  "test-key",
		Model:   "llama-3.3-70b-versatile",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})

	_, err := g.Verify(context.Background(), "Water boils at 100°C at sea level")
	assert.Error(t, err)
}

func TestServiceFallsBackOnGroqFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(config.VerifyConfig{
		APIKey:   "test-key",
		Model:    "llama-3.3-70b-versatile",
		BaseURL:  server.URL,
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	}, nil)

	result, err := svc.Verify(context.Background(), "Water boils at 100°C at sea level")
	require.NoError(t, err)

	assert.Equal(t, types.VerdictTrue, result.Verdict)
	assert.Equal(t, FallbackVerifierName, result.Verifier)
}
