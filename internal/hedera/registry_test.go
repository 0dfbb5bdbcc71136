package hedera

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
)

func TestAgentKey(t *testing.T) {
	// keccak256("truth-agent") must match the contract's key derivation
	key := AgentKey("truth-agent")

	assert.Len(t, key, 66)
	assert.Equal(t, "0x", key[:2])
	assert.Equal(t, key, AgentKey("truth-agent"))
	assert.NotEqual(t, key, AgentKey("badge-agent"))
}

func TestRegistryDisabled(t *testing.T) {
	client := newTestClient("http://localhost:0", "")
	registry := NewRegistry(client, config.LedgerConfig{})

	assert.False(t, registry.Enabled())

	_, err := registry.GetAgent(context.Background(), "truth-agent")
	assert.Error(t, err)
}

func TestRegistryGetAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/contracts/0.0.4444/call", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "getAgent", payload["function"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"owner":         "0x00000000000000000000000000000000000003e7",
			"role":          "truth-market-seller",
			"metadataUri":   "https://example.org/agents/truth",
			"publicKeyHash": "0xabc123",
			"registeredAt":  1700000000,
			"active":        true,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")
	registry := NewRegistry(client, config.LedgerConfig{
		GatewayURL:       server.URL,
		RegistryContract: "0.0.4444",
		Timeout:          5 * time.Second,
	})

	proof, err := registry.GetAgent(context.Background(), "truth-agent")
	require.NoError(t, err)

	assert.Equal(t, "truth-agent", proof.AgentID)
	assert.Equal(t, AgentKey("truth-agent"), proof.AgentKey)
	assert.Equal(t, "0.0.4444", proof.ContractID)
	assert.Equal(t, "truth-market-seller", proof.Role)
	assert.True(t, proof.Active)
}

func TestRegistryLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"CONTRACT_REVERT_EXECUTED"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")
	registry := NewRegistry(client, config.LedgerConfig{
		GatewayURL:       server.URL,
		RegistryContract: "0.0.4444",
	})

	_, err := registry.GetAgent(context.Background(), "truth-agent")
	assert.Error(t, err)
}
