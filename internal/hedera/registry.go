package hedera

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/models"
)

// Registry looks up agent registrations in the on-chain AgentRegistry
// contract through the gateway. When no contract is configured the registry
// is disabled and lookups are skipped entirely.
type Registry struct {
	client     *Client
	contractID string
}

// NewRegistry creates an agent registry bound to the gateway client
func NewRegistry(client *Client, cfg config.LedgerConfig) *Registry {
	return &Registry{
		client:     client,
		contractID: cfg.RegistryContract,
	}
}

// Enabled reports whether on-chain agent proofs are configured
func (r *Registry) Enabled() bool {
	return r.contractID != ""
}

// AgentKey computes the registry key for an agent id, the keccak256 hash of
// the raw id bytes, matching the contract's key derivation.
func AgentKey(agentID string) string {
	return "0x" + hex.EncodeToString(crypto.Keccak256([]byte(agentID)))
}

type registryCallResponse struct {
	Owner         string `json:"owner"`
	Role          string `json:"role"`
	MetadataURI   string `json:"metadataUri"`
	PublicKeyHash string `json:"publicKeyHash"`
	RegisteredAt  int64  `json:"registeredAt"`
	Active        bool   `json:"active"`
}

// GetAgent fetches the registration record for an agent id. Any gateway or
// contract failure is returned as an error; the caller decides whether that
// blocks the operation.
func (r *Registry) GetAgent(ctx context.Context, agentID string) (*models.AgentProof, error) {
	if !r.Enabled() {
		return nil, fmt.Errorf("agent registry contract not configured")
	}

	payload := map[string]interface{}{
		"function": "getAgent",
		"args":     []string{agentID},
	}

	var result registryCallResponse
	path := fmt.Sprintf("/v1/contracts/%s/call", r.contractID)
	if err := r.client.post(ctx, path, payload, &result); err != nil {
		return nil, fmt.Errorf("registry lookup for %s failed: %w", agentID, err)
	}

	return &models.AgentProof{
		AgentID:       agentID,
		AgentKey:      AgentKey(agentID),
		ContractID:    r.contractID,
		Owner:         result.Owner,
		Role:          result.Role,
		MetadataURI:   result.MetadataURI,
		PublicKeyHash: result.PublicKeyHash,
		RegisteredAt:  result.RegisteredAt,
		Active:        result.Active,
	}, nil
}
