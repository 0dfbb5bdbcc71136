package models

import (
	"time"

	"github.com/truth-market/internal/types"
)

// Sale represents a completed purchase of a TRUE claim. Created exactly once
// per successful purchase and never mutated afterwards; the sale write is the
// durability point of the settlement pipeline.
type Sale struct {
	ID           string        `json:"id" db:"id"`
	ClaimText    string        `json:"claim" db:"claim_text"`
	Verdict      types.Verdict `json:"verdict" db:"verdict"`
	Confidence   int           `json:"confidence" db:"confidence"`
	Reasoning    string        `json:"reasoning" db:"reasoning"`
	Buyer        string        `json:"buyer" db:"buyer"`
	Seller       string        `json:"seller" db:"seller"`
	SubmittedBy  string        `json:"submittedBy" db:"submitted_by"`
	PriceTinybar int64         `json:"priceTinybar" db:"price_tinybar"`
	// TransactionID is the caller-supplied proof of the already-completed
	// external payment, not a transfer issued by this service.
	TransactionID string      `json:"transactionId" db:"transaction_id"`
	AgentID       string      `json:"agentId,omitempty" db:"agent_id"`
	AgentProof    *AgentProof `json:"agentProof,omitempty" db:"agent_proof"`
	CreatedAt     time.Time   `json:"timestamp" db:"created_at"`
}

// AgentProof is the on-chain registration record of the selling agent at the
// time of sale, when the agent registry is configured.
type AgentProof struct {
	AgentID       string `json:"agentId"`
	AgentKey      string `json:"agentKey"`
	ContractID    string `json:"contractId"`
	Owner         string `json:"owner,omitempty"`
	Role          string `json:"role,omitempty"`
	MetadataURI   string `json:"metadataUri,omitempty"`
	PublicKeyHash string `json:"publicKeyHash,omitempty"`
	RegisteredAt  int64  `json:"registeredAt,omitempty"`
	Active        bool   `json:"active"`
}
