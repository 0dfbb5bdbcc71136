package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/truth-market/internal/errors"
	"github.com/truth-market/internal/hedera"
	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/storage"
	"github.com/truth-market/internal/tier"
	"github.com/truth-market/internal/types"
	"github.com/truth-market/internal/verify"
)

// Ledger is the slice of the Hedera gateway the engine needs
type Ledger interface {
	TreasuryAccount() string
	BadgeTokenID() string
	VerifyIdentity(accountID string) bool
	TransferValue(ctx context.Context, toAccount string, amountTinybar int64) (*hedera.TransferResult, error)
	MintMembershipToken(ctx context.Context, metadata *models.BadgeMetadata) (*hedera.MintResult, error)
	SubmitTopicMessage(ctx context.Context, message interface{}) (*hedera.TopicResult, error)
}

// AgentRegistry is the on-chain agent proof lookup
type AgentRegistry interface {
	Enabled() bool
	GetAgent(ctx context.Context, agentID string) (*models.AgentProof, error)
}

// PurchaseRequest is one purchase invocation. TransactionID is the caller's
// proof of an already-completed external payment.
type PurchaseRequest struct {
	Claim         string `json:"claim"`
	Buyer         string `json:"buyer"`
	TransactionID string `json:"transactionId"`
	SubmittedBy   string `json:"submittedBy,omitempty"`
	AgentID       string `json:"agentId,omitempty"`
}

// Engine orchestrates purchase settlement. All state lives in the injected
// collaborators; the engine itself is stateless and safe for concurrent use.
type Engine struct {
	stores       *storage.Stores
	verifier     verify.Verifier
	ledger       Ledger
	registry     AgentRegistry
	audit        *AuditNotifier
	truthAgentID string
	priceTinybar int64
}

// NewEngine creates a settlement engine. registry may be nil when on-chain
// agent proofs are not configured; audit may be nil to disable audit appends.
func NewEngine(stores *storage.Stores, verifier verify.Verifier, ledger Ledger, registry AgentRegistry, audit *AuditNotifier, truthAgentID string) *Engine {
	return &Engine{
		stores:       stores,
		verifier:     verifier,
		ledger:       ledger,
		registry:     registry,
		audit:        audit,
		truthAgentID: truthAgentID,
		priceTinybar: DefaultPriceTinybar,
	}
}

// PurchaseClaim runs the full settlement pipeline for one purchase. Business
// rejections (FALSE or UNCERTAIN verdicts) come back as a REJECTED result
// with a nil error; returned errors mean the request must not be treated as
// settled (validation, agent gate, storage).
func (e *Engine) PurchaseClaim(ctx context.Context, req *PurchaseRequest) (*models.SettlementResult, error) {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"buyer":     req.Buyer,
		"paymentTx": req.TransactionID,
	})
	ctx = logging.WithLogger(ctx, logger)

	if err := e.validate(req); err != nil {
		return nil, err
	}

	proof, err := e.lookupAgentProof(ctx, req.AgentID)
	if err != nil {
		return nil, err
	}

	claim, err := e.resolveClaim(ctx, req.Claim, req.SubmittedBy)
	if err != nil {
		return nil, err
	}

	if claim.Verdict != types.VerdictTrue {
		logger.WithFields(map[string]interface{}{
			"verdict":    claim.Verdict,
			"confidence": claim.Confidence,
		}).Info("Purchase rejected, claim is not verified TRUE")

		return &models.SettlementResult{
			State:      types.SettlementRejected,
			AgentProof: proof,
			Rejection: &models.Rejection{
				Code:    "CLAIM_REJECTED",
				Message: fmt.Sprintf("claim verified as %s, only TRUE claims are purchasable", claim.Verdict),
				Verification: &models.Verification{
					Verdict:    claim.Verdict,
					Confidence: claim.Confidence,
					Reasoning:  claim.Reasoning,
					Verifier:   claim.Verifier,
					Timestamp:  claim.CreatedAt,
				},
			},
		}, nil
	}

	result := &models.SettlementResult{
		State:      types.SettlementSuccess,
		AgentProof: proof,
	}

	seller := e.resolveSeller(claim)

	sale := &models.Sale{
		ClaimText:     claim.Text,
		Verdict:       claim.Verdict,
		Confidence:    claim.Confidence,
		Reasoning:     claim.Reasoning,
		Buyer:         req.Buyer,
		Seller:        seller,
		SubmittedBy:   claim.SubmittedBy,
		PriceTinybar:  e.priceTinybar,
		TransactionID: req.TransactionID,
		AgentID:       req.AgentID,
		AgentProof:    proof,
	}

	// The sale write is the durability point. Everything after it degrades
	// to warnings rather than rolling the purchase back.
	if err := e.stores.Sales.Create(ctx, sale); err != nil {
		return nil, apperrors.NewStorageError("sale create", err)
	}
	result.Sale = sale

	result.Revenue = e.distributeRevenue(ctx, sale, result)

	user, err := e.stores.Users.IncrementPurchases(ctx, req.Buyer)
	if err != nil {
		return nil, apperrors.NewStorageError("purchase count increment", err)
	}

	badge, err := e.awardBadgeIfDue(ctx, user)
	if err != nil {
		return nil, err
	}
	if badge != nil {
		result.Badge = &models.BadgeOutcome{Minted: true, Badge: badge}
		if badge.IsDemo() {
			result.Warnings = append(result.Warnings, "badge recorded in demo mode, no on-ledger mint")
		}

		user, err = e.stores.Users.IncrementBadges(ctx, req.Buyer)
		if err != nil {
			return nil, apperrors.NewStorageError("badge count increment", err)
		}
	} else {
		result.Badge = &models.BadgeOutcome{
			Minted: false,
			NextIn: tier.NextMilestoneIn(user.PurchaseCount),
		}
	}

	result.Buyer = &models.BuyerStats{
		AccountID:     user.AccountID,
		PurchaseCount: user.PurchaseCount,
		BadgesEarned:  user.BadgesEarned,
		NextBadgeIn:   tier.NextMilestoneIn(user.PurchaseCount),
	}

	logger.WithFields(map[string]interface{}{
		"saleId":        sale.ID,
		"purchaseCount": user.PurchaseCount,
		"badgeMinted":   result.Badge.Minted,
	}).Info("Purchase settled")

	if e.audit != nil {
		e.audit.NotifySale(result)
	}

	return result, nil
}

// VerifyClaim resolves a claim text to a stored, verified claim without any
// purchase. Backs the standalone verification endpoint.
func (e *Engine) VerifyClaim(ctx context.Context, text, submittedBy string) (*models.Claim, error) {
	if len(strings.TrimSpace(text)) < verify.MinClaimLength {
		return nil, apperrors.NewValidationError("claim", fmt.Sprintf("claim text must be at least %d characters", verify.MinClaimLength))
	}
	return e.resolveClaim(ctx, text, submittedBy)
}

func (e *Engine) validate(req *PurchaseRequest) error {
	if len(strings.TrimSpace(req.Claim)) < verify.MinClaimLength {
		return apperrors.NewValidationError("claim", fmt.Sprintf("claim text must be at least %d characters", verify.MinClaimLength))
	}
	if req.Buyer == "" {
		return apperrors.NewValidationError("buyer", "buyer account id is required")
	}
	if !e.ledger.VerifyIdentity(req.Buyer) {
		return apperrors.NewValidationError("buyer", fmt.Sprintf("invalid account id format: %s", req.Buyer))
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return apperrors.NewValidationError("transactionId", "payment transaction id is required")
	}
	return nil
}

// lookupAgentProof gates the sale on the agent's on-chain registration when
// the registry is configured. A lookup failure or inactive agent blocks the
// purchase; no sale may be created without a resolvable proof.
func (e *Engine) lookupAgentProof(ctx context.Context, agentID string) (*models.AgentProof, error) {
	if e.registry == nil || !e.registry.Enabled() {
		return nil, nil
	}

	if agentID == "" {
		agentID = e.truthAgentID
	}

	proof, err := e.registry.GetAgent(ctx, agentID)
	if err != nil {
		return nil, apperrors.NewAgentUnavailableError(agentID, err)
	}
	if !proof.Active {
		return nil, apperrors.NewAgentInactiveError(agentID)
	}

	return proof, nil
}

// resolveClaim reuses a stored settled claim, re-verifies a stored UNCERTAIN
// one, or verifies and stores a new one. Settled verdicts are never
// re-verified, so repeat purchases of the same claim text skip the AI call.
func (e *Engine) resolveClaim(ctx context.Context, text, submittedBy string) (*models.Claim, error) {
	text = strings.TrimSpace(text)

	existing, err := e.stores.Claims.GetByText(ctx, text)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewStorageError("claim lookup", err)
	}

	if existing != nil && existing.Settled() {
		return existing, nil
	}

	verification, err := e.verifier.Verify(ctx, text)
	if err != nil {
		// The gateway's fallback chain means this should not happen, but a
		// verdict is still owed to the caller
		return nil, apperrors.NewVerificationError(err)
	}

	if existing != nil {
		if err := e.stores.Claims.UpdateVerdict(ctx, existing.ID, verification); err != nil {
			return nil, apperrors.NewStorageError("claim verdict update", err)
		}
		existing.Verdict = verification.Verdict
		existing.Confidence = verification.Confidence
		existing.Reasoning = verification.Reasoning
		existing.Verifier = verification.Verifier
		return existing, nil
	}

	if submittedBy == "" {
		submittedBy = types.AnonymousSubmitter
	}

	claim := &models.Claim{
		Text:        text,
		Verdict:     verification.Verdict,
		Confidence:  verification.Confidence,
		Reasoning:   verification.Reasoning,
		Verifier:    verification.Verifier,
		SubmittedBy: submittedBy,
	}
	if err := e.stores.Claims.Create(ctx, claim); err != nil {
		return nil, apperrors.NewStorageError("claim create", err)
	}

	return claim, nil
}

// resolveSeller picks who gets the submitter share. Claims without an
// identified, ledger-valid submitter sell on behalf of the treasury.
func (e *Engine) resolveSeller(claim *models.Claim) string {
	treasury := e.ledger.TreasuryAccount()
	if claim.HasRealSubmitter(e.truthAgentID) && e.ledger.VerifyIdentity(claim.SubmittedBy) {
		return claim.SubmittedBy
	}
	return treasury
}

// distributeRevenue splits the price and executes the single submitter
// transfer when the seller is a third party. Transfer failure is recorded on
// the result but never rolls back the sale.
func (e *Engine) distributeRevenue(ctx context.Context, sale *models.Sale, result *models.SettlementResult) *models.Distribution {
	treasury := e.ledger.TreasuryAccount()

	if sale.Seller == treasury || sale.Seller == "" {
		return Retained(sale.PriceTinybar, treasury)
	}

	dist := Split(sale.PriceTinybar, sale.Seller)

	transfer, err := e.ledger.TransferValue(ctx, sale.Seller, dist.SubmitterTinybar)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Submitter revenue transfer failed, sale stands")
		dist.TransferError = err.Error()
		result.Warnings = append(result.Warnings, "submitter revenue transfer failed")
		return dist
	}

	dist.Transferred = true
	dist.TransferTxID = transfer.TransactionID
	return dist
}

// awardBadgeIfDue mints and persists a badge when the purchase count lands on
// a milestone. Mint unavailability or failure degrades to a demo badge record
// so the badge-count invariant holds without a real mint.
func (e *Engine) awardBadgeIfDue(ctx context.Context, user *models.User) (*models.Badge, error) {
	if !tier.IsMilestone(user.PurchaseCount) {
		return nil, nil
	}

	badgeTier := tier.TierFor(user.PurchaseCount)
	now := time.Now().UTC()

	badge := &models.Badge{
		Recipient:     user.AccountID,
		Tier:          badgeTier,
		PurchaseCount: user.PurchaseCount,
		MintedAt:      now,
		Metadata: models.BadgeMetadata{
			Name:          tier.BadgeName(badgeTier, user.PurchaseCount),
			Tier:          badgeTier,
			PurchaseCount: user.PurchaseCount,
			MintedAt:      now.Format(time.RFC3339),
			Recipient:     user.AccountID,
			Description:   tier.BadgeDescription(badgeTier, user.PurchaseCount),
		},
	}

	mint, err := e.ledger.MintMembershipToken(ctx, &badge.Metadata)
	switch {
	case err != nil:
		logging.FromContext(ctx).WithError(err).Warn("Badge mint failed, recording demo badge")
		e.applyDemoBadgeIDs(badge)
	case mint.Unavailable:
		logging.FromContext(ctx).Info("Badge collection not configured, recording demo badge")
		e.applyDemoBadgeIDs(badge)
	default:
		badge.TokenID = e.ledger.BadgeTokenID()
		badge.SerialNumber = mint.SerialNumber
		badge.TransactionID = mint.TransactionID
	}

	if err := e.stores.Badges.Create(ctx, badge); err != nil {
		return nil, apperrors.NewStorageError("badge create", err)
	}

	return badge, nil
}

func (e *Engine) applyDemoBadgeIDs(badge *models.Badge) {
	suffix := uuid.New().String()[:8]
	badge.SerialNumber = models.DemoIDPrefix + suffix
	badge.TransactionID = fmt.Sprintf("%stx_%s", models.DemoIDPrefix, suffix)
}
