package settlement

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/truth-market/internal/errors"
	"github.com/truth-market/internal/hedera"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/storage"
	"github.com/truth-market/internal/types"
)

var testAccountPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

type transferCall struct {
	to     string
	amount int64
}

type fakeLedger struct {
	mu             sync.Mutex
	treasury       string
	badgeTokenID   string
	transferErr    error
	mintErr        error
	transfers      []transferCall
	mints          int
	topicMessages  int
	topicErr       error
	nextMintSerial int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{treasury: "0.0.999"}
}

func (f *fakeLedger) TreasuryAccount() string { return f.treasury }
func (f *fakeLedger) BadgeTokenID() string    { return f.badgeTokenID }

func (f *fakeLedger) VerifyIdentity(accountID string) bool {
	return testAccountPattern.MatchString(accountID)
}

func (f *fakeLedger) TransferValue(_ context.Context, to string, amount int64) (*hedera.TransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.transferErr != nil {
		return nil, f.transferErr
	}
	f.transfers = append(f.transfers, transferCall{to: to, amount: amount})
	return &hedera.TransferResult{
		Success:       true,
		TransactionID: fmt.Sprintf("transfer-%d", len(f.transfers)),
		Status:        "SUCCESS",
	}, nil
}

func (f *fakeLedger) MintMembershipToken(_ context.Context, _ *models.BadgeMetadata) (*hedera.MintResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.badgeTokenID == "" {
		return &hedera.MintResult{Unavailable: true}, nil
	}
	if f.mintErr != nil {
		return nil, f.mintErr
	}
	f.mints++
	f.nextMintSerial++
	return &hedera.MintResult{
		Success:       true,
		SerialNumber:  fmt.Sprintf("%d", f.nextMintSerial),
		TransactionID: fmt.Sprintf("mint-%d", f.nextMintSerial),
		Status:        "SUCCESS",
	}, nil
}

func (f *fakeLedger) SubmitTopicMessage(_ context.Context, _ interface{}) (*hedera.TopicResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.topicErr != nil {
		return nil, f.topicErr
	}
	f.topicMessages++
	return &hedera.TopicResult{Success: true, SequenceNumber: int64(f.topicMessages)}, nil
}

type fakeRegistry struct {
	enabled bool
	proof   *models.AgentProof
	err     error
}

func (f *fakeRegistry) Enabled() bool { return f.enabled }

func (f *fakeRegistry) GetAgent(_ context.Context, agentID string) (*models.AgentProof, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.proof != nil {
		return f.proof, nil
	}
	return &models.AgentProof{AgentID: agentID, Active: true}, nil
}

type stubVerifier struct {
	mu       sync.Mutex
	calls    int
	verdicts map[string]types.Verdict
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{verdicts: make(map[string]types.Verdict)}
}

func (s *stubVerifier) Verify(_ context.Context, claim string) (*models.Verification, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	verdict, ok := s.verdicts[claim]
	if !ok {
		verdict = types.VerdictTrue
	}
	return &models.Verification{
		Verdict:    verdict,
		Confidence: 98,
		Reasoning:  "stubbed verification",
		Verifier:   "stub",
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (s *stubVerifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestEngine(ledger *fakeLedger, registry AgentRegistry, verifier *stubVerifier) (*Engine, *storage.Stores) {
	stores := storage.NewMemoryStores().Stores()
	engine := NewEngine(stores, verifier, ledger, registry, nil, "truth-agent")
	return engine, stores
}

func buyRequest(tx string) *PurchaseRequest {
	return &PurchaseRequest{
		Claim:         "Water boils at 100°C at sea level",
		Buyer:         "0.0.1001",
		TransactionID: tx,
	}
}

func TestPurchaseFiveTimesEarnsBronzeBadge(t *testing.T) {
	ledger := newFakeLedger()
	verifier := newStubVerifier()
	engine, _ := newTestEngine(ledger, nil, verifier)
	ctx := context.Background()

	var last *models.SettlementResult
	for i := 1; i <= 5; i++ {
		result, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
		require.Equal(t, types.SettlementSuccess, result.State)
		last = result
	}

	assert.Equal(t, 5, last.Buyer.PurchaseCount)
	assert.Equal(t, 1, last.Buyer.BadgesEarned)
	require.NotNil(t, last.Badge)
	assert.True(t, last.Badge.Minted)
	require.NotNil(t, last.Badge.Badge)
	assert.Equal(t, types.TierBronze, last.Badge.Badge.Tier)
	assert.Equal(t, 5, last.Badge.Badge.PurchaseCount)

	// Only the first purchase should hit the verifier; the stored settled
	// claim is reused afterwards
	assert.Equal(t, 1, verifier.callCount())
}

func TestPurchaseBeforeMilestoneReportsProgress(t *testing.T) {
	engine, _ := newTestEngine(newFakeLedger(), nil, newStubVerifier())

	result, err := engine.PurchaseClaim(context.Background(), buyRequest("tx1"))
	require.NoError(t, err)

	assert.False(t, result.Badge.Minted)
	assert.Equal(t, 4, result.Badge.NextIn)
	assert.Equal(t, 4, result.Buyer.NextBadgeIn)
}

func TestPurchaseRejectedOnFalseClaim(t *testing.T) {
	ledger := newFakeLedger()
	verifier := newStubVerifier()
	verifier.verdicts["The earth is flat and NASA hides it"] = types.VerdictFalse
	engine, stores := newTestEngine(ledger, nil, verifier)
	ctx := context.Background()

	result, err := engine.PurchaseClaim(ctx, &PurchaseRequest{
		Claim:         "The earth is flat and NASA hides it",
		Buyer:         "0.0.1001",
		TransactionID: "tx1",
	})
	require.NoError(t, err)

	assert.Equal(t, types.SettlementRejected, result.State)
	require.NotNil(t, result.Rejection)
	assert.Equal(t, "CLAIM_REJECTED", result.Rejection.Code)
	require.NotNil(t, result.Rejection.Verification)
	assert.Equal(t, types.VerdictFalse, result.Rejection.Verification.Verdict)
	assert.Nil(t, result.Sale)

	// No sale, no user mutation
	_, err = stores.Users.GetByAccountID(ctx, "0.0.1001")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sales, err := stores.Sales.List(ctx, storage.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestPurchaseValidation(t *testing.T) {
	engine, _ := newTestEngine(newFakeLedger(), nil, newStubVerifier())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *PurchaseRequest
	}{
		{"short claim", &PurchaseRequest{Claim: "too short", Buyer: "0.0.1001", TransactionID: "tx1"}},
		{"missing buyer", &PurchaseRequest{Claim: "Water boils at 100°C at sea level", TransactionID: "tx1"}},
		{"malformed buyer", &PurchaseRequest{Claim: "Water boils at 100°C at sea level", Buyer: "0xabc", TransactionID: "tx1"}},
		{"missing payment proof", &PurchaseRequest{Claim: "Water boils at 100°C at sea level", Buyer: "0.0.1001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.PurchaseClaim(ctx, tt.req)
			require.Error(t, err)

			var catErr *apperrors.CategorizedError
			require.ErrorAs(t, err, &catErr)
			assert.Equal(t, "VALIDATION_ERROR", catErr.Code)
		})
	}
}

func TestAgentProofGate(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup failure blocks the purchase", func(t *testing.T) {
		registry := &fakeRegistry{enabled: true, err: errors.New("gateway down")}
		engine, stores := newTestEngine(newFakeLedger(), registry, newStubVerifier())

		_, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
		require.Error(t, err)

		var catErr *apperrors.CategorizedError
		require.ErrorAs(t, err, &catErr)
		assert.Equal(t, "AGENT_UNAVAILABLE", catErr.Code)

		sales, err := stores.Sales.List(ctx, storage.SaleFilter{})
		require.NoError(t, err)
		assert.Empty(t, sales)
	})

	t.Run("inactive agent blocks the purchase", func(t *testing.T) {
		registry := &fakeRegistry{enabled: true, proof: &models.AgentProof{AgentID: "truth-agent", Active: false}}
		engine, _ := newTestEngine(newFakeLedger(), registry, newStubVerifier())

		_, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
		require.Error(t, err)

		var catErr *apperrors.CategorizedError
		require.ErrorAs(t, err, &catErr)
		assert.Equal(t, "AGENT_INACTIVE", catErr.Code)
	})

	t.Run("active agent proof is attached to the sale", func(t *testing.T) {
		registry := &fakeRegistry{enabled: true, proof: &models.AgentProof{
			AgentID:  "truth-agent",
			AgentKey: "0xabc",
			Active:   true,
		}}
		engine, _ := newTestEngine(newFakeLedger(), registry, newStubVerifier())

		result, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
		require.NoError(t, err)

		require.NotNil(t, result.AgentProof)
		assert.Equal(t, "truth-agent", result.AgentProof.AgentID)
		require.NotNil(t, result.Sale.AgentProof)
		assert.True(t, result.Sale.AgentProof.Active)
	})

	t.Run("disabled registry skips the lookup", func(t *testing.T) {
		registry := &fakeRegistry{enabled: false, err: errors.New("must not be called")}
		engine, _ := newTestEngine(newFakeLedger(), registry, newStubVerifier())

		result, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
		require.NoError(t, err)
		assert.Nil(t, result.AgentProof)
	})
}

func TestRevenueSplitForThirdPartySubmitter(t *testing.T) {
	ledger := newFakeLedger()
	engine, stores := newTestEngine(ledger, nil, newStubVerifier())
	ctx := context.Background()

	// Claim submitted by an identified third-party account
	require.NoError(t, stores.Claims.Create(ctx, &models.Claim{
		Text:        "Water boils at 100°C at sea level",
		Verdict:     types.VerdictTrue,
		Confidence:  98,
		Reasoning:   "known",
		Verifier:    "test",
		SubmittedBy: "0.0.2002",
	}))

	result, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.2002", result.Sale.Seller)
	require.NotNil(t, result.Revenue)
	assert.Equal(t, int64(700_000), result.Revenue.SubmitterTinybar)
	assert.Equal(t, int64(200_000), result.Revenue.AgentTinybar)
	assert.Equal(t, int64(100_000), result.Revenue.PlatformTinybar)
	assert.True(t, result.Revenue.Transferred)
	assert.NotEmpty(t, result.Revenue.TransferTxID)

	require.Len(t, ledger.transfers, 1)
	assert.Equal(t, "0.0.2002", ledger.transfers[0].to)
	assert.Equal(t, int64(700_000), ledger.transfers[0].amount)
}

func TestRevenueRetainedForAnonymousSubmitter(t *testing.T) {
	ledger := newFakeLedger()
	engine, _ := newTestEngine(ledger, nil, newStubVerifier())

	result, err := engine.PurchaseClaim(context.Background(), buyRequest("tx1"))
	require.NoError(t, err)

	assert.Equal(t, ledger.treasury, result.Sale.Seller)
	assert.Equal(t, result.Revenue.TotalTinybar, result.Revenue.PlatformTinybar)
	assert.False(t, result.Revenue.Transferred)
	assert.Empty(t, ledger.transfers)
}

func TestTransferFailureKeepsSale(t *testing.T) {
	ledger := newFakeLedger()
	ledger.transferErr = errors.New("consensus timeout")
	engine, stores := newTestEngine(ledger, nil, newStubVerifier())
	ctx := context.Background()

	require.NoError(t, stores.Claims.Create(ctx, &models.Claim{
		Text:        "Water boils at 100°C at sea level",
		Verdict:     types.VerdictTrue,
		Confidence:  98,
		SubmittedBy: "0.0.2002",
	}))

	result, err := engine.PurchaseClaim(ctx, buyRequest("tx1"))
	require.NoError(t, err)

	assert.Equal(t, types.SettlementSuccess, result.State)
	assert.False(t, result.Revenue.Transferred)
	assert.NotEmpty(t, result.Revenue.TransferError)
	assert.NotEmpty(t, result.Warnings)

	sales, err := stores.Sales.List(ctx, storage.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestDemoBadgeWhenMintUnavailable(t *testing.T) {
	ledger := newFakeLedger() // no badge collection configured
	engine, stores := newTestEngine(ledger, nil, newStubVerifier())
	ctx := context.Background()

	var last *models.SettlementResult
	for i := 1; i <= 5; i++ {
		result, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
		last = result
	}

	require.True(t, last.Badge.Minted)
	assert.True(t, last.Badge.Badge.IsDemo())
	assert.Contains(t, last.Warnings, "badge recorded in demo mode, no on-ledger mint")
	assert.Equal(t, 1, last.Buyer.BadgesEarned)

	badges, err := stores.Badges.ListByRecipient(ctx, "0.0.1001")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.True(t, badges[0].IsDemo())
}

func TestRealBadgeMint(t *testing.T) {
	ledger := newFakeLedger()
	ledger.badgeTokenID = "0.0.5555"
	engine, _ := newTestEngine(ledger, nil, newStubVerifier())
	ctx := context.Background()

	var last *models.SettlementResult
	for i := 1; i <= 5; i++ {
		result, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
		last = result
	}

	require.True(t, last.Badge.Minted)
	assert.False(t, last.Badge.Badge.IsDemo())
	assert.Equal(t, "0.0.5555", last.Badge.Badge.TokenID)
	assert.Equal(t, "1", last.Badge.Badge.SerialNumber)
	assert.Empty(t, last.Warnings)
	assert.Equal(t, 1, ledger.mints)
}

func TestMintFailureDegradesToDemoBadge(t *testing.T) {
	ledger := newFakeLedger()
	ledger.badgeTokenID = "0.0.5555"
	ledger.mintErr = errors.New("consensus timeout")
	engine, _ := newTestEngine(ledger, nil, newStubVerifier())
	ctx := context.Background()

	var last *models.SettlementResult
	for i := 1; i <= 5; i++ {
		result, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
		last = result
	}

	require.True(t, last.Badge.Minted)
	assert.True(t, last.Badge.Badge.IsDemo())
	assert.Equal(t, 1, last.Buyer.BadgesEarned)
}

func TestBadgeCountInvariant(t *testing.T) {
	engine, stores := newTestEngine(newFakeLedger(), nil, newStubVerifier())
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		_, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
	}

	user, err := stores.Users.GetByAccountID(ctx, "0.0.1001")
	require.NoError(t, err)
	assert.Equal(t, 12, user.PurchaseCount)
	assert.Equal(t, 2, user.BadgesEarned)

	badges, err := stores.Badges.ListByRecipient(ctx, "0.0.1001")
	require.NoError(t, err)
	require.Len(t, badges, 2)
	for _, badge := range badges {
		assert.Zero(t, badge.PurchaseCount%5)
	}
}

func TestBadgeTierProgression(t *testing.T) {
	engine, stores := newTestEngine(newFakeLedger(), nil, newStubVerifier())
	ctx := context.Background()

	for i := 1; i <= 15; i++ {
		_, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
		require.NoError(t, err)
	}

	badges, err := stores.Badges.ListByRecipient(ctx, "0.0.1001")
	require.NoError(t, err)
	require.Len(t, badges, 3)

	tiersByCount := make(map[int]types.BadgeTier)
	for _, badge := range badges {
		tiersByCount[badge.PurchaseCount] = badge.Tier
	}
	assert.Equal(t, types.TierBronze, tiersByCount[5])
	assert.Equal(t, types.TierUncommon, tiersByCount[10])
	assert.Equal(t, types.TierRare, tiersByCount[15])
}

func TestConcurrentSameBuyerPurchases(t *testing.T) {
	engine, stores := newTestEngine(newFakeLedger(), nil, newStubVerifier())
	ctx := context.Background()

	// Settle the claim first so the concurrent purchases all reuse it
	_, err := engine.VerifyClaim(ctx, "Water boils at 100°C at sea level", "")
	require.NoError(t, err)

	const concurrent = 10
	var wg sync.WaitGroup
	wg.Add(concurrent)
	for i := 0; i < concurrent; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := engine.PurchaseClaim(ctx, buyRequest(fmt.Sprintf("tx%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	user, err := stores.Users.GetByAccountID(ctx, "0.0.1001")
	require.NoError(t, err)
	assert.Equal(t, 10, user.PurchaseCount)
	assert.Equal(t, 2, user.BadgesEarned)

	badges, err := stores.Badges.ListByRecipient(ctx, "0.0.1001")
	require.NoError(t, err)
	assert.Len(t, badges, 2)
}

func TestVerifyClaimPersistsAndReuses(t *testing.T) {
	verifier := newStubVerifier()
	engine, stores := newTestEngine(newFakeLedger(), nil, verifier)
	ctx := context.Background()

	first, err := engine.VerifyClaim(ctx, "Water boils at 100°C at sea level", "0.0.2002")
	require.NoError(t, err)
	assert.Equal(t, types.VerdictTrue, first.Verdict)
	assert.Equal(t, "0.0.2002", first.SubmittedBy)

	second, err := engine.VerifyClaim(ctx, "Water boils at 100°C at sea level", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, verifier.callCount())

	stored, err := stores.Claims.GetByText(ctx, "Water boils at 100°C at sea level")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}

func TestVerifyClaimValidation(t *testing.T) {
	engine, _ := newTestEngine(newFakeLedger(), nil, newStubVerifier())

	_, err := engine.VerifyClaim(context.Background(), "short", "")
	require.Error(t, err)

	var catErr *apperrors.CategorizedError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "VALIDATION_ERROR", catErr.Code)
}

func TestAuditNotifierAppendsAfterSale(t *testing.T) {
	ledger := newFakeLedger()
	audit := NewAuditNotifier(ledger, 5*time.Second)
	stores := storage.NewMemoryStores().Stores()
	engine := NewEngine(stores, newStubVerifier(), ledger, nil, audit, "truth-agent")

	_, err := engine.PurchaseClaim(context.Background(), buyRequest("tx1"))
	require.NoError(t, err)

	audit.Wait()

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	assert.Equal(t, 1, ledger.topicMessages)
}

func TestAuditFailureDoesNotAffectPurchase(t *testing.T) {
	ledger := newFakeLedger()
	ledger.topicErr = errors.New("topic unavailable")
	audit := NewAuditNotifier(ledger, time.Second)
	stores := storage.NewMemoryStores().Stores()
	engine := NewEngine(stores, newStubVerifier(), ledger, nil, audit, "truth-agent")

	result, err := engine.PurchaseClaim(context.Background(), buyRequest("tx1"))
	require.NoError(t, err)
	assert.Equal(t, types.SettlementSuccess, result.State)

	audit.Wait()
}
