package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/retry"
)

// AuditNotifier appends settled purchases to the consensus topic. Appends run
// detached from the request; a failed append is logged and never fails or
// reverses the purchase.
type AuditNotifier struct {
	ledger  Ledger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAuditNotifier creates an audit notifier bound to the ledger
func NewAuditNotifier(ledger Ledger, timeout time.Duration) *AuditNotifier {
	return &AuditNotifier{
		ledger:  ledger,
		timeout: timeout,
	}
}

type auditMessage struct {
	Event         string `json:"event"`
	SaleID        string `json:"saleId"`
	Buyer         string `json:"buyer"`
	Seller        string `json:"seller"`
	PriceTinybar  int64  `json:"priceTinybar"`
	TransactionID string `json:"transactionId"`
	BadgeMinted   bool   `json:"badgeMinted"`
	Timestamp     string `json:"timestamp"`
}

// NotifySale submits an audit record for a settled purchase in the
// background and returns immediately.
func (n *AuditNotifier) NotifySale(result *models.SettlementResult) {
	if result.Sale == nil {
		return
	}

	msg := &auditMessage{
		Event:         "marketplace.sale",
		SaleID:        result.Sale.ID,
		Buyer:         result.Sale.Buyer,
		Seller:        result.Sale.Seller,
		PriceTinybar:  result.Sale.PriceTinybar,
		TransactionID: result.Sale.TransactionID,
		BadgeMinted:   result.Badge != nil && result.Badge.Minted,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := retry.WithRetry(ctx, func(ctx context.Context, _ int) error {
			_, err := n.ledger.SubmitTopicMessage(ctx, msg)
			return err
		})
		if err != nil {
			logging.WithError(err).WithField("saleId", msg.SaleID).Warn("Audit append failed")
			return
		}

		logging.WithField("saleId", msg.SaleID).Debug("Audit record appended")
	}()
}

// Wait blocks until all in-flight audit appends finish, used on shutdown and
// in tests.
func (n *AuditNotifier) Wait() {
	n.wg.Wait()
}
