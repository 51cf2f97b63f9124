/*
recorder.go - Idempotent payment record writer

PURPOSE:
  Turns a computed Statement into a persisted Payment record and drives the
  record's lifecycle:

    mark paid:       upsert by (manager, month), status=paid, payment date set
    cancel:          paid -> pending (explicit admin undo)
    attach receipt:  paid -> completed, receipt URL and date recorded

  The upsert key makes double-submission of "mark as paid" idempotent: the
  second click updates the same row instead of erroring or duplicating.
*/
package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// paymentDetails is the serialized breakdown stored on the Payment record,
// shown to the manager on their payment view.
type paymentDetails struct {
	Clients      []ClientDetail `json:"clients"`
	OneTimeWorks []OneTimeWork  `json:"oneTimeWorks"`
}

// Recorder writes payment records. Now is injectable for tests and defaults
// to Today.
type Recorder struct {
	Store PaymentStore
	Now   func() Day
}

func NewRecorder(store PaymentStore) *Recorder {
	return &Recorder{Store: store, Now: Today}
}

// MarkPaid upserts the payment record for (statement.Manager, month) with
// the computed totals and status paid. An existing record for the key is
// updated in place, whatever its prior status.
func (r *Recorder) MarkPaid(ctx context.Context, st Statement, month Month) (*Payment, error) {
	details, err := json.Marshal(paymentDetails{
		Clients:      st.ClientDetails,
		OneTimeWorks: st.OneTimeWorks,
	})
	if err != nil {
		return nil, fmt.Errorf("serializing payment details: %w", err)
	}

	existing, err := r.Store.FindPayment(ctx, st.Manager.ID, month.Key)
	if err != nil {
		return nil, err
	}

	now := r.Now()
	p := Payment{
		ID:          uuid.NewString(),
		ManagerID:   st.Manager.ID,
		Month:       month.Key,
		BaseAmount:  st.BaseAmount,
		VATAmount:   st.VATAmount,
		TotalAmount: st.TotalAmount,
		Status:      PaymentPaid,
		PaymentDate: &now,
		Details:     string(details),
	}
	if existing != nil {
		p.ID = existing.ID
		// A re-run keeps the receipt already on file.
		p.ReceiptURL = existing.ReceiptURL
		p.ReceiptDate = existing.ReceiptDate
	}

	if err := r.Store.SavePayment(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Cancel reverts a paid record to pending. Completed records (receipt on
// file) must not be cancelled.
func (r *Recorder) Cancel(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := r.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != PaymentPaid {
		return nil, &TransitionError{PaymentID: p.ID, From: p.Status, To: PaymentPending}
	}
	p.Status = PaymentPending
	p.PaymentDate = nil
	if err := r.Store.SavePayment(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// AttachReceipt records the uploaded receipt URL and completes the payment.
func (r *Recorder) AttachReceipt(ctx context.Context, paymentID, receiptURL string) (*Payment, error) {
	p, err := r.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != PaymentPaid {
		return nil, &TransitionError{PaymentID: p.ID, From: p.Status, To: PaymentCompleted}
	}
	now := r.Now()
	p.Status = PaymentCompleted
	p.ReceiptURL = receiptURL
	p.ReceiptDate = &now
	if err := r.Store.SavePayment(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}
