// Package notify sends payout notifications to campaign managers.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/leadpulse/agency-engine/billing"
)

// Notifier tells a campaign manager their monthly payment was recorded.
// Implementations must tolerate managers without an email address.
type Notifier interface {
	PaymentRecorded(ctx context.Context, manager billing.CampaignManager, payment billing.Payment) error
}

// LogNotifier is the development fallback: it logs instead of emailing.
type LogNotifier struct {
	Log *logrus.Logger
}

func (n *LogNotifier) PaymentRecorded(_ context.Context, manager billing.CampaignManager, payment billing.Payment) error {
	n.Log.WithFields(logrus.Fields{
		"manager": manager.Name,
		"month":   payment.Month,
		"total":   payment.TotalAmount.StringFixed(2),
	}).Info("payment recorded (email disabled)")
	return nil
}
