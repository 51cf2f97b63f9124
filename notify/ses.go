package notify

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	"github.com/leadpulse/agency-engine/billing"
)

// SESNotifier emails campaign managers through AWS SES when their monthly
// payment is recorded. Managers without an email address are skipped.
type SESNotifier struct {
	client *sesv2.Client
	sender string
	log    *logrus.Logger
}

// NewSESNotifier loads AWS credentials from the default chain (env vars,
// shared config, instance role).
func NewSESNotifier(ctx context.Context, region, sender string, log *logrus.Logger) (*SESNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESNotifier{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
		log:    log,
	}, nil
}

func (n *SESNotifier) PaymentRecorded(ctx context.Context, manager billing.CampaignManager, payment billing.Payment) error {
	if manager.Email == "" {
		n.log.WithField("manager", manager.Name).Debug("no email on file, skipping notification")
		return nil
	}

	subject := fmt.Sprintf("התשלום שלך לחודש %s נרשם", payment.Month)
	body := fmt.Sprintf(
		"שלום %s,\n\nהתשלום שלך לחודש %s נרשם במערכת.\n\nסכום בסיס: ₪%s\nמע\"מ: ₪%s\nסה\"כ: ₪%s\n\nנא להעלות חשבונית/קבלה דרך עמוד התשלומים.\n",
		manager.Name,
		payment.Month,
		payment.BaseAmount.StringFixed(2),
		payment.VATAmount.StringFixed(2),
		payment.TotalAmount.StringFixed(2),
	)

	input := &sesv2.SendEmailInput{
		FromEmailAddress: &n.sender,
		Destination: &types.Destination{
			ToAddresses: []string{manager.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: &subject,
				},
				Body: &types.Body{
					Text: &types.Content{
						Data: &body,
					},
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending payment notification to %s: %w", manager.Email, err)
	}
	return nil
}
