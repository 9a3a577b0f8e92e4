package email

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"recovery-kita.backend/internal/domain/gateways"
)

const sendTimeout = 10 * time.Second

// ResendSender implements gateways.EmailSender on the Resend API. Every
// send carries X-Entity-Ref-ID so gateway-side retries deduplicate.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg *gateways.EmailMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
		Headers: map[string]string{"X-Entity-Ref-ID": msg.RefID},
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
