package gateways

import "context"

// EmailMessage is one outbound email. RefID is attached as the gateway's
// entity-reference header so resends deduplicate on the gateway side.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	RefID    string
}

// EmailSender delivers email through the external gateway.
type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) (id string, err error)
}
