package mailer

import (
	"context"

	"github.com/diagnosis/gatepass/pkg/events"
)

type Service interface {
	SendPassIssued(ctx context.Context, ev events.PassIssuedEvent) error
}
