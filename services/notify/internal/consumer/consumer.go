package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/gatepass/pkg/events"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/notify/internal/mailer"
)

var ErrNoRecipient = errors.New("pass.issued event has no resident email")

// PassIssued emails the resident once a pass is issued. Delivery is best effort: a failed
// send is logged and the message is not redelivered.
type PassIssued struct {
	mailer  mailer.Service
	timeout time.Duration
}

func NewPassIssued(m mailer.Service) *PassIssued {
	return &PassIssued{mailer: m, timeout: 15 * time.Second}
}

// Handle is the NATS callback.
func (c *PassIssued) Handle(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.Process(ctx, msg.Data); err != nil {
		if errors.Is(err, ErrNoRecipient) {
			logger.Warn("Skipping pass notification", "subject", msg.Subject, "msg_id", msg.ID, "error", err)
			return
		}
		logger.Error("Pass notification failed", "subject", msg.Subject, "msg_id", msg.ID, "error", err)
	}
}

func (c *PassIssued) Process(ctx context.Context, data []byte) error {
	var ev events.PassIssuedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode pass.issued: %w", err)
	}
	if strings.TrimSpace(ev.ResidentEmail) == "" {
		return fmt.Errorf("pass %s: %w", ev.PassID, ErrNoRecipient)
	}

	if err := c.mailer.SendPassIssued(ctx, ev); err != nil {
		return fmt.Errorf("send pass %s confirmation: %w", ev.PassID, err)
	}
	logger.Info("Pass confirmation sent", "pass_id", ev.PassID, "resident_id", ev.ResidentID)
	return nil
}
