package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/diagnosis/gatepass/pkg/events"
	"github.com/diagnosis/gatepass/pkg/logger"
)

// DevMailer prints emails instead of sending them.
type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) SendPassIssued(ctx context.Context, ev events.PassIssuedEvent) error {
	msg := passIssuedMessage(ev)
	logger.InfoContext(ctx, "📧 [DEV MAIL] Pass Issued Email",
		"to", ev.ResidentEmail,
		"pass_id", ev.PassID,
		"window", issuedWindow(ev),
	)

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 PASS ISSUED EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		ev.ResidentEmail, ev.ResidentName, msg.subject, msg.text)

	return nil
}
