package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/diagnosis/gatepass/pkg/events"
)

var ErrMailerDisabled = errors.New("mailer disabled (missing MAILERSEND_API_KEY or MAILER_FROM)")

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) Enabled() bool { return m.enabled }

func (m *MailerSendClient) SendPassIssued(ctx context.Context, ev events.PassIssuedEvent) error {
	if !m.enabled {
		return ErrMailerDisabled
	}
	msg := passIssuedMessage(ev)
	return m.send(ctx, ev.ResidentEmail, ev.ResidentName, msg)
}

func (m *MailerSendClient) send(ctx context.Context, toEmail, toName string, content message) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(content.subject)

	if strings.TrimSpace(content.text) != "" {
		msg.SetText(content.text)
	}
	if strings.TrimSpace(content.html) != "" {
		msg.SetHTML(content.html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
