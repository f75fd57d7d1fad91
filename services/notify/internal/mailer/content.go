package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/diagnosis/gatepass/pkg/events"
)

type message struct {
	subject string
	text    string
	html    string
}

const windowLayout = "Jan 2, 2006 03:04 PM"

func passIssuedMessage(ev events.PassIssuedEvent) message {
	kind := variantTitle(ev.Variant)
	from := ev.ValidFrom.Format(windowLayout)
	until := ev.ValidUntil.Format(windowLayout)
	name := ev.ResidentName
	if strings.TrimSpace(name) == "" {
		name = "Resident"
	}

	subject := fmt.Sprintf("%s pass %s issued", kind, ev.PassID)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s pass for %s is ready.\n\nPass ID: %s\nUnit: %s\nValid: %s to %s\n\nShow the QR code at the gate.",
		name, strings.ToLower(kind), ev.PartyName, ev.PassID, unitOrDash(ev.UnitCode), from, until)
	body := fmt.Sprintf(`
		<h2>%s Pass Issued</h2>
		<p>Hi %s,</p>
		<p>Your pass for <strong>%s</strong> is ready.</p>
		<table>
			<tr><td>Pass ID</td><td><strong>%s</strong></td></tr>
			<tr><td>Unit</td><td>%s</td></tr>
			<tr><td>Valid from</td><td>%s</td></tr>
			<tr><td>Valid until</td><td>%s</td></tr>
		</table>
		<p>Show the QR code at the gate.</p>
	`, html.EscapeString(kind), html.EscapeString(name), html.EscapeString(ev.PartyName),
		html.EscapeString(ev.PassID), html.EscapeString(unitOrDash(ev.UnitCode)), from, until)

	return message{subject: subject, text: text, html: body}
}

func variantTitle(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "Gate"
	}
	return strings.ToUpper(v[:1]) + v[1:]
}

func unitOrDash(code string) string {
	if strings.TrimSpace(code) == "" {
		return "-"
	}
	return code
}

func issuedWindow(ev events.PassIssuedEvent) string {
	return ev.ValidFrom.Format(time.RFC3339) + " - " + ev.ValidUntil.Format(time.RFC3339)
}
