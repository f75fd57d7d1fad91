package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/pkg/events"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPassIssued(ctx context.Context, ev events.PassIssuedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func encode(t *testing.T, ev events.PassIssuedEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func issued() events.PassIssuedEvent {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	return events.PassIssuedEvent{
		PassID:        "A-101-20250501-1000",
		RecordID:      42,
		Variant:       "visitor",
		ResidentID:    7,
		ResidentEmail: "asha@example.com",
		ValidFrom:     at,
		ValidUntil:    at.Add(time.Hour),
		IssuedAt:      at,
	}
}

func TestProcess_SendsConfirmation(t *testing.T) {
	m := &mockMailer{}
	ev := issued()
	m.On("SendPassIssued", mock.Anything, mock.MatchedBy(func(got events.PassIssuedEvent) bool {
		return got.PassID == ev.PassID && got.RecordID == 42 && got.ValidFrom.Equal(ev.ValidFrom)
	})).Return(nil).Once()

	require.NoError(t, NewPassIssued(m).Process(context.Background(), encode(t, ev)))
	m.AssertExpectations(t)
}

func TestProcess_NoRecipient(t *testing.T) {
	m := &mockMailer{}
	ev := issued()
	ev.ResidentEmail = "  "

	err := NewPassIssued(m).Process(context.Background(), encode(t, ev))
	require.ErrorIs(t, err, ErrNoRecipient)
	m.AssertNotCalled(t, "SendPassIssued", mock.Anything, mock.Anything)
}

func TestProcess_BadPayload(t *testing.T) {
	m := &mockMailer{}
	require.Error(t, NewPassIssued(m).Process(context.Background(), []byte("{")))
	m.AssertNotCalled(t, "SendPassIssued", mock.Anything, mock.Anything)
}

func TestProcess_MailerError(t *testing.T) {
	m := &mockMailer{}
	boom := errors.New("smtp down")
	m.On("SendPassIssued", mock.Anything, mock.Anything).Return(boom)

	err := NewPassIssued(m).Process(context.Background(), encode(t, issued()))
	require.ErrorIs(t, err, boom)
}

func TestHandle_DoesNotPanicOnFailure(t *testing.T) {
	m := &mockMailer{}
	m.On("SendPassIssued", mock.Anything, mock.Anything).Return(errors.New("down"))

	c := NewPassIssued(m)
	require.NotPanics(t, func() {
		c.Handle(&events.Message{Subject: events.PassIssued, Data: encode(t, issued()), ID: "m-1"})
		c.Handle(&events.Message{Subject: events.PassIssued, Data: []byte("nope"), ID: "m-2"})
	})
	m.AssertNumberOfCalls(t, "SendPassIssued", 1)
}
