package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/repository"
)

func storedHandoff(t *testing.T, store repository.HandoffStore, token string, v domain.Variant, mutate func(map[string]string)) {
	t.Helper()
	from := testNow
	to := testNow.Add(time.Hour)
	fd := domain.DateOf(from)
	d := domain.Draft{
		Variant: v, Purpose: v.Purposes()[0], UnitCode: "A-101",
		FromDate: &fd, ToDate: &fd, FromTime: &from, ToTime: &to,
	}
	if v == domain.VariantVisitor {
		d.VisitorName, d.PhoneNumber = "Ravi", "9876543210"
	} else {
		d.Party = v.Parties()[0]
	}
	h := domain.NewHandoff(d, &domain.PassRecord{ID: 42}, "A-101-20250501-1000", testNow)
	fields, err := h.Fields()
	require.NoError(t, err)
	if mutate != nil {
		mutate(fields)
	}
	require.NoError(t, store.Put(context.Background(), token, fields, time.Minute))
}

func requireBlocked(t *testing.T, err error, redirect string) *domain.GateError {
	t.Helper()
	var ge *domain.GateError
	require.True(t, errors.As(err, &ge), "expected GateError, got %v", err)
	require.Equal(t, redirect, ge.RedirectTo)
	return ge
}

func TestGate_AdmitsOnceThenBlocksReplay(t *testing.T) {
	store := repository.NewInMemoryHandoffStore()
	gate := NewIssuanceGate(store, nil, nil, testSettings())
	storedHandoff(t, store, "tok", domain.VariantCab, nil)

	h, err := gate.Admit(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "A-101-20250501-1000", h.PassID)
	require.Equal(t, domain.VariantCab, h.Variant)

	_, err = gate.Admit(context.Background(), "tok")
	ge := requireBlocked(t, err, "/forms")
	require.ErrorIs(t, ge, domain.ErrHandoffNotFound)
}

func TestGate_BlankTokenIsBlocked(t *testing.T) {
	gate := NewIssuanceGate(repository.NewInMemoryHandoffStore(), nil, nil, testSettings())
	_, err := gate.Admit(context.Background(), "  ")
	ge := requireBlocked(t, err, "/forms")
	require.Equal(t, []string{"token"}, ge.Missing)
}

func TestGate_MissingPurposeSendsBackToForm(t *testing.T) {
	store := repository.NewInMemoryHandoffStore()
	gate := NewIssuanceGate(store, nil, nil, testSettings())
	storedHandoff(t, store, "tok", domain.VariantDelivery, func(f map[string]string) { delete(f, "purpose") })

	_, err := gate.Admit(context.Background(), "tok")
	ge := requireBlocked(t, err, "/forms/delivery")
	require.Equal(t, []string{"purpose"}, ge.Missing)
}

func TestGate_RecordIDAndTimestampRequiredForEveryVariant(t *testing.T) {
	for _, v := range []domain.Variant{domain.VariantVisitor, domain.VariantDelivery, domain.VariantCab} {
		for _, key := range []string{"db_record_id", "generated_at"} {
			for _, blank := range []string{"", " ", "\t"} {
				store := repository.NewInMemoryHandoffStore()
				gate := NewIssuanceGate(store, nil, nil, testSettings())
				storedHandoff(t, store, "tok", v, func(f map[string]string) { f[key] = blank })

				h, err := gate.Admit(context.Background(), "tok")
				require.Nil(t, h)
				ge := requireBlocked(t, err, "/forms/"+string(v))
				require.Contains(t, ge.Missing, key)
			}
		}
	}
}

func TestGate_CrossChecksStoredRecord(t *testing.T) {
	cases := []struct {
		name   string
		rec    *domain.PassRecord
		err    error
		admits bool
	}{
		{name: "matching record", rec: &domain.PassRecord{ID: 42, QRCode: "A-101-20250501-1000"}, admits: true},
		{name: "no record", rec: nil},
		{name: "different pass", rec: &domain.PassRecord{ID: 42, QRCode: "B-7-20250501-1000"}},
		{name: "lookup failure", err: errors.New("db down")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewInMemoryHandoffStore()
			passes := new(mockPassRepo)
			passes.On("GetByID", mock.Anything, domain.VariantVisitor, int64(42)).Return(tc.rec, tc.err)
			gate := NewIssuanceGate(store, passes, nil, testSettings())
			storedHandoff(t, store, "tok", domain.VariantVisitor, nil)

			h, err := gate.Admit(context.Background(), "tok")
			if tc.admits {
				require.NoError(t, err)
				require.NotNil(t, h)
				return
			}
			requireBlocked(t, err, "/forms/visitor")
		})
	}
}

func TestGate_StoreFailureBlocks(t *testing.T) {
	gate := NewIssuanceGate(failingHandoffStore{err: errors.New("redis down")}, nil, nil, testSettings())
	_, err := gate.Admit(context.Background(), "tok")
	requireBlocked(t, err, "/forms")
}

func TestGate_LookupFailureKeepsPayloadForRetry(t *testing.T) {
	store := repository.NewInMemoryHandoffStore()
	passes := new(mockPassRepo)
	passes.On("GetByID", mock.Anything, domain.VariantVisitor, int64(42)).Return(nil, errors.New("db down")).Once()
	passes.On("GetByID", mock.Anything, domain.VariantVisitor, int64(42)).
		Return(&domain.PassRecord{ID: 42, QRCode: "A-101-20250501-1000"}, nil).Once()
	gate := NewIssuanceGate(store, passes, nil, testSettings())
	storedHandoff(t, store, "tok", domain.VariantVisitor, nil)

	_, err := gate.Admit(context.Background(), "tok")
	requireBlocked(t, err, "/forms/visitor")

	h, err := gate.Admit(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "A-101-20250501-1000", h.PassID)

	// once shown, the token is spent again
	_, err = gate.Admit(context.Background(), "tok")
	ge := requireBlocked(t, err, "/forms")
	require.ErrorIs(t, ge, domain.ErrHandoffNotFound)
	passes.AssertExpectations(t)
}

func TestGate_MismatchIsNotRestored(t *testing.T) {
	store := repository.NewInMemoryHandoffStore()
	passes := new(mockPassRepo)
	passes.On("GetByID", mock.Anything, domain.VariantVisitor, int64(42)).Return(nil, nil)
	gate := NewIssuanceGate(store, passes, nil, testSettings())
	storedHandoff(t, store, "tok", domain.VariantVisitor, nil)

	_, err := gate.Admit(context.Background(), "tok")
	requireBlocked(t, err, "/forms/visitor")

	_, err = gate.Admit(context.Background(), "tok")
	ge := requireBlocked(t, err, "/forms")
	require.ErrorIs(t, ge, domain.ErrHandoffNotFound)
}

func TestGate_ReleaseReopensTheSamePass(t *testing.T) {
	store := repository.NewInMemoryHandoffStore()
	gate := NewIssuanceGate(store, nil, nil, testSettings())
	storedHandoff(t, store, "tok", domain.VariantDelivery, nil)

	h, err := gate.Admit(context.Background(), "tok")
	require.NoError(t, err)

	require.NoError(t, gate.Release(context.Background(), "tok", *h))

	again, err := gate.Admit(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, *h, *again)

	_, err = gate.Admit(context.Background(), "tok")
	requireBlocked(t, err, "/forms")
}

func TestGate_ReleaseStoreFailure(t *testing.T) {
	gate := NewIssuanceGate(failingHandoffStore{err: errors.New("redis down")}, nil, nil, testSettings())
	err := gate.Release(context.Background(), "tok", domain.Handoff{Variant: domain.VariantCab})
	require.ErrorContains(t, err, "redis down")
}
