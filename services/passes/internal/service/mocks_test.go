package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

var testNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func testSettings() Settings {
	return Settings{
		Location:    time.UTC,
		MinDuration: domain.MinPassDuration,
		HandoffTTL:  time.Minute,
		DisplayPath: "/display",
		FormPath:    "/forms",
	}
}

type mockPassRepo struct {
	mock.Mock
}

func (m *mockPassRepo) Insert(ctx context.Context, req domain.InsertRequest) (*domain.PassRecord, error) {
	args := m.Called(ctx, req)
	rec, _ := args.Get(0).(*domain.PassRecord)
	return rec, args.Error(1)
}

func (m *mockPassRepo) GetByID(ctx context.Context, variant domain.Variant, id int64) (*domain.PassRecord, error) {
	args := m.Called(ctx, variant, id)
	rec, _ := args.Get(0).(*domain.PassRecord)
	return rec, args.Error(1)
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) GetByResidentID(ctx context.Context, residentID int64) (*domain.Profile, error) {
	args := m.Called(ctx, residentID)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return m.Called(ctx, subject, data).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

// blockingPassRepo holds Insert until release is closed.
type blockingPassRepo struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPassRepo) Insert(ctx context.Context, req domain.InsertRequest) (*domain.PassRecord, error) {
	close(b.entered)
	<-b.release
	return &domain.PassRecord{ID: 1, QRCode: req.Fields["qr_code"]}, nil
}

func (b *blockingPassRepo) GetByID(context.Context, domain.Variant, int64) (*domain.PassRecord, error) {
	return nil, nil
}

type panickingPassRepo struct{}

func (panickingPassRepo) Insert(context.Context, domain.InsertRequest) (*domain.PassRecord, error) {
	panic("driver exploded")
}

func (panickingPassRepo) GetByID(context.Context, domain.Variant, int64) (*domain.PassRecord, error) {
	return nil, nil
}

type failingHandoffStore struct{ err error }

func (s failingHandoffStore) Put(context.Context, string, map[string]string, time.Duration) error {
	return s.err
}

func (s failingHandoffStore) Take(context.Context, string) (map[string]string, error) {
	return nil, s.err
}
