package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/repository"
)

// RecordLookup serves audit lookups of persisted passes by server id.
type RecordLookup struct {
	passes repository.PassRepository
}

func NewRecordLookup(passes repository.PassRepository) *RecordLookup {
	return &RecordLookup{passes: passes}
}

// Get returns a pass owned by residentID. Someone else's pass is reported as not found.
func (l *RecordLookup) Get(ctx context.Context, residentID int64, variant domain.Variant, id int64) (*domain.PassRecord, error) {
	if _, ok := variant.Schema(); !ok {
		return nil, domain.ErrUnknownVariant
	}
	if id <= 0 {
		return nil, domain.ErrPassNotFound
	}
	rec, err := l.passes.GetByID(ctx, variant, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}
	if rec == nil || rec.ResidentID != residentID {
		return nil, domain.ErrPassNotFound
	}
	return rec, nil
}
