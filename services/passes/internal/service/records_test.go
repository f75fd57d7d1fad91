package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

func TestRecordLookup_Get(t *testing.T) {
	passes := new(mockPassRepo)
	passes.On("GetByID", mock.Anything, domain.VariantCab, int64(1)).Return(&domain.PassRecord{ID: 1, ResidentID: 7}, nil)
	passes.On("GetByID", mock.Anything, domain.VariantCab, int64(2)).Return(nil, nil)
	passes.On("GetByID", mock.Anything, domain.VariantCab, int64(3)).Return(nil, errors.New("timeout"))
	l := NewRecordLookup(passes)
	ctx := context.Background()

	rec, err := l.Get(ctx, 7, domain.VariantCab, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.ID)

	_, err = l.Get(ctx, 8, domain.VariantCab, 1)
	require.ErrorIs(t, err, domain.ErrPassNotFound)

	_, err = l.Get(ctx, 7, domain.VariantCab, 2)
	require.ErrorIs(t, err, domain.ErrPassNotFound)

	_, err = l.Get(ctx, 7, domain.VariantCab, 3)
	require.ErrorContains(t, err, "timeout")

	_, err = l.Get(ctx, 7, domain.VariantCab, 0)
	require.ErrorIs(t, err, domain.ErrPassNotFound)

	_, err = l.Get(ctx, 7, "boat", 1)
	require.ErrorIs(t, err, domain.ErrUnknownVariant)
}
