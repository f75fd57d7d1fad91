package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

type ProfileRepository interface {
	GetByResidentID(ctx context.Context, residentID int64) (*domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByResidentID(ctx context.Context, residentID int64) (*domain.Profile, error) {
	const q = `SELECT id, name, COALESCE(phone,''), email, COALESCE(address,''), COALESCE(unit_code,'')
	FROM residents WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Profile
	err := r.pool.QueryRow(ctx, q, residentID).Scan(&p.ResidentID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.UnitCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
