package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

// PassRepository is the persistence collaborator. Insert returns (nil, nil) when the
// statement ran but no row came back. There is no update or delete.
type PassRepository interface {
	Insert(ctx context.Context, req domain.InsertRequest) (*domain.PassRecord, error)
	GetByID(ctx context.Context, variant domain.Variant, id int64) (*domain.PassRecord, error)
}

type passRepository struct {
	pool *pgxpool.Pool
}

func NewPassRepository(pool *pgxpool.Pool) PassRepository {
	return &passRepository{pool: pool}
}

// returningCols yields the same column order for every variant so one scan fits all.
func returningCols(s domain.Schema) string {
	vehicle := `''`
	for _, c := range s.Columns {
		if c == "vehicle_number" {
			vehicle = `COALESCE(vehicle_number,'')`
		}
	}
	return `id, resident_id, ` + pgx.Identifier{s.PartyColumn}.Sanitize() + `,
COALESCE(phone_number,''), ` + vehicle + `, purpose, COALESCE(unit_code,''),
visit_date, visit_time, valid_from, expiry_time, qr_code, created_at, updated_at`
}

// buildInsert only ever names columns from the variant schema.
func buildInsert(req domain.InsertRequest) (string, []any, error) {
	schema, ok := req.Variant.Schema()
	if !ok {
		return "", nil, domain.ErrUnknownVariant
	}

	cols := []string{"resident_id"}
	args := []any{req.ResidentID}
	for _, c := range schema.Columns {
		v := strings.TrimSpace(req.Fields[c])
		if v == "" {
			continue
		}
		cols = append(cols, pgx.Identifier{c}.Sanitize())
		args = append(args, v)
	}
	cols = append(cols, "valid_from", "expiry_time", "created_at", "updated_at")
	args = append(args, req.ValidFrom, req.ExpiryTime, req.CreatedAt, req.UpdatedAt)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	q := `INSERT INTO ` + pgx.Identifier{schema.Table}.Sanitize() +
		` (` + strings.Join(cols, ", ") + `) VALUES (` + strings.Join(placeholders, ",") + `)
	RETURNING ` + returningCols(schema)
	return q, args, nil
}

func scanRecord(row pgx.Row, variant domain.Variant) (*domain.PassRecord, error) {
	rec := domain.PassRecord{Variant: variant}
	err := row.Scan(
		&rec.ID, &rec.ResidentID, &rec.PartyName,
		&rec.PhoneNumber, &rec.VehicleNumber, &rec.Purpose, &rec.UnitCode,
		&rec.VisitDate, &rec.VisitTime, &rec.ValidFrom, &rec.ExpiryTime, &rec.QRCode,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *passRepository) Insert(ctx context.Context, req domain.InsertRequest) (*domain.PassRecord, error) {
	q, args, err := buildInsert(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rec, err := scanRecord(r.pool.QueryRow(ctx, q, args...), req.Variant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *passRepository) GetByID(ctx context.Context, variant domain.Variant, id int64) (*domain.PassRecord, error) {
	schema, ok := variant.Schema()
	if !ok {
		return nil, domain.ErrUnknownVariant
	}
	q := `SELECT ` + returningCols(schema) + ` FROM ` + pgx.Identifier{schema.Table}.Sanitize() + ` WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rec, err := scanRecord(r.pool.QueryRow(ctx, q, id), variant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}
