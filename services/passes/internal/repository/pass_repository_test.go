package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

func TestBuildInsert_UsesSchemaColumnsOnly(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	req := domain.InsertRequest{
		Variant:    domain.VariantCab,
		ResidentID: 7,
		Fields: map[string]string{
			"ride_hailing_app": "Uber",
			"vehicle_number":   "KA01AB1234",
			"purpose":          "Pickup",
			"visit_date":       "2025-05-01",
			"visit_time":       "10:00 AM",
			"qr_code":          "A-101-20250501-1000",
			"phone_number":     "",
			"id; DROP TABLE":   "x",
		},
		ValidFrom:  now,
		ExpiryTime: now.Add(time.Hour),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q, args, err := buildInsert(req)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(q, `INSERT INTO "cab_passes" (resident_id, "ride_hailing_app", "vehicle_number", "purpose"`))
	require.NotContains(t, q, "DROP")
	require.NotContains(t, q, `"phone_number"`)
	require.Contains(t, q, "RETURNING id")
	require.Contains(t, q, "COALESCE(vehicle_number,'')")
	require.Len(t, args, 11)
	require.Equal(t, int64(7), args[0])
	require.Equal(t, now.Add(time.Hour), args[8])
}

func TestBuildInsert_NonCabHasNoVehicleColumn(t *testing.T) {
	q, _, err := buildInsert(domain.InsertRequest{Variant: domain.VariantVisitor, Fields: map[string]string{}})
	require.NoError(t, err)
	require.Contains(t, q, `"visitor_passes"`)
	require.NotContains(t, q, "COALESCE(vehicle_number")

	_, _, err = buildInsert(domain.InsertRequest{Variant: "boat"})
	require.ErrorIs(t, err, domain.ErrUnknownVariant)
}
