package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/metrics"
	"github.com/diagnosis/gatepass/services/passes/internal/repository"
)

// IssuanceGate guards the display. It trusts nothing about where a token came from: the
// payload is consumed once, parsed against the handoff schema and, when a pass repository
// is configured, matched against the stored record.
type IssuanceGate struct {
	handoffs repository.HandoffStore
	passes   repository.PassRepository
	metrics  *metrics.Metrics
	settings Settings
}

// NewIssuanceGate builds a gate. passes may be nil to skip the record cross-check.
func NewIssuanceGate(handoffs repository.HandoffStore, passes repository.PassRepository, m *metrics.Metrics, settings Settings) *IssuanceGate {
	return &IssuanceGate{
		handoffs: handoffs,
		passes:   passes,
		metrics:  m,
		settings: settings.withDefaults(),
	}
}

func (g *IssuanceGate) Admit(ctx context.Context, token string) (*domain.Handoff, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, g.reject(ctx, "not_found", &domain.GateError{Missing: []string{"token"}, Err: domain.ErrHandoffNotFound}, "")
	}

	fields, err := g.handoffs.Take(ctx, token)
	if err != nil {
		reason := "not_found"
		if !errors.Is(err, domain.ErrHandoffNotFound) {
			reason = "unavailable"
		}
		return nil, g.reject(ctx, reason, &domain.GateError{Err: err}, "")
	}

	variant, _ := domain.ParseVariant(fields["variant"])
	h, err := domain.ParseHandoff(fields, g.settings.MinDuration)
	if err != nil {
		var ge *domain.GateError
		if !errors.As(err, &ge) {
			ge = &domain.GateError{Err: err}
		}
		return nil, g.reject(ctx, "malformed", ge, variant)
	}

	if g.passes != nil {
		id, _ := strconv.ParseInt(h.DBRecordID, 10, 64)
		rec, err := g.passes.GetByID(ctx, h.Variant, id)
		if err != nil {
			// The payload was fine; only the lookup failed. Put it back so a retry can succeed.
			g.restore(ctx, token, fields)
			return nil, g.reject(ctx, "unavailable", &domain.GateError{Err: err}, h.Variant)
		}
		if rec == nil || rec.QRCode != h.PassID {
			return nil, g.reject(ctx, "record_mismatch", &domain.GateError{Invalid: []string{"db_record_id"}}, h.Variant)
		}
	}

	logger.InfoContext(ctx, "Pass admitted for display", "variant", h.Variant, "pass_id", h.PassID, "record_id", h.DBRecordID)
	return h, nil
}

// Release returns an admitted pass to the navigation channel when it could not be shown,
// so the same token opens it once more. The entry gets a fresh HandoffTTL.
func (g *IssuanceGate) Release(ctx context.Context, token string, h domain.Handoff) error {
	fields, err := h.Fields()
	if err != nil {
		return err
	}
	if err := g.handoffs.Put(ctx, strings.TrimSpace(token), fields, g.settings.HandoffTTL); err != nil {
		return fmt.Errorf("failed to release handoff: %w", err)
	}
	return nil
}

func (g *IssuanceGate) restore(ctx context.Context, token string, fields map[string]string) {
	if err := g.handoffs.Put(context.WithoutCancel(ctx), token, fields, g.settings.HandoffTTL); err != nil {
		logger.ErrorContext(ctx, "Failed to restore handoff after lookup error", "error", err)
	}
}

func (g *IssuanceGate) reject(ctx context.Context, reason string, ge *domain.GateError, variant domain.Variant) *domain.GateError {
	ge.RedirectTo = g.settings.RegistrationPath(variant)
	g.metrics.IncGateRejection(reason)
	logger.WarnContext(ctx, "Pass display blocked", "reason", reason, "error", ge, "redirect_to", ge.RedirectTo)
	return ge
}
