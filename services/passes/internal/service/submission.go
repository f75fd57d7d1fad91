package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/gatepass/pkg/events"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/form"
	"github.com/diagnosis/gatepass/services/passes/internal/metrics"
	"github.com/diagnosis/gatepass/services/passes/internal/repository"
)

// Result is what the resident gets back from a successful submission.
type Result struct {
	Handoff    domain.Handoff `json:"handoff"`
	Token      string         `json:"token"`
	DisplayURL string         `json:"display_url"`
}

// Pipeline turns a validated form into a persisted record and a dispatched handoff. A
// handoff is only ever built after the backend returned a record with a server id.
type Pipeline struct {
	passes    repository.PassRepository
	handoffs  repository.HandoffStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	settings  Settings
	now       func() time.Time
	newToken  func() string
}

func NewPipeline(
	passes repository.PassRepository,
	handoffs repository.HandoffStore,
	publisher events.Publisher,
	m *metrics.Metrics,
	settings Settings,
) *Pipeline {
	return &Pipeline{
		passes:    passes,
		handoffs:  handoffs,
		publisher: publisher,
		metrics:   m,
		settings:  settings.withDefaults(),
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

// Submit runs one submission of f. Whatever happens, f leaves the submitting state: it ends
// Failed with the draft intact, or Succeeded with the draft reset.
func (p *Pipeline) Submit(ctx context.Context, f *form.PassForm) (res *Result, err error) {
	ctx = logger.With(ctx, logger.FormIDKey, f.ID())
	variant := string(f.Variant())
	start := time.Now()

	draft, err := f.BeginSubmit()
	if err != nil {
		p.metrics.IncFailure(variant, failureKind(err))
		logger.WarnContext(ctx, "Pass submission rejected", "variant", variant, "error", err)
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic during submission: %v", r)
		}
		if err != nil {
			if !domain.IsKnown(err) {
				err = &domain.SubmissionError{Err: err}
			}
			f.Fail(err)
			p.metrics.IncFailure(variant, failureKind(err))
			logger.ErrorContext(ctx, "Pass submission failed", "variant", variant, "error", err)
		}
		p.metrics.ObserveSubmit(time.Since(start))
	}()

	logger.InfoContext(ctx, "Pass submission started", "variant", variant)
	return p.issue(ctx, f, draft)
}

func (p *Pipeline) issue(ctx context.Context, f *form.PassForm, draft domain.Draft) (*Result, error) {
	if err := domain.ValidateDraft(draft, p.settings.MinDuration); err != nil {
		return nil, err
	}

	owner := f.Owner()
	generatedAt := p.now().In(p.settings.Location)
	passID := domain.GeneratePassID(draft.UnitCode, generatedAt)

	req := insertRequest(owner.ResidentID, draft, passID, generatedAt)
	if missing := req.MissingRequired(); len(missing) > 0 {
		return nil, &domain.DataIntegrityError{Fields: missing}
	}

	// A started insert is never abandoned because the caller went away.
	rec, err := p.passes.Insert(context.WithoutCancel(ctx), req)
	if err != nil {
		return nil, &domain.PersistenceError{Msg: "failed to save pass", Err: err}
	}
	if rec == nil || rec.ID <= 0 {
		return nil, &domain.PersistenceError{Msg: "pass was not properly saved, please try again"}
	}
	logger.InfoContext(ctx, "Pass persisted", "variant", draft.Variant, "pass_id", passID, "record_id", rec.ID)

	h := domain.NewHandoff(draft, rec, passID, generatedAt)
	fields, err := h.Fields()
	if err != nil {
		return nil, err
	}
	token := p.newToken()
	if err := p.handoffs.Put(ctx, token, fields, p.settings.HandoffTTL); err != nil {
		return nil, fmt.Errorf("dispatch handoff for record %d: %w", rec.ID, err)
	}
	logger.InfoContext(ctx, "Pass handoff dispatched", "variant", draft.Variant, "pass_id", passID, "record_id", rec.ID)

	p.publishIssued(ctx, owner, draft, rec, passID, generatedAt)
	p.metrics.IncIssued(string(draft.Variant))
	f.Complete(h)

	return &Result{
		Handoff:    h,
		Token:      token,
		DisplayURL: p.settings.DisplayPath + "?token=" + url.QueryEscape(token),
	}, nil
}

func insertRequest(residentID int64, d domain.Draft, passID string, at time.Time) domain.InsertRequest {
	req := domain.InsertRequest{
		Variant:    d.Variant,
		ResidentID: residentID,
		Fields: map[string]string{
			"phone_number":   d.PhoneNumber,
			"vehicle_number": d.VehicleNumber,
			"purpose":        d.PurposeText(),
			"unit_code":      d.UnitCode,
			"qr_code":        passID,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if schema, ok := d.Variant.Schema(); ok {
		req.Fields[schema.PartyColumn] = d.PartyName()
	}
	if d.FromDate != nil {
		req.Fields["visit_date"] = d.FromDate.String()
	}
	if d.FromTime != nil {
		req.Fields["visit_time"] = d.FromTime.Format(domain.TimeLayout12h)
		req.ValidFrom = *d.FromTime
	}
	if d.ToTime != nil {
		req.ExpiryTime = *d.ToTime
	}
	return req
}

// publishIssued is best effort. The pass is already valid without the notification.
func (p *Pipeline) publishIssued(ctx context.Context, owner form.Owner, d domain.Draft, rec *domain.PassRecord, passID string, at time.Time) {
	if p.publisher == nil {
		return
	}
	event := events.PassIssuedEvent{
		PassID:        passID,
		RecordID:      rec.ID,
		Variant:       string(d.Variant),
		ResidentID:    owner.ResidentID,
		ResidentName:  owner.Name,
		ResidentEmail: owner.Email,
		UnitCode:      d.UnitCode,
		PartyName:     d.PartyName(),
		ValidFrom:     *d.FromTime,
		ValidUntil:    *d.ToTime,
		IssuedAt:      at,
	}
	if err := p.publisher.Publish(ctx, events.PassIssued, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish pass issued event", "error", err, "pass_id", passID)
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return "in_flight"
	case domain.IsValidation(err):
		return "validation"
	case domain.IsDataIntegrity(err):
		return "data_integrity"
	case domain.IsPersistence(err):
		return "persistence"
	default:
		return "unexpected"
	}
}
