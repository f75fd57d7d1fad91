package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/gatepass/internal/http/response"
	"github.com/diagnosis/gatepass/pkg/auth"
	"github.com/diagnosis/gatepass/pkg/config"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/service"
)

type claimsKey struct{}

type Handlers struct {
	forms    *service.FormRegistry
	pipeline *service.Pipeline
	gate     *service.IssuanceGate
	records  *service.RecordLookup
	auth     config.AuthConfig
}

func New(
	forms *service.FormRegistry,
	pipeline *service.Pipeline,
	gate *service.IssuanceGate,
	records *service.RecordLookup,
	authCfg config.AuthConfig,
) *Handlers {
	return &Handlers{
		forms:    forms,
		pipeline: pipeline,
		gate:     gate,
		records:  records,
		auth:     authCfg,
	}
}

// Routes mounts the pass API on r. The display is reachable without a session: the
// one-time token is the only credential it accepts.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/display", h.DisplayPass)
	r.Get("/forms", h.ListForms)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireResident)

		r.Post("/forms/{variant}", h.OpenForm)
		r.Get("/forms/{id}", h.GetForm)
		r.Patch("/forms/{id}", h.UpdateForm)
		r.Put("/forms/{id}/from-date", h.SelectFromDate)
		r.Put("/forms/{id}/from-time", h.SelectFromTime)
		r.Put("/forms/{id}/to-date", h.SelectToDate)
		r.Put("/forms/{id}/to-time", h.SelectToTime)
		r.Post("/forms/{id}/picker", h.OpenPicker)
		r.Post("/forms/{id}/reset", h.ResetForm)
		r.Post("/forms/{id}/submit", h.SubmitForm)

		r.Get("/passes/{variant}/{id}", h.GetPass)
	})
}

// RequireResident accepts only resident session tokens.
func (h *Handlers) RequireResident(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.auth.JWTSecret, h.auth.Audience)
		if err != nil || claims.Role != auth.RoleResident {
			response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = logger.With(ctx, logger.ResidentIDKey, claims.Sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeError maps the pass error taxonomy onto HTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gateErr        *domain.GateError
		validationErr  *domain.ValidationError
		integrityErr   *domain.DataIntegrityError
		persistenceErr *domain.PersistenceError
		submissionErr  *domain.SubmissionError
	)

	switch {
	case errors.Is(err, domain.ErrSubmissionInFlight):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeSubmissionInFlight)
	case errors.As(err, &gateErr):
		response.WriteBlocked(w, "This pass cannot be displayed. Please register the pass again.",
			gateErr.RedirectTo, gateErr.Missing, gateErr.Invalid)
	case errors.Is(err, domain.ErrDateRequired):
		response.WriteError(w, http.StatusUnprocessableEntity, err.Error(), response.CodeDateRequired)
	case errors.Is(err, domain.ErrFromTimeRequired):
		response.WriteError(w, http.StatusUnprocessableEntity, err.Error(), response.CodeFromTimeRequired)
	case errors.As(err, &validationErr):
		code := response.CodeValidationFailed
		switch {
		case errors.Is(err, domain.ErrNonPositiveDuration):
			code = response.CodeNonPositiveDuration
		case errors.Is(err, domain.ErrDurationTooShort):
			code = response.CodeDurationTooShort
		}
		response.WriteFieldError(w, http.StatusUnprocessableEntity, validationErr.Error(), code,
			validationErr.Field, string(validationErr.Rule))
	case errors.As(err, &integrityErr):
		logger.ErrorContext(r.Context(), "Pass record failed integrity check", "fields", integrityErr.Fields)
		response.WriteErrorWithDetails(w, http.StatusInternalServerError, "Pass data is incomplete, nothing was saved",
			response.CodeDataIntegrity, strings.Join(integrityErr.Fields, ", "))
	case errors.As(err, &persistenceErr):
		response.WriteError(w, http.StatusBadGateway, persistenceErr.Error(), response.CodePersistenceFailed)
	case errors.As(err, &submissionErr):
		response.WriteError(w, http.StatusInternalServerError, "Pass submission failed, please try again", response.CodeSubmissionFailed)
	case errors.Is(err, domain.ErrFormNotFound), errors.Is(err, domain.ErrPassNotFound), errors.Is(err, domain.ErrUnknownVariant):
		response.NotFound(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Unhandled pass error", "error", err)
		response.InternalError(w, "Internal server error")
	}
}
