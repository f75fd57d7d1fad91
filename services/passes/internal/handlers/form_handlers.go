package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/gatepass/internal/http/response"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/form"
)

type dateRequest struct {
	Date string `json:"date"`
}

type timeRequest struct {
	Time string `json:"time"`
}

type pickerRequest struct {
	Picker string `json:"picker"`
}

type formEntry struct {
	Variant  domain.Variant `json:"variant"`
	Title    string         `json:"title"`
	Open     string         `json:"open"`
	Purposes []string       `json:"purposes"`
	Parties  []string       `json:"parties,omitempty"`
}

// ListForms is the registration landing page. A blocked display without a known pass type
// sends the resident here to pick one.
func (h *Handlers) ListForms(w http.ResponseWriter, r *http.Request) {
	variants := domain.Variants()
	entries := make([]formEntry, 0, len(variants))
	for _, v := range variants {
		entries = append(entries, formEntry{
			Variant:  v,
			Title:    v.Label(),
			Open:     "/forms/" + string(v),
			Purposes: v.Purposes(),
			Parties:  v.Parties(),
		})
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"variants": entries})
}

// loadForm resolves {id} for the calling resident and writes the error response itself.
func (h *Handlers) loadForm(w http.ResponseWriter, r *http.Request) (*form.PassForm, bool) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return nil, false
	}
	f, err := h.forms.Get(claims.Sub, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return f, true
}

// OpenForm always starts a fresh draft; any earlier form for the same pass type is dropped.
func (h *Handlers) OpenForm(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}
	variant, ok := domain.ParseVariant(chi.URLParam(r, "variant"))
	if !ok {
		response.NotFound(w, "Unknown pass type")
		return
	}

	f, err := h.forms.Open(r.Context(), claims.Sub, variant)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Pass form opened", "form_id", f.ID(), "variant", variant)
	response.WriteJSON(w, http.StatusCreated, f.Snapshot())
}

func (h *Handlers) GetForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

func (h *Handlers) UpdateForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	var patch form.Patch
	if err := decode(r, &patch); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := f.Update(patch); err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

func (h *Handlers) selectDate(w http.ResponseWriter, r *http.Request, apply func(*form.PassForm, domain.Date) error) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	var req dateRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	d, err := domain.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if err := apply(f, d); err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

func (h *Handlers) selectTime(w http.ResponseWriter, r *http.Request, apply func(*form.PassForm, domain.TimeOfDay) error) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	var req timeRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	t, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if err := apply(f, t); err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

func (h *Handlers) SelectFromDate(w http.ResponseWriter, r *http.Request) {
	h.selectDate(w, r, (*form.PassForm).SelectFromDate)
}

func (h *Handlers) SelectToDate(w http.ResponseWriter, r *http.Request) {
	h.selectDate(w, r, (*form.PassForm).SelectToDate)
}

func (h *Handlers) SelectFromTime(w http.ResponseWriter, r *http.Request) {
	h.selectTime(w, r, (*form.PassForm).SelectFromTime)
}

func (h *Handlers) SelectToTime(w http.ResponseWriter, r *http.Request) {
	h.selectTime(w, r, (*form.PassForm).SelectToTime)
}

func (h *Handlers) OpenPicker(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	var req pickerRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	p, valid := form.ParsePicker(req.Picker)
	if !valid {
		response.BadRequest(w, "Unknown picker")
		return
	}
	bounds, err := f.OpenPicker(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, bounds)
}

func (h *Handlers) ResetForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	if err := f.Reset(); err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, f.Snapshot())
}

func (h *Handlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	res, err := h.pipeline.Submit(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, res)
}
