package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/gatepass/internal/http/response"
	"github.com/diagnosis/gatepass/pkg/logger"
	"github.com/diagnosis/gatepass/services/passes/internal/domain"
	"github.com/diagnosis/gatepass/services/passes/internal/render"
)

type passView struct {
	Title     string         `json:"title"`
	QRPayload string         `json:"qr_payload"`
	Pass      domain.Handoff `json:"pass"`
}

// DisplayPass runs the issuance gate on ?token= and renders the pass as JSON, or as a
// printable PDF with ?format=pdf. A blocked pass is never rendered in any format.
func (h *Handlers) DisplayPass(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	pass, err := h.gate.Admit(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		doc, filename, err := render.PassPDF(*pass)
		if err != nil {
			logger.ErrorContext(r.Context(), "Failed to render pass PDF", "error", err, "pass_id", pass.PassID)
			if err := h.gate.Release(r.Context(), token, *pass); err != nil {
				logger.ErrorContext(r.Context(), "Pass could not be released after render failure", "error", err, "pass_id", pass.PassID)
			}
			response.InternalError(w, "Failed to render pass")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
		return
	}

	response.WriteJSON(w, http.StatusOK, passView{
		Title:     pass.Variant.Label(),
		QRPayload: pass.PassID,
		Pass:      *pass,
	})
}

// GetPass is the audit lookup of a stored pass by its server id.
func (h *Handlers) GetPass(w http.ResponseWriter, r *http.Request) {
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
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid pass id")
		return
	}

	rec, err := h.records.Get(r.Context(), claims.Sub, variant, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, rec)
}
