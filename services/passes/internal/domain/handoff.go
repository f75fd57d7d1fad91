package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// HandoffVersion is bumped whenever the wire shape of Handoff changes.
const HandoffVersion = "1"

// Handoff carries a persisted pass from the registration form to the display, as flat
// string key/value pairs. DBRecordID and GeneratedAt are always required.
type Handoff struct {
	Version       string  `url:"v" json:"v"`
	Variant       Variant `url:"variant" json:"variant"`
	PassID        string  `url:"pass_id" json:"pass_id"`
	PartyName     string  `url:"party_name" json:"party_name"`
	PhoneNumber   string  `url:"phone_number,omitempty" json:"phone_number,omitempty"`
	VehicleNumber string  `url:"vehicle_number,omitempty" json:"vehicle_number,omitempty"`
	Purpose       string  `url:"purpose" json:"purpose"`
	UnitCode      string  `url:"unit_code,omitempty" json:"unit_code,omitempty"`
	FromDate      string  `url:"from_date" json:"from_date"`
	FromTime      string  `url:"from_time" json:"from_time"`
	ToDate        string  `url:"to_date" json:"to_date"`
	ToTime        string  `url:"to_time" json:"to_time"`
	ValidFrom     string  `url:"valid_from" json:"valid_from"`
	ValidUntil    string  `url:"valid_until" json:"valid_until"`
	DBRecordID    string  `url:"db_record_id" json:"db_record_id"`
	GeneratedAt   string  `url:"generated_at" json:"generated_at"`
}

// NewHandoff builds the display payload for a draft whose record the backend confirmed.
func NewHandoff(d Draft, rec *PassRecord, passID string, generatedAt time.Time) Handoff {
	h := Handoff{
		Version:       HandoffVersion,
		Variant:       d.Variant,
		PassID:        passID,
		PartyName:     d.PartyName(),
		PhoneNumber:   d.PhoneNumber,
		VehicleNumber: d.VehicleNumber,
		Purpose:       d.PurposeText(),
		UnitCode:      d.UnitCode,
		GeneratedAt:   generatedAt.Format(InstantLayout),
	}
	if rec != nil {
		h.DBRecordID = strconv.FormatInt(rec.ID, 10)
	}
	if d.FromDate != nil {
		h.FromDate = d.FromDate.String()
	}
	if d.ToDate != nil {
		h.ToDate = d.ToDate.String()
	}
	if d.FromTime != nil {
		h.FromTime = d.FromTime.Format(TimeLayout12h)
		h.ValidFrom = d.FromTime.Format(InstantLayout)
	}
	if d.ToTime != nil {
		h.ToTime = d.ToTime.Format(TimeLayout12h)
		h.ValidUntil = d.ToTime.Format(InstantLayout)
	}
	return h
}

// Fields flattens the handoff into the string pairs carried by the navigation channel.
func (h Handoff) Fields() (map[string]string, error) {
	values, err := query.Values(h)
	if err != nil {
		return nil, fmt.Errorf("encode handoff: %w", err)
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}

var (
	coreHandoffFields = []string{
		"v", "variant", "pass_id", "party_name", "purpose",
		"from_date", "from_time", "to_date", "to_time", "valid_from", "valid_until",
		"db_record_id", "generated_at",
	}
	variantHandoffFields = map[Variant][]string{
		VariantVisitor: {"phone_number"},
	}
)

// RequiredHandoffFields lists every key a variant's payload must carry with non-blank text.
func RequiredHandoffFields(v Variant) []string {
	return append(append([]string(nil), coreHandoffFields...), variantHandoffFields[v]...)
}

// ParseHandoff is the single boundary check between the navigation channel and the display.
// It treats a blank or whitespace-only value exactly like a missing key, and returns a
// *GateError naming every missing or malformed field.
func ParseHandoff(fields map[string]string, minimum time.Duration) (*Handoff, error) {
	get := func(k string) string { return strings.TrimSpace(fields[k]) }

	variant, known := ParseVariant(get("variant"))
	gateErr := &GateError{}
	for _, k := range RequiredHandoffFields(variant) {
		if get(k) == "" {
			gateErr.Missing = append(gateErr.Missing, k)
		}
	}
	if get("variant") != "" && !known {
		gateErr.Invalid = append(gateErr.Invalid, "variant")
	}
	if v := get("v"); v != "" && v != HandoffVersion {
		gateErr.Invalid = append(gateErr.Invalid, "v")
	}
	if raw := get("db_record_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
			gateErr.Invalid = append(gateErr.Invalid, "db_record_id")
		}
	}

	instants := map[string]time.Time{}
	for _, k := range []string{"generated_at", "valid_from", "valid_until"} {
		raw := get(k)
		if raw == "" {
			continue
		}
		t, err := time.Parse(InstantLayout, raw)
		if err != nil {
			gateErr.Invalid = append(gateErr.Invalid, k)
			continue
		}
		instants[k] = t
	}
	from, okFrom := instants["valid_from"]
	until, okUntil := instants["valid_until"]
	if okFrom && okUntil {
		if err := CheckDuration(from, until, minimum); err != nil {
			gateErr.Invalid = append(gateErr.Invalid, "valid_until")
		}
	}

	if len(gateErr.Missing) > 0 || len(gateErr.Invalid) > 0 {
		return nil, gateErr
	}

	return &Handoff{
		Version:       get("v"),
		Variant:       variant,
		PassID:        get("pass_id"),
		PartyName:     get("party_name"),
		PhoneNumber:   get("phone_number"),
		VehicleNumber: get("vehicle_number"),
		Purpose:       get("purpose"),
		UnitCode:      get("unit_code"),
		FromDate:      get("from_date"),
		FromTime:      get("from_time"),
		ToDate:        get("to_date"),
		ToTime:        get("to_time"),
		ValidFrom:     get("valid_from"),
		ValidUntil:    get("valid_until"),
		DBRecordID:    get("db_record_id"),
		GeneratedAt:   get("generated_at"),
	}, nil
}
