package domain

import (
	"strings"
	"time"
)

type Variant string

const (
	VariantVisitor  Variant = "visitor"
	VariantDelivery Variant = "delivery"
	VariantCab      Variant = "cab"
)

func ParseVariant(s string) (Variant, bool) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantVisitor:
		return VariantVisitor, true
	case VariantDelivery:
		return VariantDelivery, true
	case VariantCab:
		return VariantCab, true
	default:
		return "", false
	}
}

// Variants lists every pass type in the order residents see them.
func Variants() []Variant {
	return []Variant{VariantVisitor, VariantDelivery, VariantCab}
}

// OptionOther switches an enumerated choice to free text.
const OptionOther = "Other"

var (
	visitorPurposes  = []string{"Guest", "Family", "Friend", "Service", "Maintenance", OptionOther}
	deliveryPurposes = []string{"Food", "Grocery", "Parcel", "Medicine", OptionOther}
	cabPurposes      = []string{"Pickup", "Drop", OptionOther}

	deliveryCompanies = []string{"Swiggy", "Zomato", "Amazon", "Flipkart", "Blinkit", "Zepto", OptionOther}
	rideHailingApps   = []string{"Uber", "Ola", "Rapido", "BluSmart", OptionOther}
)

func (v Variant) Label() string {
	switch v {
	case VariantVisitor:
		return "Visitor Pass"
	case VariantDelivery:
		return "Delivery Pass"
	case VariantCab:
		return "Cab Pass"
	default:
		return "Pass"
	}
}

func (v Variant) Purposes() []string {
	switch v {
	case VariantVisitor:
		return visitorPurposes
	case VariantDelivery:
		return deliveryPurposes
	case VariantCab:
		return cabPurposes
	default:
		return nil
	}
}

// Parties lists the delivery companies or ride-hailing apps a resident picks from.
// Visitors type a name instead, so the visitor list is empty.
func (v Variant) Parties() []string {
	switch v {
	case VariantDelivery:
		return deliveryCompanies
	case VariantCab:
		return rideHailingApps
	default:
		return nil
	}
}

// Schema describes the backing table of a variant and which columns the backend marks required.
type Schema struct {
	Table       string
	PartyColumn string
	Columns     []string
	Required    []string
}

var schemas = map[Variant]Schema{
	VariantVisitor: {
		Table:       "visitor_passes",
		PartyColumn: "visitor_name",
		Columns:     []string{"visitor_name", "phone_number", "purpose", "unit_code", "visit_date", "visit_time", "qr_code"},
		Required:    []string{"visitor_name", "phone_number", "purpose", "visit_date", "visit_time", "qr_code"},
	},
	VariantDelivery: {
		Table:       "delivery_passes",
		PartyColumn: "delivery_company",
		Columns:     []string{"delivery_company", "phone_number", "purpose", "unit_code", "visit_date", "visit_time", "qr_code"},
		Required:    []string{"delivery_company", "purpose", "visit_date", "visit_time", "qr_code"},
	},
	VariantCab: {
		Table:       "cab_passes",
		PartyColumn: "ride_hailing_app",
		Columns:     []string{"ride_hailing_app", "phone_number", "vehicle_number", "purpose", "unit_code", "visit_date", "visit_time", "qr_code"},
		Required:    []string{"ride_hailing_app", "purpose", "visit_date", "visit_time", "qr_code"},
	},
}

func (v Variant) Schema() (Schema, bool) {
	s, ok := schemas[v]
	return s, ok
}

// PassRecord is a persisted pass as returned by the backend. The client never mutates it.
type PassRecord struct {
	ID            int64     `json:"id"`
	Variant       Variant   `json:"variant"`
	ResidentID    int64     `json:"resident_id"`
	PartyName     string    `json:"party_name"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	VehicleNumber string    `json:"vehicle_number,omitempty"`
	Purpose       string    `json:"purpose"`
	UnitCode      string    `json:"unit_code,omitempty"`
	VisitDate     string    `json:"visit_date"`
	VisitTime     string    `json:"visit_time"`
	ValidFrom     time.Time `json:"valid_from"`
	ExpiryTime    time.Time `json:"expiry_time"`
	QRCode        string    `json:"qr_code"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InsertRequest is the record sent to the backend. Fields is keyed by column name.
type InsertRequest struct {
	Variant    Variant
	ResidentID int64
	Fields     map[string]string
	ValidFrom  time.Time
	ExpiryTime time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MissingRequired lists the schema-required values that are blank, in schema order.
func (r InsertRequest) MissingRequired() []string {
	schema, ok := r.Variant.Schema()
	if !ok {
		return []string{"variant"}
	}
	var missing []string
	if r.ResidentID <= 0 {
		missing = append(missing, "resident_id")
	}
	for _, col := range schema.Required {
		if strings.TrimSpace(r.Fields[col]) == "" {
			missing = append(missing, col)
		}
	}
	if r.ValidFrom.IsZero() {
		missing = append(missing, "valid_from")
	}
	if r.ExpiryTime.IsZero() {
		missing = append(missing, "expiry_time")
	}
	if r.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}
	if r.UpdatedAt.IsZero() {
		missing = append(missing, "updated_at")
	}
	return missing
}

// Profile is the resident data used to prefill a pass form.
type Profile struct {
	ResidentID int64  `json:"resident_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	UnitCode   string `json:"unit_code"`
}

// ResolveUnitCode prefers the structured unit code and falls back to parsing the address.
func (p Profile) ResolveUnitCode() string {
	if code := strings.TrimSpace(p.UnitCode); code != "" {
		return code
	}
	return ExtractUnitCode(p.Address)
}
