package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/diagnosis/gatepass/internal/utils"
)

// Draft is the in-progress content of a pass form. FromTime and ToTime, once set, are full
// instants already combined with their paired dates.
type Draft struct {
	Variant       Variant    `json:"variant"`
	VisitorName   string     `json:"visitor_name"`
	PhoneNumber   string     `json:"phone_number"`
	Party         string     `json:"party,omitempty"`
	OtherParty    string     `json:"other_party,omitempty"`
	Purpose       string     `json:"purpose"`
	OtherPurpose  string     `json:"other_purpose,omitempty"`
	VehicleNumber string     `json:"vehicle_number,omitempty"`
	UnitCode      string     `json:"unit_code"`
	FromDate      *Date      `json:"from_date,omitempty"`
	ToDate        *Date      `json:"to_date,omitempty"`
	FromTime      *time.Time `json:"from_time,omitempty"`
	ToTime        *time.Time `json:"to_time,omitempty"`
}

// PartyName is who the pass is for: the visitor's name, or the chosen company/app.
func (d Draft) PartyName() string {
	if d.Variant == VariantVisitor {
		return utils.NormalizeString(d.VisitorName)
	}
	if d.Party == OptionOther {
		return utils.NormalizeString(d.OtherParty)
	}
	return d.Party
}

func (d Draft) PurposeText() string {
	if d.Purpose == OptionOther {
		return utils.NormalizeString(d.OtherPurpose)
	}
	return d.Purpose
}

// ValidateFields runs the variant's required-field rules and returns the first failure.
func ValidateFields(d Draft) error {
	switch d.Variant {
	case VariantVisitor:
		if utils.IsBlank(d.VisitorName) {
			return invalid(RuleRequired, "visitor_name", "visitor name is required")
		}
		if utils.IsBlank(d.PhoneNumber) {
			return invalid(RuleRequired, "phone_number", "phone number is required")
		}
		if !utils.IsTenDigitPhone(d.PhoneNumber) {
			return invalid(RuleFormat, "phone_number", "phone number must be 10 digits")
		}
	case VariantDelivery, VariantCab:
		field, label := "delivery_company", "delivery company"
		if d.Variant == VariantCab {
			field, label = "ride_hailing_app", "ride-hailing app"
		}
		if d.Party == "" {
			return invalid(RuleRequired, field, label+" is required")
		}
		if !slices.Contains(d.Variant.Parties(), d.Party) {
			return invalid(RuleChoice, field, "unknown "+label)
		}
		if d.Party == OptionOther && utils.IsBlank(d.OtherParty) {
			return invalid(RuleRequired, field, "enter the "+label+" name")
		}
	default:
		return &ValidationError{Rule: RuleChoice, Field: "variant", Msg: "unknown pass type", Err: ErrUnknownVariant}
	}

	if d.Purpose == "" {
		return invalid(RuleRequired, "purpose", "purpose is required")
	}
	if !slices.Contains(d.Variant.Purposes(), d.Purpose) {
		return invalid(RuleChoice, "purpose", "unknown purpose")
	}
	if d.Purpose == OptionOther && utils.IsBlank(d.OtherPurpose) {
		return invalid(RuleRequired, "purpose", "describe the purpose of the visit")
	}
	return nil
}

// ValidateDraft is the full submit-time check: field rules first, then the visit window.
func ValidateDraft(d Draft, minimum time.Duration) error {
	if err := ValidateFields(d); err != nil {
		return err
	}
	return ValidateWindow(d.FromDate, d.ToDate, d.FromTime, d.ToTime, minimum)
}

// Clone returns a copy that shares no pointers with d.
func (d Draft) Clone() Draft {
	c := d
	if d.FromDate != nil {
		v := *d.FromDate
		c.FromDate = &v
	}
	if d.ToDate != nil {
		v := *d.ToDate
		c.ToDate = &v
	}
	if d.FromTime != nil {
		v := *d.FromTime
		c.FromTime = &v
	}
	if d.ToTime != nil {
		v := *d.ToTime
		c.ToTime = &v
	}
	return c
}

// Trimmed returns the draft with text fields normalised for persistence.
func (d Draft) Trimmed() Draft {
	c := d.Clone()
	c.VisitorName = utils.NormalizeString(c.VisitorName)
	if c.Variant == VariantVisitor {
		c.PhoneNumber = utils.NormalizePhone(c.PhoneNumber)
	} else {
		c.PhoneNumber = utils.NormalizeString(c.PhoneNumber)
	}
	c.OtherParty = utils.NormalizeString(c.OtherParty)
	c.OtherPurpose = utils.NormalizeString(c.OtherPurpose)
	c.VehicleNumber = utils.NormalizeVehicleNumber(c.VehicleNumber)
	c.UnitCode = strings.TrimSpace(c.UnitCode)
	return c
}
