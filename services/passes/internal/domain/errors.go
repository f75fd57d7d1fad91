package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDateRequired        = errors.New("select a date before choosing a time")
	ErrFromTimeRequired    = errors.New("select a start time before choosing an end time")
	ErrNonPositiveDuration = errors.New("end time must be after start time")
	ErrDurationTooShort    = errors.New("visit window is shorter than the minimum pass duration")
	ErrSubmissionInFlight  = errors.New("a submission is already in progress, please wait")
	ErrFormNotFound        = errors.New("form not found")
	ErrHandoffNotFound     = errors.New("pass handoff not found or already used")
	ErrPassNotFound        = errors.New("pass not found")
	ErrUnknownVariant      = errors.New("unknown pass type")
)

// Rule names the constraint a ValidationError violated.
type Rule string

const (
	RuleRequired            Rule = "required"
	RuleFormat              Rule = "format"
	RuleChoice              Rule = "choice"
	RuleBeforeMinimum       Rule = "before_minimum"
	RuleDateOrder           Rule = "date_order"
	RuleNonPositiveDuration Rule = "non_positive_duration"
	RuleDurationTooShort    Rule = "duration_too_short"
)

type ValidationError struct {
	Rule  Rule
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(rule Rule, field, msg string) *ValidationError {
	return &ValidationError{Rule: rule, Field: field, Msg: msg}
}

// DataIntegrityError reports schema-required columns that were empty right before insert.
type DataIntegrityError struct {
	Fields []string
}

func (e *DataIntegrityError) Error() string {
	return "pass record is missing required fields: " + strings.Join(e.Fields, ", ")
}

type PersistenceError struct {
	Msg string
	Err error
}

func (e *PersistenceError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("failed to save pass: %v", e.Err)
	default:
		return "failed to save pass"
	}
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SubmissionError wraps anything unexpected that escaped the pipeline.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return "pass submission failed"
	}
	return fmt.Sprintf("pass submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// GateError blocks the display of a pass. It is never dismissible: callers must send the
// resident back to RedirectTo.
type GateError struct {
	Missing    []string
	Invalid    []string
	RedirectTo string
	Err        error
}

func (e *GateError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "pass cannot be displayed"
	}
	return "pass cannot be displayed: " + strings.Join(parts, "; ")
}

func (e *GateError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsDataIntegrity(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsSubmission(err error) bool {
	var target *SubmissionError
	return errors.As(err, &target)
}

func IsGate(err error) bool {
	var target *GateError
	return errors.As(err, &target)
}

// IsKnown reports whether err belongs to the pipeline's error taxonomy.
func IsKnown(err error) bool {
	return IsValidation(err) || IsDataIntegrity(err) || IsPersistence(err) || IsSubmission(err) ||
		errors.Is(err, ErrDateRequired) || errors.Is(err, ErrFromTimeRequired) ||
		errors.Is(err, ErrSubmissionInFlight)
}
