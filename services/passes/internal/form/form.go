package form

import (
	"sync"
	"time"

	"github.com/diagnosis/gatepass/services/passes/internal/domain"
)

// State is the tagged lifecycle of a form. Only the types below implement it.
type State interface {
	Name() string
	isState()
}

type Editing struct{}

type Validating struct{}

type Submitting struct{}

// Failed keeps the reason of the last rejected submission. The draft is left intact.
type Failed struct{ Reason error }

// Succeeded holds the handoff that was dispatched. The draft has already been reset.
type Succeeded struct{ Handoff domain.Handoff }

func (Editing) Name() string    { return "editing" }
func (Validating) Name() string { return "validating" }
func (Submitting) Name() string { return "submitting" }
func (Failed) Name() string     { return "failed" }
func (Succeeded) Name() string  { return "succeeded" }

func (Editing) isState()    {}
func (Validating) isState() {}
func (Submitting) isState() {}
func (Failed) isState()     {}
func (Succeeded) isState()  {}

// Picker is a date/time picker or dropdown that can be open on the form.
type Picker string

const (
	PickerNone     Picker = ""
	PickerFromDate Picker = "from_date"
	PickerFromTime Picker = "from_time"
	PickerToDate   Picker = "to_date"
	PickerToTime   Picker = "to_time"
	PickerPurpose  Picker = "purpose"
	PickerParty    Picker = "party"
)

func ParsePicker(s string) (Picker, bool) {
	switch p := Picker(s); p {
	case PickerNone, PickerFromDate, PickerFromTime, PickerToDate, PickerToTime, PickerPurpose, PickerParty:
		return p, true
	default:
		return PickerNone, false
	}
}

// Bounds is what an opened picker may offer: a lower date/instant bound or a list of options.
type Bounds struct {
	Picker  Picker       `json:"picker"`
	MinDate *domain.Date `json:"min_date,omitempty"`
	MinTime *time.Time   `json:"min_time,omitempty"`
	Options []string     `json:"options,omitempty"`
}

// Owner is the resident a form belongs to, captured from the profile when the form opens.
type Owner struct {
	ResidentID int64
	Name       string
	Email      string
	UnitCode   string
}

// Patch carries text field edits. Nil fields are left untouched.
type Patch struct {
	VisitorName   *string `json:"visitor_name"`
	PhoneNumber   *string `json:"phone_number"`
	Party         *string `json:"party"`
	OtherParty    *string `json:"other_party"`
	Purpose       *string `json:"purpose"`
	OtherPurpose  *string `json:"other_purpose"`
	VehicleNumber *string `json:"vehicle_number"`
	UnitCode      *string `json:"unit_code"`
}

type Option func(*PassForm)

func WithClock(now func() time.Time) Option {
	return func(f *PassForm) { f.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(f *PassForm) { f.loc = loc }
}

func WithMinimumDuration(d time.Duration) Option {
	return func(f *PassForm) { f.minimum = d }
}

// PassForm is one resident's in-progress pass registration. All methods are safe for
// concurrent use; at most one submission can be in flight.
type PassForm struct {
	mu sync.Mutex

	id      string
	owner   Owner
	variant domain.Variant

	draft  domain.Draft
	state  State
	picker Picker

	now     func() time.Time
	loc     *time.Location
	minimum time.Duration
}

func New(id string, owner Owner, variant domain.Variant, opts ...Option) *PassForm {
	f := &PassForm{
		id:      id,
		owner:   owner,
		variant: variant,
		now:     time.Now,
		loc:     time.Local,
		minimum: domain.MinPassDuration,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.reset()
	f.state = Editing{}
	return f
}

func (f *PassForm) ID() string               { return f.id }
func (f *PassForm) Owner() Owner             { return f.owner }
func (f *PassForm) Variant() domain.Variant  { return f.variant }
func (f *PassForm) Location() *time.Location { return f.loc }

func (f *PassForm) clock() time.Time {
	return f.now().In(f.loc)
}

// reset clears every field and collapses pickers. The unit code is prefilled again.
func (f *PassForm) reset() {
	f.draft = domain.Draft{Variant: f.variant, UnitCode: f.owner.UnitCode}
	f.picker = PickerNone
}

// beginEdit must be called with mu held. Edits are refused while a submission runs and
// clear a previous failure or success.
func (f *PassForm) beginEdit() error {
	switch f.state.(type) {
	case Validating, Submitting:
		return domain.ErrSubmissionInFlight
	case Failed, Succeeded:
		f.state = Editing{}
	}
	return nil
}

func (f *PassForm) Update(p Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&f.draft.VisitorName, p.VisitorName)
	set(&f.draft.PhoneNumber, p.PhoneNumber)
	set(&f.draft.Party, p.Party)
	set(&f.draft.OtherParty, p.OtherParty)
	set(&f.draft.Purpose, p.Purpose)
	set(&f.draft.OtherPurpose, p.OtherPurpose)
	set(&f.draft.VehicleNumber, p.VehicleNumber)
	set(&f.draft.UnitCode, p.UnitCode)
	if (p.Purpose != nil && f.picker == PickerPurpose) || (p.Party != nil && f.picker == PickerParty) {
		f.picker = PickerNone
	}
	return nil
}

// staleFromDate must be called with mu held. A start day picked before midnight falls into
// the past while the form stays open, and everything built on it has to be picked again.
func (f *PassForm) staleFromDate(now time.Time) error {
	if f.draft.FromDate != nil && f.draft.FromDate.Before(domain.MinFromDate(now)) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "from_date", Msg: "start date is now in the past, pick it again"}
	}
	return nil
}

// currentWindow rejects a draft whose window no longer lies ahead of now.
func currentWindow(d domain.Draft, now time.Time) error {
	if d.FromDate != nil && d.FromDate.Before(domain.MinFromDate(now)) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "from_date", Msg: "start date cannot be in the past"}
	}
	if d.ToTime != nil && !d.ToTime.After(now) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "to_time", Msg: "pass window has already ended"}
	}
	return nil
}

// SelectFromDate sets the start day. Any previously chosen start time is discarded, even when
// the same day is picked again.
func (f *PassForm) SelectFromDate(d domain.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	if d.Before(domain.MinFromDate(f.clock())) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "from_date", Msg: "start date cannot be in the past"}
	}
	f.draft.FromDate = &d
	f.draft.FromTime = nil
	f.picker = PickerNone
	return nil
}

func (f *PassForm) SelectFromTime(t domain.TimeOfDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	if f.draft.FromDate == nil {
		return domain.ErrDateRequired
	}
	now := f.clock()
	if err := f.staleFromDate(now); err != nil {
		return err
	}
	at := domain.Combine(*f.draft.FromDate, t, f.loc)
	if at.Before(domain.MinFromTime(*f.draft.FromDate, now)) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "from_time", Msg: "start time cannot be in the past"}
	}
	f.draft.FromTime = &at
	f.picker = PickerNone
	return nil
}

// SelectToDate sets the end day and discards any previously chosen end time.
func (f *PassForm) SelectToDate(d domain.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	now := f.clock()
	if err := f.staleFromDate(now); err != nil {
		return err
	}
	minDate := domain.MinFromDate(now)
	if f.draft.FromDate != nil {
		minDate = domain.MinToDate(*f.draft.FromDate)
	}
	if d.Before(minDate) {
		return &domain.ValidationError{Rule: domain.RuleBeforeMinimum, Field: "to_date", Msg: "end date cannot be before start date"}
	}
	f.draft.ToDate = &d
	f.draft.ToTime = nil
	f.picker = PickerNone
	return nil
}

// SelectToTime needs both the end day and the start time so the duration can be checked
// right away. A rejected candidate leaves the draft untouched.
func (f *PassForm) SelectToTime(t domain.TimeOfDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	if f.draft.ToDate == nil {
		return domain.ErrDateRequired
	}
	if f.draft.FromTime == nil {
		return domain.ErrFromTimeRequired
	}
	if err := f.staleFromDate(f.clock()); err != nil {
		return err
	}
	at := domain.Combine(*f.draft.ToDate, t, f.loc)
	if err := domain.CheckDuration(*f.draft.FromTime, at, f.minimum); err != nil {
		return err
	}
	f.draft.ToTime = &at
	f.picker = PickerNone
	return nil
}

// OpenPicker opens one picker, collapsing any other, and returns its bounds. Opening
// PickerNone closes everything.
func (f *PassForm) OpenPicker(p Picker) (Bounds, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return Bounds{}, err
	}
	b := Bounds{Picker: p}
	now := f.clock()
	switch p {
	case PickerFromTime, PickerToDate, PickerToTime:
		if err := f.staleFromDate(now); err != nil {
			return Bounds{}, err
		}
	}
	switch p {
	case PickerNone:
	case PickerFromDate:
		d := domain.MinFromDate(now)
		b.MinDate = &d
	case PickerFromTime:
		if f.draft.FromDate == nil {
			return Bounds{}, domain.ErrDateRequired
		}
		t := domain.MinFromTime(*f.draft.FromDate, now)
		b.MinTime = &t
	case PickerToDate:
		d := domain.MinFromDate(now)
		if f.draft.FromDate != nil {
			d = domain.MinToDate(*f.draft.FromDate)
		}
		b.MinDate = &d
	case PickerToTime:
		if f.draft.ToDate == nil {
			return Bounds{}, domain.ErrDateRequired
		}
		if f.draft.FromTime == nil {
			return Bounds{}, domain.ErrFromTimeRequired
		}
		t := domain.MinToTime(domain.DateOf(*f.draft.FromTime), *f.draft.ToDate, *f.draft.FromTime, f.minimum)
		b.MinTime = &t
	case PickerPurpose:
		b.Options = f.variant.Purposes()
	case PickerParty:
		b.Options = f.variant.Parties()
	}
	f.picker = p
	return b, nil
}

// Reset discards the draft. It is refused while a submission is running.
func (f *PassForm) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.beginEdit(); err != nil {
		return err
	}
	f.reset()
	return nil
}

// Ready reports whether the current draft would pass submit-time validation.
func (f *PassForm) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready()
}

func (f *PassForm) ready() bool {
	d := f.draft.Trimmed()
	return domain.ValidateDraft(d, f.minimum) == nil && currentWindow(d, f.clock()) == nil
}

// BeginSubmit moves the form into Submitting and returns the normalised draft to persist.
// A second call before Fail or Complete gets ErrSubmissionInFlight.
func (f *PassForm) BeginSubmit() (domain.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.(type) {
	case Validating, Submitting:
		return domain.Draft{}, domain.ErrSubmissionInFlight
	}
	f.state = Validating{}
	draft := f.draft.Trimmed()
	err := domain.ValidateDraft(draft, f.minimum)
	if err == nil {
		err = currentWindow(draft, f.clock())
	}
	if err != nil {
		f.state = Failed{Reason: err}
		return domain.Draft{}, err
	}
	f.picker = PickerNone
	f.state = Submitting{}
	return draft, nil
}

// Fail ends a submission without touching the draft so the resident can retry.
func (f *PassForm) Fail(reason error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Failed{Reason: reason}
}

// Complete records the dispatched handoff and clears the draft.
func (f *PassForm) Complete(h domain.Handoff) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
	f.state = Succeeded{Handoff: h}
}

func (f *PassForm) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot is the client-facing view of a form.
type Snapshot struct {
	ID         string          `json:"id"`
	Variant    domain.Variant  `json:"variant"`
	Title      string          `json:"title"`
	State      string          `json:"state"`
	Reason     string          `json:"reason,omitempty"`
	OpenPicker Picker          `json:"open_picker,omitempty"`
	Draft      domain.Draft    `json:"draft"`
	Ready      bool            `json:"ready"`
	Purposes   []string        `json:"purposes"`
	Parties    []string        `json:"parties,omitempty"`
	Handoff    *domain.Handoff `json:"handoff,omitempty"`
}

func (f *PassForm) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		ID:         f.id,
		Variant:    f.variant,
		Title:      f.variant.Label(),
		State:      f.state.Name(),
		OpenPicker: f.picker,
		Draft:      f.draft.Clone(),
		Ready:      f.ready(),
		Purposes:   f.variant.Purposes(),
		Parties:    f.variant.Parties(),
	}
	switch st := f.state.(type) {
	case Failed:
		if st.Reason != nil {
			s.Reason = st.Reason.Error()
		}
	case Succeeded:
		h := st.Handoff
		s.Handoff = &h
	}
	return s
}
