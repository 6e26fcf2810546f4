package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/lorrc/user-directory/internal/core/errors"
)

// SortField is a column the derived view can be ordered by. It has no "none"
// value: the zero value is SortByCountry, the initially remembered field.
type SortField uint8

const (
	SortByCountry SortField = iota
	SortByFirstName
	SortByLastName
)

var sortFieldNames = map[SortField]string{
	SortByCountry:   "country",
	SortByFirstName: "first_name",
	SortByLastName:  "last_name",
}

func (f SortField) String() string {
	if name, ok := sortFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("SortField(%d)", uint8(f))
}

// Value extracts the field from u.
func (f SortField) Value(u User) string {
	switch f {
	case SortByFirstName:
		return u.FirstName
	case SortByLastName:
		return u.LastName
	default:
		return u.Country
	}
}

// ParseSortField accepts the canonical names plus the short forms used by the
// table headers ("name", "last").
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "country":
		return SortByCountry, nil
	case "first_name", "firstname", "name", "first":
		return SortByFirstName, nil
	case "last_name", "lastname", "last":
		return SortByLastName, nil
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidSortField, s)
}

// SortKey selects the ordering of the derived view. The zero value is
// SortNone and leaves fetch order untouched.
type SortKey struct {
	field SortField
	set   bool
}

// SortNone keeps records in the order they were fetched.
var SortNone = SortKey{}

// SortBy returns a key ordering ascending by f.
func SortBy(f SortField) SortKey { return SortKey{field: f, set: true} }

// Field returns the selected field and false for SortNone.
func (k SortKey) Field() (SortField, bool) { return k.field, k.set }

func (k SortKey) String() string {
	if !k.set {
		return "none"
	}
	return k.field.String()
}

// SortToggle is the sort state machine: NONE or ACTIVE(field), plus the last
// chosen field which survives transitions to NONE.
type SortToggle struct {
	remembered SortField
	enabled    bool
}

// NewSortToggle returns the initial state (NONE, remembered COUNTRY).
func NewSortToggle() SortToggle {
	return SortToggle{remembered: SortByCountry}
}

// Activate handles "sort by f". Choosing a new field turns sorting on;
// choosing the remembered field again flips it.
func (t *SortToggle) Activate(f SortField) {
	if t.remembered != f {
		t.remembered = f
		t.enabled = true
		return
	}
	t.enabled = !t.enabled
}

// Toggle flips between NONE and ACTIVE(remembered).
func (t *SortToggle) Toggle() { t.enabled = !t.enabled }

// Reset returns to (NONE, COUNTRY).
func (t *SortToggle) Reset() { *t = NewSortToggle() }

// Enabled reports whether the machine is in ACTIVE.
func (t SortToggle) Enabled() bool { return t.enabled }

// Remembered returns the last chosen field.
func (t SortToggle) Remembered() SortField { return t.remembered }

// Key returns the SortKey the pipeline should apply.
func (t SortToggle) Key() SortKey {
	if !t.enabled {
		return SortNone
	}
	return SortBy(t.remembered)
}

// ViewState is the presentation-only state of the table. An empty Filter
// means no filter.
type ViewState struct {
	ColorEnabled bool
	Filter       string
	Sort         SortToggle
}

// NewViewState returns the defaults: no colors, no filter, no sort.
func NewViewState() ViewState {
	return ViewState{Sort: NewSortToggle()}
}

func (v *ViewState) ToggleColor() { v.ColorEnabled = !v.ColorEnabled }

func (v *ViewState) SetFilter(text string) { v.Filter = text }

func (v *ViewState) ClearFilter() { v.Filter = "" }

// Reset is applied with the global reset action. The color toggle is kept.
func (v *ViewState) Reset() {
	v.Filter = ""
	v.Sort.Reset()
}
