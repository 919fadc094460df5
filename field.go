package dynform

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// FieldType identifies the input control and rule set of a field.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multi-select"
	FieldTypeDate        FieldType = "date"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeSwitch      FieldType = "switch"
)

// MinDateToday is the minDate keyword that resolves to the current local day.
const MinDateToday = "today"

// Option is one selectable value of a select or multi-select field.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldInfo holds the attributes every field kind shares.
type FieldInfo struct {
	ID          string
	Label       string
	Required    bool
	Placeholder string
	Description string
}

// Field is one typed input slot of a form schema. The set of implementations
// is closed: TextField, NumberField, SelectField, MultiSelectField, DateField
// and SwitchField.
//
// A field is checked and compiled on first use, by NewSchema or by
// ValidateField, and must not be modified afterwards.
type Field interface {
	Info() FieldInfo
	Type() FieldType

	// prepare checks the field definition and compiles derived state. Only the
	// first call does any work; later calls return the same error.
	prepare() error
	// check runs the type-specific rules against a non-empty value.
	check(value Value, cc *checkContext) string
}

// preparation runs a field's compile step once and remembers its outcome.
type preparation struct {
	once sync.Once
	err  error
}

func (p *preparation) run(compile func() error) error {
	p.once.Do(func() { p.err = compile() })
	return p.err
}

// TextConstraints applies to text and textarea fields. Zero lengths are unset.
type TextConstraints struct {
	MinLength    int
	MaxLength    int
	Regex        string
	RegexMessage string
}

// TextField is a single-line text input, or a textarea when Multiline is set.
type TextField struct {
	FieldInfo
	Multiline   bool
	Constraints TextConstraints

	prep    preparation
	pattern *regexp.Regexp
}

func (f *TextField) Info() FieldInfo { return f.FieldInfo }

func (f *TextField) Type() FieldType {
	if f.Multiline {
		return FieldTypeTextarea
	}
	return FieldTypeText
}

func (f *TextField) prepare() error { return f.prep.run(f.compile) }

func (f *TextField) compile() error {
	if err := checkInfo(f.FieldInfo); err != nil {
		return err
	}
	c := f.Constraints
	if c.MinLength < 0 {
		return newFieldError(f.ID, "minLength must not be negative", nil)
	}
	if c.MaxLength < 0 {
		return newFieldError(f.ID, "maxLength must not be negative", nil)
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return newFieldError(f.ID, fmt.Sprintf("minLength %d exceeds maxLength %d", c.MinLength, c.MaxLength), nil)
	}
	if c.RegexMessage != "" && c.Regex == "" {
		return newFieldError(f.ID, "regexMessage requires regex", nil)
	}
	if c.Regex != "" {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return newFieldError(f.ID, fmt.Sprintf("invalid regex %q", c.Regex), err)
		}
		f.pattern = re
	}
	return nil
}

// NumberConstraints applies to number fields. Nil bounds are unset.
type NumberConstraints struct {
	Min *float64
	Max *float64
}

// NumberField accepts anything that coerces to a finite number.
type NumberField struct {
	FieldInfo
	Constraints NumberConstraints

	prep preparation
}

func (f *NumberField) Info() FieldInfo { return f.FieldInfo }
func (f *NumberField) Type() FieldType { return FieldTypeNumber }

func (f *NumberField) prepare() error { return f.prep.run(f.compile) }

func (f *NumberField) compile() error {
	if err := checkInfo(f.FieldInfo); err != nil {
		return err
	}
	c := f.Constraints
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return newFieldError(f.ID, fmt.Sprintf("min %s exceeds max %s", formatNumber(*c.Min), formatNumber(*c.Max)), nil)
	}
	return nil
}

// SelectField accepts exactly one of its option values.
type SelectField struct {
	FieldInfo
	Options []Option

	prep preparation
}

func (f *SelectField) Info() FieldInfo { return f.FieldInfo }
func (f *SelectField) Type() FieldType { return FieldTypeSelect }

func (f *SelectField) prepare() error { return f.prep.run(f.compile) }

func (f *SelectField) compile() error {
	if err := checkInfo(f.FieldInfo); err != nil {
		return err
	}
	return checkOptions(f.ID, f.Options)
}

// SelectionConstraints applies to multi-select fields. Zero counts are unset.
type SelectionConstraints struct {
	MinSelected int
	MaxSelected int
}

// MultiSelectField accepts a list of its option values.
type MultiSelectField struct {
	FieldInfo
	Options     []Option
	Constraints SelectionConstraints

	prep preparation
}

func (f *MultiSelectField) Info() FieldInfo { return f.FieldInfo }
func (f *MultiSelectField) Type() FieldType { return FieldTypeMultiSelect }

func (f *MultiSelectField) prepare() error { return f.prep.run(f.compile) }

func (f *MultiSelectField) compile() error {
	if err := checkInfo(f.FieldInfo); err != nil {
		return err
	}
	if err := checkOptions(f.ID, f.Options); err != nil {
		return err
	}
	c := f.Constraints
	if c.MinSelected < 0 || c.MaxSelected < 0 {
		return newFieldError(f.ID, "selection counts must not be negative", nil)
	}
	if c.MaxSelected > 0 && c.MinSelected > c.MaxSelected {
		return newFieldError(f.ID, fmt.Sprintf("minSelected %d exceeds maxSelected %d", c.MinSelected, c.MaxSelected), nil)
	}
	return nil
}

// DateConstraints applies to date fields. MinDate is either MinDateToday or a
// date string; empty means unset.
type DateConstraints struct {
	MinDate string
}

// DateField accepts a calendar date.
type DateField struct {
	FieldInfo
	Constraints DateConstraints

	prep preparation
}

func (f *DateField) Info() FieldInfo { return f.FieldInfo }
func (f *DateField) Type() FieldType { return FieldTypeDate }

func (f *DateField) prepare() error { return f.prep.run(f.compile) }

func (f *DateField) compile() error {
	if err := checkInfo(f.FieldInfo); err != nil {
		return err
	}
	switch f.Constraints.MinDate {
	case "", MinDateToday:
		return nil
	}
	if _, ok := parseDate(f.Constraints.MinDate, time.UTC); !ok {
		return newFieldError(f.ID, fmt.Sprintf("invalid minDate %q", f.Constraints.MinDate), nil)
	}
	return nil
}

// SwitchField is a boolean toggle. A required switch must be true.
type SwitchField struct {
	FieldInfo

	prep preparation
}

func (f *SwitchField) Info() FieldInfo { return f.FieldInfo }
func (f *SwitchField) Type() FieldType { return FieldTypeSwitch }

func (f *SwitchField) prepare() error { return f.prep.run(f.compile) }

func (f *SwitchField) compile() error {
	return checkInfo(f.FieldInfo)
}

// OptionsOf returns the options of a select or multi-select field, nil otherwise.
func OptionsOf(f Field) []Option {
	switch ft := f.(type) {
	case *SelectField:
		return ft.Options
	case *MultiSelectField:
		return ft.Options
	}
	return nil
}

func checkInfo(info FieldInfo) error {
	if info.ID == "" {
		return NewSchemaError(SchemaErrorTypeInvalidField, "field id is required", nil)
	}
	if info.Label == "" {
		return newFieldError(info.ID, "label is required", nil)
	}
	return nil
}

func checkOptions(id string, options []Option) error {
	if len(options) == 0 {
		return newFieldError(id, "options are required", nil)
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := seen[opt.Value]; dup {
			return newFieldError(id, fmt.Sprintf("duplicate option value %q", opt.Value), nil)
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}

func hasOption(options []Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func newFieldError(id, message string, cause error) *SchemaError {
	return NewSchemaError(SchemaErrorTypeInvalidField, message, cause).WithField(id)
}
