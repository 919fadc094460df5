package dynform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidationResult maps field ids to their first failing message. A nil or
// empty result means the values are valid.
type ValidationResult map[string]string

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool { return len(r) == 0 }

// Message returns the message recorded for a field, or "".
func (r ValidationResult) Message(id string) string { return r[id] }

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock sets the time source used to resolve "today".
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLocation sets the location whose calendar days date fields are compared in.
func WithLocation(loc *time.Location) ValidatorOption {
	return func(v *Validator) {
		if loc != nil {
			v.loc = loc
		}
	}
}

// Validator runs schemas against value sets. It holds no mutable state and is
// safe for concurrent use.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

// NewValidator creates a validator using the wall clock and the local time zone
// unless overridden.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Validate checks values against schema with the default validator.
func Validate(schema *Schema, values ValueSet) ValidationResult {
	return defaultValidator.Validate(schema, values)
}

// ValidateField checks one value with the default validator and returns its
// message, or "" when the value is valid.
func ValidateField(field Field, value Value) string {
	return defaultValidator.ValidateField(field, value)
}

// Validate checks every field of schema in order. Values whose ids are not in
// the schema are ignored.
func (v *Validator) Validate(schema *Schema, values ValueSet) ValidationResult {
	if schema == nil {
		return nil
	}
	cc := v.context()
	var result ValidationResult
	for _, f := range schema.fields {
		msg := validateField(f, values.Get(f.Info().ID), cc)
		if msg == "" {
			continue
		}
		if result == nil {
			result = make(ValidationResult)
		}
		result[f.Info().ID] = msg
	}
	return result
}

// ValidateField checks a single value against field. A field whose
// definition is invalid rejects every value.
func (v *Validator) ValidateField(field Field, value Value) string {
	msg, err := v.CheckField(field, value)
	if err != nil {
		return invalidDefinitionMessage(field)
	}
	return msg
}

// CheckField is ValidateField that reports an invalid field definition as a
// *SchemaError instead of a message.
func (v *Validator) CheckField(field Field, value Value) (string, error) {
	if field == nil {
		return "", nil
	}
	if err := field.prepare(); err != nil {
		return "", err
	}
	return validateField(field, value, v.context()), nil
}

func invalidDefinitionMessage(field Field) string {
	name := field.Info().Label
	if name == "" {
		name = field.Info().ID
	}
	if name == "" {
		return "Field has an invalid definition"
	}
	return name + " has an invalid definition"
}

type checkContext struct {
	loc   *time.Location
	today civilDate
}

func (v *Validator) context() *checkContext {
	return &checkContext{
		loc:   v.loc,
		today: civilOf(v.now().In(v.loc)),
	}
}

func validateField(f Field, value Value, cc *checkContext) string {
	info := f.Info()
	if info.Required {
		if msg := checkRequired(f, value); msg != "" {
			return msg
		}
	} else if isEmpty(f, value) {
		return ""
	}
	return f.check(value, cc)
}

func checkRequired(f Field, value Value) string {
	label := f.Info().Label
	switch f.(type) {
	case *MultiSelectField:
		if list, ok := value.AsList(); !ok || len(list) == 0 {
			return label + " is required"
		}
	case *SwitchField:
		if b, ok := value.AsBool(); !ok || !b {
			return label + " must be accepted"
		}
	default:
		if isBlank(value) {
			return label + " is required"
		}
	}
	return ""
}

func isBlank(value Value) bool {
	if value.IsNil() {
		return true
	}
	s, ok := value.AsString()
	return ok && s == ""
}

func isEmpty(f Field, value Value) bool {
	if isBlank(value) {
		return true
	}
	if _, multi := f.(*MultiSelectField); multi {
		list, ok := value.AsList()
		return ok && len(list) == 0
	}
	return false
}

func (f *TextField) check(value Value, _ *checkContext) string {
	s, ok := value.AsString()
	if !ok {
		return f.Label + " must be a string"
	}
	c := f.Constraints
	n := utf8.RuneCountInString(s)
	if c.MinLength > 0 && n < c.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", f.Label, c.MinLength)
	}
	if c.MaxLength > 0 && n > c.MaxLength {
		return fmt.Sprintf("%s must be at most %d characters", f.Label, c.MaxLength)
	}
	if f.pattern != nil && !f.pattern.MatchString(s) {
		if c.RegexMessage != "" {
			return c.RegexMessage
		}
		return f.Label + " format is invalid"
	}
	return ""
}

func (f *NumberField) check(value Value, _ *checkContext) string {
	n, ok := coerceNumber(value)
	if !ok {
		return f.Label + " must be a valid number"
	}
	c := f.Constraints
	if c.Min != nil && n < *c.Min {
		return fmt.Sprintf("%s must be at least %s", f.Label, formatNumber(*c.Min))
	}
	if c.Max != nil && n > *c.Max {
		return fmt.Sprintf("%s must be at most %s", f.Label, formatNumber(*c.Max))
	}
	return ""
}

func (f *SelectField) check(value Value, _ *checkContext) string {
	s, ok := value.AsString()
	if !ok || !hasOption(f.Options, s) {
		return f.Label + " must be a valid option"
	}
	return ""
}

func (f *MultiSelectField) check(value Value, _ *checkContext) string {
	list, ok := value.AsList()
	if !ok {
		return f.Label + " must be an array"
	}
	for _, item := range list {
		s, isString := item.AsString()
		if !isString || !hasOption(f.Options, s) {
			return fmt.Sprintf("%s contains invalid option: %s", f.Label, renderElement(item))
		}
	}
	c := f.Constraints
	if c.MinSelected > 0 && len(list) < c.MinSelected {
		return fmt.Sprintf("%s must have at least %d selected", f.Label, c.MinSelected)
	}
	if c.MaxSelected > 0 && len(list) > c.MaxSelected {
		return fmt.Sprintf("%s must have at most %d selected", f.Label, c.MaxSelected)
	}
	return ""
}

func (f *DateField) check(value Value, cc *checkContext) string {
	t, ok := dateOf(value, cc.loc)
	if !ok {
		return f.Label + " must be a valid date"
	}
	day := civilOf(t)
	switch f.Constraints.MinDate {
	case "":
	case MinDateToday:
		if day.before(cc.today) {
			return f.Label + " must be today or later"
		}
	default:
		minDate, ok := parseDate(f.Constraints.MinDate, cc.loc)
		if !ok {
			return f.Label + " has an invalid definition"
		}
		if day.before(civilOf(minDate.In(cc.loc))) {
			return fmt.Sprintf("%s must be on or after %s", f.Label, f.Constraints.MinDate)
		}
	}
	return ""
}

func (f *SwitchField) check(value Value, _ *checkContext) string {
	if _, ok := value.AsBool(); !ok {
		return f.Label + " must be a boolean"
	}
	return ""
}

// coerceNumber converts numbers, numeric strings and booleans. Non-finite
// results fail.
func coerceNumber(value Value) (float64, bool) {
	var n float64
	switch value.Kind() {
	case KindNumber:
		n, _ = value.AsNumber()
	case KindString:
		s, _ := value.AsString()
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case KindBool:
		if b, _ := value.AsBool(); b {
			n = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func renderElement(v Value) string {
	if v.Kind() == KindAbsent {
		return "null"
	}
	return v.String()
}

var localDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// parseDate accepts a calendar date, a local date-time or an RFC 3339
// timestamp. Layouts without an offset are read in loc.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateOf reads a date value: strings via parseDate, numbers as epoch
// milliseconds.
func dateOf(value Value, loc *time.Location) (time.Time, bool) {
	switch value.Kind() {
	case KindString:
		s, _ := value.AsString()
		t, ok := parseDate(s, loc)
		if !ok {
			return time.Time{}, false
		}
		return t.In(loc), true
	case KindNumber:
		ms, _ := value.AsNumber()
		if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > 8.64e15 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).In(loc), true
	default:
		return time.Time{}, false
	}
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

func (d civilDate) before(other civilDate) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}
