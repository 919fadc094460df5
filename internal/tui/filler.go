// Package tui fills a form schema interactively in the terminal. Every answer
// goes through the same validator the server applies, so a value accepted
// here is accepted on submission.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"go.uber.org/zap"
)

const (
	noneOption = "(none)"
	// maxPageSize caps how many options a select prompt shows at once.
	maxPageSize = 10
)

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver replaces the terminal prompts.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithValidator sets the validator answers are checked with.
func WithValidator(v *dynform.Validator) Option {
	return func(f *Filler) {
		if v != nil {
			f.validator = v
		}
	}
}

// WithDefaults pre-fills prompts from an existing value set, for editing a
// stored submission.
func WithDefaults(values dynform.ValueSet) Option {
	return func(f *Filler) {
		f.defaults = values
	}
}

// Filler walks the fields of a schema and asks for each value in turn.
type Filler struct {
	driver    PromptDriver
	validator *dynform.Validator
	defaults  dynform.ValueSet
}

// New returns a Filler using the survey-backed terminal driver unless
// WithPromptDriver says otherwise.
func New(opts ...Option) *Filler {
	f := &Filler{}
	for _, opt := range opts {
		opt(f)
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	if f.validator == nil {
		f.validator = dynform.NewValidator()
	}
	return f
}

// Fill asks for every field of schema in order and returns the answers.
// A rejected answer is reported through the driver and asked again.
// Optional fields left empty are not part of the result.
func (f *Filler) Fill(ctx context.Context, schema *dynform.Schema) (dynform.ValueSet, error) {
	if schema == nil || schema.Len() == 0 {
		return nil, ErrNoFields
	}
	values := make(dynform.ValueSet, schema.Len())
	for _, field := range schema.Fields() {
		value, err := f.ask(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Info().ID, err)
		}
		if value.Kind() != dynform.KindAbsent {
			values[field.Info().ID] = value
		}
	}
	return values, nil
}

func (f *Filler) ask(ctx context.Context, field dynform.Field) (dynform.Value, error) {
	for {
		value, err := f.prompt(ctx, field)
		if err != nil {
			return dynform.Absent(), err
		}
		msg, err := f.validator.CheckField(field, value)
		if err != nil {
			return dynform.Absent(), err
		}
		if msg == "" {
			return value, nil
		}
		zap.S().Debugw("answer rejected", "field", field.Info().ID, "message", msg)
		if err := f.driver.Info(ctx, msg); err != nil {
			return dynform.Absent(), err
		}
	}
}

func (f *Filler) prompt(ctx context.Context, field dynform.Field) (dynform.Value, error) {
	info := field.Info()
	current := f.defaults.Get(info.ID)
	message := promptMessage(info)
	help := info.Description
	if help == "" {
		help = info.Placeholder
	}

	switch ft := field.(type) {
	case *dynform.TextField:
		var (
			answer string
			err    error
		)
		if ft.Multiline {
			answer, err = f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: stringDefault(current), Help: help})
		} else {
			answer, err = f.driver.Input(ctx, InputConfig{Message: message, Default: stringDefault(current), Help: help})
		}
		if err != nil {
			return dynform.Absent(), err
		}
		return textAnswer(answer), nil

	case *dynform.NumberField:
		answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: stringDefault(current), Help: hint(help, "a number")})
		if err != nil {
			return dynform.Absent(), err
		}
		return numberAnswer(answer), nil

	case *dynform.DateField:
		answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: stringDefault(current), Help: hint(help, "YYYY-MM-DD")})
		if err != nil {
			return dynform.Absent(), err
		}
		return textAnswer(strings.TrimSpace(answer)), nil

	case *dynform.SelectField:
		labels := optionLabels(ft.Options)
		offset := 0
		if !info.Required {
			labels = append([]string{noneOption}, labels...)
			offset = 1
		}
		defaultIdx := 0
		if s, ok := current.AsString(); ok {
			if idx := optionIndex(ft.Options, s); idx >= 0 {
				defaultIdx = idx + offset
			}
		}
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         help,
			PageSize:     min(len(labels), maxPageSize),
		})
		if err != nil {
			return dynform.Absent(), err
		}
		idx -= offset
		if idx < 0 || idx >= len(ft.Options) {
			return dynform.Absent(), nil
		}
		return dynform.StringValue(ft.Options[idx].Value), nil

	case *dynform.MultiSelectField:
		var defaults []int
		if selected, ok := current.AsStrings(); ok {
			for _, s := range selected {
				if idx := optionIndex(ft.Options, s); idx >= 0 {
					defaults = append(defaults, idx)
				}
			}
		}
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  optionLabels(ft.Options),
			Defaults: defaults,
			Help:     help,
			PageSize: min(len(ft.Options), maxPageSize),
		})
		if err != nil {
			return dynform.Absent(), err
		}
		if len(picked) == 0 {
			return dynform.Absent(), nil
		}
		selected := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(ft.Options) {
				selected = append(selected, ft.Options[idx].Value)
			}
		}
		return dynform.StringsValue(selected...), nil

	case *dynform.SwitchField:
		def, _ := current.AsBool()
		answer, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		if err != nil {
			return dynform.Absent(), err
		}
		return dynform.BoolValue(answer), nil
	}
	return dynform.Absent(), fmt.Errorf("unsupported field type %q", field.Type())
}

func promptMessage(info dynform.FieldInfo) string {
	if info.Required {
		return info.Label + " *"
	}
	return info.Label
}

func hint(help, format string) string {
	if help == "" {
		return format
	}
	return help + " (" + format + ")"
}

// textAnswer maps an empty answer to absent so optional fields are omitted.
func textAnswer(s string) dynform.Value {
	if s == "" {
		return dynform.Absent()
	}
	return dynform.StringValue(s)
}

// numberAnswer keeps unparseable input as a string so the validator can
// report it.
func numberAnswer(s string) dynform.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return dynform.Absent()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return dynform.NumberValue(n)
	}
	return dynform.StringValue(s)
}

func stringDefault(v dynform.Value) string {
	if v.IsNil() {
		return ""
	}
	return v.String()
}

func optionLabels(options []dynform.Option) []string {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}
	return labels
}

func optionIndex(options []dynform.Option, value string) int {
	for i, o := range options {
		if o.Value == value {
			return i
		}
	}
	return -1
}
