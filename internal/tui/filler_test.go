package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int

	inputConfigs  []InputConfig
	selectConfigs []SelectConfig
	multiConfigs  []SelectConfig
	err           error
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectConfigs = append(s.selectConfigs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.multiConfigs = append(s.multiConfigs, cfg)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func ptr(f float64) *float64 { return &f }

func signupSchema() *dynform.Schema {
	return dynform.MustSchema("Signup", "",
		&dynform.TextField{
			FieldInfo:   dynform.FieldInfo{ID: "name", Label: "Name", Required: true},
			Constraints: dynform.TextConstraints{MinLength: 2},
		},
		&dynform.NumberField{
			FieldInfo:   dynform.FieldInfo{ID: "age", Label: "Age"},
			Constraints: dynform.NumberConstraints{Min: ptr(18)},
		},
		&dynform.TextField{
			FieldInfo: dynform.FieldInfo{ID: "bio", Label: "Bio"},
			Multiline: true,
		},
		&dynform.SelectField{
			FieldInfo: dynform.FieldInfo{ID: "team", Label: "Team", Required: true},
			Options:   []dynform.Option{{Value: "eng", Label: "Engineering"}, {Value: "ops", Label: "Operations"}},
		},
		&dynform.MultiSelectField{
			FieldInfo: dynform.FieldInfo{ID: "skills", Label: "Skills"},
			Options:   []dynform.Option{{Value: "go", Label: "Go"}, {Value: "sql", Label: "SQL"}, {Value: "k8s", Label: "Kubernetes"}},
		},
		&dynform.DateField{
			FieldInfo:   dynform.FieldInfo{ID: "start", Label: "Start Date", Required: true},
			Constraints: dynform.DateConstraints{MinDate: dynform.MinDateToday},
		},
		&dynform.SwitchField{
			FieldInfo: dynform.FieldInfo{ID: "terms", Label: "Terms", Required: true},
		},
	)
}

func newTestFiller(driver PromptDriver, opts ...Option) *Filler {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	validator := dynform.NewValidator(
		dynform.WithClock(func() time.Time { return now }),
		dynform.WithLocation(time.UTC),
	)
	return New(append([]Option{WithPromptDriver(driver), WithValidator(validator)}, opts...)...)
}

func TestFillCollectsAnswers(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ann", "30", "2025-03-20"},
		textAreas: []string{""},
		selectIdx: []int{1},
		multiIdx:  [][]int{{0, 1}},
		confirm:   []bool{true},
	}

	values, err := newTestFiller(driver).Fill(context.Background(), signupSchema())
	require.NoError(t, err)

	want := dynform.ValueSet{
		"name":   dynform.StringValue("Ann"),
		"age":    dynform.NumberValue(30),
		"team":   dynform.StringValue("ops"),
		"skills": dynform.StringsValue("go", "sql"),
		"start":  dynform.StringValue("2025-03-20"),
		"terms":  dynform.BoolValue(true),
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("Fill() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, driver.infoMessages)
	assert.Equal(t, []string{"Engineering", "Operations"}, driver.selectConfigs[0].Options)
	assert.Equal(t, 2, driver.selectConfigs[0].PageSize)
	assert.Equal(t, 3, driver.multiConfigs[0].PageSize)
	assert.Equal(t, "Name *", driver.inputConfigs[0].Message)
	assert.Equal(t, "Age", driver.inputConfigs[1].Message)
}

func TestFillReasksUntilValid(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"A", "Ann", "abc", "12", "30", "", "2025-03-01", "2025-03-14"},
		textAreas: []string{""},
		selectIdx: []int{0},
		multiIdx:  [][]int{{}},
		confirm:   []bool{false, true},
	}

	values, err := newTestFiller(driver).Fill(context.Background(), signupSchema())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Name must be at least 2 characters",
		"Age must be a valid number",
		"Age must be at least 18",
		"Start Date is required",
		"Start Date must be today or later",
		"Terms must be accepted",
	}, driver.infoMessages)
	assert.Equal(t, 8, driver.inputPos)
	assert.Equal(t, 2, driver.confirmPos)

	want := dynform.ValueSet{
		"name":  dynform.StringValue("Ann"),
		"age":   dynform.NumberValue(30),
		"team":  dynform.StringValue("eng"),
		"start": dynform.StringValue("2025-03-14"),
		"terms": dynform.BoolValue(true),
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Errorf("Fill() mismatch (-want +got):\n%s", diff)
	}
}

func TestFillOptionalSelectOffersNone(t *testing.T) {
	schema := dynform.MustSchema("Pick", "",
		&dynform.SelectField{
			FieldInfo: dynform.FieldInfo{ID: "color", Label: "Color"},
			Options:   []dynform.Option{{Value: "red", Label: "Red"}},
		},
	)
	driver := &stubDriver{selectIdx: []int{0}}

	values, err := newTestFiller(driver).Fill(context.Background(), schema)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Equal(t, []string{noneOption, "Red"}, driver.selectConfigs[0].Options)
}

func TestFillCapsPageSize(t *testing.T) {
	options := make([]dynform.Option, 14)
	for i := range options {
		options[i] = dynform.Option{Value: fmt.Sprintf("o%d", i), Label: fmt.Sprintf("Option %d", i)}
	}
	schema := dynform.MustSchema("Pick", "",
		&dynform.SelectField{
			FieldInfo: dynform.FieldInfo{ID: "one", Label: "One"},
			Options:   options,
		},
		&dynform.MultiSelectField{
			FieldInfo: dynform.FieldInfo{ID: "many", Label: "Many"},
			Options:   options,
		},
	)
	driver := &stubDriver{selectIdx: []int{3}, multiIdx: [][]int{{0, 13}}}

	values, err := newTestFiller(driver).Fill(context.Background(), schema)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, driver.selectConfigs[0].PageSize)
	assert.Equal(t, maxPageSize, driver.multiConfigs[0].PageSize)
	assert.True(t, dynform.StringValue("o2").Equal(values["one"]))
	assert.True(t, dynform.StringsValue("o0", "o13").Equal(values["many"]))
}

func TestFillUsesDefaults(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ann", "", "2025-04-01"},
		textAreas: []string{"hello"},
		selectIdx: []int{1},
		multiIdx:  [][]int{{2}},
		confirm:   []bool{true},
	}
	defaults := dynform.ValueSet{
		"name":   dynform.StringValue("Ann"),
		"age":    dynform.NumberValue(41),
		"team":   dynform.StringValue("ops"),
		"skills": dynform.StringsValue("sql", "k8s"),
	}

	values, err := newTestFiller(driver, WithDefaults(defaults)).Fill(context.Background(), signupSchema())
	require.NoError(t, err)

	assert.Equal(t, "Ann", driver.inputConfigs[0].Default)
	assert.Equal(t, "41", driver.inputConfigs[1].Default)
	assert.Equal(t, "", driver.inputConfigs[2].Default)
	assert.Equal(t, 1, driver.selectConfigs[0].DefaultIndex)
	assert.Equal(t, []int{1, 2}, driver.multiConfigs[0].Defaults)

	_, hasAge := values["age"]
	assert.False(t, hasAge)
	assert.True(t, dynform.StringValue("hello").Equal(values["bio"]))
	assert.True(t, dynform.StringsValue("k8s").Equal(values["skills"]))
}

func TestFillAborted(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}

	_, err := newTestFiller(driver).Fill(context.Background(), signupSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Contains(t, err.Error(), "field name")
}

func TestFillWithoutFields(t *testing.T) {
	_, err := newTestFiller(&stubDriver{}).Fill(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestNumberAnswer(t *testing.T) {
	assert.Equal(t, dynform.KindAbsent, numberAnswer("  ").Kind())
	assert.True(t, dynform.NumberValue(2.5).Equal(numberAnswer(" 2.5 ")))
	assert.True(t, dynform.StringValue("ten").Equal(numberAnswer("ten")))
}

func TestOptionIndexHelpers(t *testing.T) {
	options := []string{"a", "b", "c"}
	assert.Equal(t, 1, indexOf(options, "b"))
	assert.Equal(t, -1, indexOf(options, "z"))
	assert.Equal(t, []int{0, 2}, indicesOf(options, []string{"c", "a"}))
	assert.Equal(t, []string{"a", "c"}, defaultsFromIndices(options, []int{0, 2, 7, -1}))
}
