package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/client"
	"github.com/MaansiBisht/dynamic-form-app/internal/tui"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultServer = "http://localhost:8080"

// newFlagSet builds a flag set carrying the shared -server flag.
func newFlagSet(name, usage string, server *string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: formcli " + usage)
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}
	flags.StringVar(server, "server", getenvDefault("FORM_API_URL", defaultServer), "base URL of the form API")
	return flags
}

// addTimeZoneFlag registers -time-zone, which must match the server's
// FORM_TIME_ZONE for "today" to resolve to the same day on both sides.
func addTimeZoneFlag(flags *flag.FlagSet, timeZone *string) {
	flags.StringVar(timeZone, "time-zone", getenvDefault("FORM_TIME_ZONE", ""), "IANA time zone date fields are checked in; empty means local")
}

// formValidator builds the validator answers are checked with, resolving
// calendar days in timeZone the way the server does.
func formValidator(timeZone string, opts ...dynform.ValidatorOption) (*dynform.Validator, error) {
	loc, err := dynform.FormConfig{TimeZone: timeZone}.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}
	return dynform.NewValidator(append(opts, dynform.WithLocation(loc))...), nil
}

func parseFlags(flags *flag.FlagSet, args []string) (bool, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func runFill(ctx context.Context, args []string, out io.Writer) error {
	var server, timeZone string
	flags := newFlagSet("fill", "fill [options]", &server)
	addTimeZoneFlag(flags, &timeZone)
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	validator, err := formValidator(timeZone)
	if err != nil {
		return err
	}

	c, err := client.New(server)
	if err != nil {
		return err
	}
	schema, err := c.FormSchema(ctx)
	if err != nil {
		return fmt.Errorf("fetch schema: %w", err)
	}
	fmt.Fprintln(out, schema.Title)
	if schema.Description != "" {
		fmt.Fprintln(out, schema.Description)
	}

	values, err := tui.New(tui.WithValidator(validator)).Fill(ctx, schema)
	if err != nil {
		return err
	}
	res, err := c.Submit(ctx, values)
	if err != nil {
		return describeAPIError(out, err)
	}
	zap.S().Debugw("submission stored", "id", res.ID)
	fmt.Fprintf(out, "Submitted %s at %s\n", res.ID, res.CreatedAt.Format(time.RFC3339))
	return nil
}

func runEdit(ctx context.Context, args []string, out io.Writer) error {
	var server, timeZone string
	flags := newFlagSet("edit", "edit [options] <id>", &server)
	addTimeZoneFlag(flags, &timeZone)
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	id, err := parseID(flags.Arg(0))
	if err != nil {
		return err
	}
	validator, err := formValidator(timeZone)
	if err != nil {
		return err
	}

	c, err := client.New(server)
	if err != nil {
		return err
	}
	schema, err := c.FormSchema(ctx)
	if err != nil {
		return fmt.Errorf("fetch schema: %w", err)
	}
	current, err := c.GetSubmission(ctx, id)
	if err != nil {
		return describeAPIError(out, err)
	}

	values, err := tui.New(tui.WithValidator(validator), tui.WithDefaults(current.Data)).Fill(ctx, schema)
	if err != nil {
		return err
	}
	if _, err := c.UpdateSubmission(ctx, id, values); err != nil {
		return describeAPIError(out, err)
	}
	fmt.Fprintf(out, "Updated %s\n", id)
	return nil
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	var (
		server string
		req    dynform.QueryRequest
		order  string
	)
	flags := newFlagSet("list", "list [options]", &server)
	flags.IntVar(&req.Page, "page", 1, "page number")
	flags.IntVar(&req.Limit, "limit", 10, "page size")
	flags.StringVar(&req.SortBy, "sort-by", dynform.SortByCreatedAt, "sort key: createdAt, updatedAt, id or a field id")
	flags.StringVar(&order, "order", string(dynform.SortOrderDesc), "sort order: asc or desc")
	flags.StringVar(&req.Search, "search", "", "case-insensitive search over field values")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	req.SortOrder = dynform.SortOrder(order)

	c, err := client.New(server)
	if err != nil {
		return err
	}
	result, err := c.ListSubmissions(ctx, &req)
	if err != nil {
		return describeAPIError(out, err)
	}
	return printSubmissions(out, result)
}

func runDelete(ctx context.Context, args []string, out io.Writer) error {
	var server string
	flags := newFlagSet("delete", "delete [options] <id>", &server)
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}
	id, err := parseID(flags.Arg(0))
	if err != nil {
		return err
	}

	c, err := client.New(server)
	if err != nil {
		return err
	}
	if err := c.DeleteSubmission(ctx, id); err != nil {
		return describeAPIError(out, err)
	}
	fmt.Fprintf(out, "Deleted %s\n", id)
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dynform.NewInvalidIDError(raw, errors.New("submission id is required"))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dynform.NewInvalidIDError(raw, err)
	}
	return id, nil
}

// describeAPIError prints per-field messages of a rejected submission before
// returning the error.
func describeAPIError(out io.Writer, err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return err
	}
	ids := make([]string, 0, len(apiErr.Errors))
	for id := range apiErr.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintln(out, "The server rejected the submission:")
	for _, id := range ids {
		fmt.Fprintf(out, "  %s: %s\n", id, apiErr.Errors[id])
	}
	return err
}

func printSubmissions(out io.Writer, result *dynform.QueryResult) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tUPDATED\tDATA")
	for _, sub := range result.Data {
		updated := "-"
		if sub.UpdatedAt != nil {
			updated = sub.UpdatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sub.ID, sub.CreatedAt.UTC().Format(time.RFC3339), updated, summarize(sub.Data))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := result.Pagination
	_, err := fmt.Fprintf(out, "page %d of %d (%d total)\n", p.Page, p.TotalPages, p.Total)
	return err
}

func summarize(values dynform.ValueSet) string {
	ids := make([]string, 0, len(values))
	for id, v := range values {
		if !v.IsNil() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id + "=" + values[id].String()
	}
	return strings.Join(parts, " ")
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
