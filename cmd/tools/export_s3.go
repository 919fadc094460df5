package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/MaansiBisht/dynamic-form-app/factory"
	"github.com/MaansiBisht/dynamic-form-app/internal"
	"go.uber.org/zap"
)

// uploader is the part of internal.S3Exporter the command needs.
type uploader interface {
	Upload(ctx context.Context, name string, body io.Reader) (string, error)
}

type exportOptions struct {
	configPath string
	bucket     string
	prefix     string
	name       string
	sortBy     string
	sortOrder  string
	search     string
}

func runExportS3(args []string, out io.Writer) error {
	flags := newFlagSet("export-s3", out)
	opts := exportOptions{}
	flags.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file")
	flags.StringVar(&opts.bucket, "bucket", "", "target bucket (overrides config)")
	flags.StringVar(&opts.prefix, "prefix", "", "key prefix (overrides config)")
	flags.StringVar(&opts.name, "name", "", "object name, default submissions_YYYY-MM-DD.csv")
	flags.StringVar(&opts.sortBy, "sort-by", dynform.SortByCreatedAt, "sort key")
	flags.StringVar(&opts.sortOrder, "order", string(dynform.SortOrderDesc), "sort order: asc or desc")
	flags.StringVar(&opts.search, "search", "", "only export submissions matching this term")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	config, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	override(&config.Export.Bucket, opts.bucket)
	override(&config.Export.Prefix, opts.prefix)
	if err := internal.ValidateExportConfig(config.Export); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, err := factory.NewService(ctx, config)
	if err != nil {
		return err
	}
	defer svc.Close()

	exporter, err := internal.NewS3Exporter(ctx, config.Export)
	if err != nil {
		return err
	}

	location, err := exportSubmissions(ctx, svc.Manager, exporter, opts, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported submissions to %s\n", location)
	return nil
}

// exportSubmissions renders the CSV in memory and hands it to up.
func exportSubmissions(ctx context.Context, manager dynform.SubmissionManager, up uploader, opts exportOptions, now time.Time) (string, error) {
	var buf bytes.Buffer
	req := &dynform.QueryRequest{
		SortBy:    opts.sortBy,
		SortOrder: dynform.SortOrder(opts.sortOrder),
		Search:    opts.search,
	}
	if err := manager.Export(ctx, &buf, req); err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}

	name := opts.name
	if name == "" {
		name = internal.ExportFileName(now)
	}
	size := buf.Len()
	location, err := up.Upload(ctx, name, &buf)
	if err != nil {
		return "", err
	}
	zap.S().Infow("export uploaded", "location", location, "bytes", size)
	return location, nil
}
