package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init-db":
		if err := runInitDB(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	case "check-db":
		if err := runCheckDB(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("check-db: %v", err)
		}
	case "export-s3":
		if err := runExportS3(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("export-s3: %v", err)
		}
	case "jsonschema":
		if err := runJSONSchema(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("jsonschema: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: form-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  init-db      Create the PostgreSQL submissions table and indexes")
	logger.Info("  check-db     Verify the PostgreSQL connection")
	logger.Info("  export-s3    Export submissions as CSV to an S3 bucket")
	logger.Info("  jsonschema   Print the JSON Schema of a form schema, or check values against it")
}
