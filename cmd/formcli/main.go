package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/MaansiBisht/dynamic-form-app/internal/tui"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var runErr error
	switch os.Args[1] {
	case "fill":
		runErr = runFill(ctx, os.Args[2:], os.Stdout)
	case "edit":
		runErr = runEdit(ctx, os.Args[2:], os.Stdout)
	case "list":
		runErr = runList(ctx, os.Args[2:], os.Stdout)
	case "delete":
		runErr = runDelete(ctx, os.Args[2:], os.Stdout)
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if errors.Is(runErr, tui.ErrAborted) {
		sugar.Info("aborted")
		os.Exit(130)
	}
	if runErr != nil {
		sugar.Fatalf("%s: %v", os.Args[1], runErr)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: formcli <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  fill     Fill the form interactively and submit it")
	logger.Info("  edit     Edit a stored submission interactively")
	logger.Info("  list     Print a page of submissions")
	logger.Info("  delete   Delete a submission")
}
