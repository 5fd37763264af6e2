package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/icflow/internal/app"
	"github.com/vk/icflow/internal/cli"
)

// main is the entrypoint for the icflow binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) (err error) {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to
	// provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked | %v", r)
		}
	}()

	flowApp := app.NewApp(outW, inv.Config)
	ctx := context.Background()

	if inv.Eval != "" {
		client, err := flowApp.DialDatabase(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		data, err := client.Eval(ctx, inv.Eval)
		if err != nil {
			return err
		}
		fmt.Fprintln(outW, string(data))
		return nil
	}

	results, err := flowApp.Run(ctx, inv.Requests)
	if err != nil {
		return err
	}
	if !flowApp.Summarize(results) {
		return &cli.ExitError{Code: 1, Message: "one or more jobs did not complete cleanly"}
	}
	return nil
}
