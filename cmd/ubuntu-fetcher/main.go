// Package main provides the CLI entry point for ubuntu-fetcher.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/monolythium/ubuntu-fetcher/internal/core"
	"github.com/monolythium/ubuntu-fetcher/internal/logs"
	"github.com/monolythium/ubuntu-fetcher/internal/net"
	"github.com/monolythium/ubuntu-fetcher/internal/tui"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Version is set at build time via ldflags
var Version = "dev"

// errFetchFailed signals a failed attempt whose details were already printed.
var errFetchFailed = errors.New("fetch failed")

var (
	// Global flags
	directory  string
	timeout    time.Duration
	jsonOutput bool
	verbose    bool
	logFile    string
	logFormat  string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "ubuntu-fetcher",
		Short: "Ubuntu Image Fetcher - mindfully collect images from the web",
		Long: `Ubuntu Image Fetcher downloads images over HTTP(S), checks that they
really are images and saves them under a safe, unique filename.

Start the interactive session:
  ubuntu-fetcher

Or fetch a single image:
  ubuntu-fetcher fetch https://example.com/image.jpg
  ubuntu-fetcher fetch --json --dir ./pics https://example.com/image.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch one image and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ubuntu-fetcher %s\n", Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&directory, "dir", core.DefaultDirectory, "Directory to save images into")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", core.DefaultTimeout, "Connect and response header timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if errors.Is(err, errFetchFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the logger for a command. fallback is used when no log
// file was requested.
func newLogger(fallback string) (*zap.Logger, error) {
	output := fallback
	if logFile != "" {
		output = logFile
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logs.New(logs.Options{Level: level, Format: logFormat, Output: output})
}

func newImageFetcher(logger *zap.Logger) *core.ImageFetcher {
	return core.NewImageFetcher(net.NewHTTPFetcher(timeout, logger), core.ImageFetcherOptions{
		Logger: logger,
	})
}

func runInteractive(cmd *cobra.Command, args []string) error {
	// Terminal output belongs to the session; logs go to --log-file only.
	logger, err := newLogger(logs.OutputDiscard)
	if err != nil {
		return err
	}
	defer logger.Sync()

	f := newImageFetcher(logger)
	ctx := cmd.Context()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return tui.Run(ctx, f, directory, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	s := &tui.LineSession{
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		Fetcher:   f,
		Directory: directory,
	}
	farewell, err := s.Run(ctx)
	logger.Debug("session ended", zap.Int("farewell", int(farewell)), zap.Int("fetched", s.Fetched()))
	return err
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logs.OutputStderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	var progress core.ProgressFunc
	if verbose && !jsonOutput {
		progress = func(step, message string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "... %s\n", message)
		}
	}

	result := newImageFetcher(logger).Fetch(cmd.Context(), core.DownloadRequest{
		URL:       args[0],
		Directory: directory,
	}, progress)

	if jsonOutput {
		if err := printJSON(out, result); err != nil {
			return err
		}
	} else {
		printResult(out, result)
	}

	if !result.Success {
		return errFetchFailed
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to encode result")
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func printResult(out io.Writer, result *core.FetchResult) {
	fmt.Fprintf(out, "Fetch: %s\n\n", result.URL)

	for _, step := range result.Steps {
		status := "[ ]"
		switch step.Status {
		case core.StepSuccess:
			status = "[+]"
		case core.StepFailed:
			status = "[X]"
		}
		msg := step.Name
		if step.Message != "" {
			msg += ": " + step.Message
		}
		fmt.Fprintf(out, "%s %s\n", status, msg)
	}
	fmt.Fprintln(out)

	if !result.Success {
		fmt.Fprintf(out, "Fetch failed: %s\n", result.Error)
		return
	}
	if result.LargeFile {
		fmt.Fprintln(out, "Note: large file (over 50 MiB)")
	}
	fmt.Fprintf(out, "Saved %s (%s)\n", result.Path, humanize.IBytes(uint64(result.Bytes)))
}
