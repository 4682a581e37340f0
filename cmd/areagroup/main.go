// Package main provides the areagroup command: group CSV user records by
// phone area code and write them as JSON or XML.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"areagroup/internal/config"
	"areagroup/internal/formatter"
	"areagroup/internal/logger"
	"areagroup/internal/pipeline"
)

const (
	exitOK          = 0
	exitConfigError = 1
	exitRunError    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help" || args[0] == "help") {
		printUsage(stdout)
		return exitOK
	}

	log := logger.NewLoggerTo(stderr, config.DefaultLogLevel).WithRunID()

	// 1. Configuration
	cfg, err := config.Load(args)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		printUsage(stderr)

		return exitConfigError
	}

	log.SetLevel(cfg.LogLevel)
	log.Debug("Configuration loaded", "config", cfg.String())

	if cfg.Save != "" {
		if err := cfg.SaveConfig(ctx, cfg.Save); err != nil {
			log.Error("Failed to save configuration", "error", err)
			return exitRunError
		}

		log.Info("Saved configuration", "path", cfg.Save)
	}

	p, err := pipeline.New(cfg, pipeline.LogSink(log), log)
	if err != nil {
		log.Error("Invalid configuration", "error", err)
		return exitConfigError
	}

	log.Debug("Pipeline ready", "output", p.OutputPath())

	// 2. Run
	res, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Interrupted")
		}

		return exitRunError
	}

	log.Info(fmt.Sprintf("Wrote %s as %s to %s", res.Input, res.Format, res.Output))

	// 3. Summary
	fmt.Fprintln(stdout, formatter.GroupSummary(res.Tree))

	if res.Filtered > 0 || res.Duplicates > 0 {
		fmt.Fprintf(stdout, "\n%d row(s) filtered, %d duplicate(s) dropped\n", res.Filtered, res.Duplicates)
	}

	return exitOK
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: areagroup input=<file.csv> [type=json|xml] [output=<path>] [Field=value ...]

Options:
  input=<path>      delimited input file with a header row (required)
  type=json|xml     output format (default json)
  output=<path>     output file (default ./output.json or ./output.xml)
  delimiter=<c>     field delimiter (default ,)
  log=<level>       debug, info, warn or error (default info)
  config=<path>     YAML file with the same options; arguments override it
  save=<path>       write the effective options to a YAML file for config=

Search fields (repeatable, every value must be contained):
  FirstName LastName Gender PhoneNumber ID EyeColor

Example:
  areagroup input=users.csv type=xml LastName=Shmoe FirstName=Joe`)
}
