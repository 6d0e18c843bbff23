package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"carteira/internal/advisor"
	"carteira/internal/backend"
	"carteira/internal/cli"
	"carteira/internal/log"
	"carteira/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Keep the terminal for command output unless asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	ctx, stop := cli.SignalContext(context.Background(), nil)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open ledger: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		ledger:  res.Ledger,
		session: store.NewSession(cfg.SessionFile),
		locale:  cfg.ReportLocale(),
		loc:     cfg.Location(),
		now:     time.Now,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
	if cfg.AdvisorEnabled() {
		adv, err := advisor.New(ctx, advisor.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			ImageModel: cfg.GeminiImageModel,
			Timeout:    cfg.AdvisorTimeout,
		}, logger)
		if err != nil {
			logger.Warn("Advisor disabled", log.FieldError, err.Error())
		} else {
			a.advisor = adv
		}
	}

	err = a.run(ctx, os.Args[1:])
	if cerr := res.Cleanup(); cerr != nil {
		logger.Error("Backend cleanup failed", log.FieldError, cerr.Error())
	}
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		printUsage()
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("carteira - personal finance ledger")
	fmt.Println("\nUsage:")
	fmt.Println("  carteira-cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  login <user>     Remember the active user")
	fmt.Println("  logout           Forget the active user")
	fmt.Println("  add              Record a transaction (-desc, -amount, -type, -expense, -category, -date)")
	fmt.Println("  smart <text>     Let the advisor read transactions from free text (-audio FILE for a WAV)")
	fmt.Println("  list             List transactions, newest first")
	fmt.Println("  delete <id>      Remove one transaction")
	fmt.Println("  reset            Remove every transaction of the active user")
	fmt.Println("  summary          Monthly report (-year, -month, -locale, -format text|markdown)")
	fmt.Println("  calendar         Monthly spending heatmap (-year, -month)")
	fmt.Println("  chat <message>   Ask the financial advisor")
	fmt.Println("  health           Three-point financial review")
	fmt.Println("  help             Show this help message")
	fmt.Println("\nRun 'carteira-cli <command> -h' for more information on a command.")
}
