package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/italogmoura/ControleGastosDomesticos/internal/api"
	"github.com/italogmoura/ControleGastosDomesticos/internal/categorizer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/config"
	"github.com/italogmoura/ControleGastosDomesticos/internal/importer"
	"github.com/italogmoura/ControleGastosDomesticos/internal/ledger"
	"github.com/italogmoura/ControleGastosDomesticos/internal/logger"
	"github.com/italogmoura/ControleGastosDomesticos/internal/normalize"
	"github.com/italogmoura/ControleGastosDomesticos/internal/rules"
	"github.com/italogmoura/ControleGastosDomesticos/internal/store"
	"github.com/italogmoura/ControleGastosDomesticos/internal/writer"
)

const version = "1.0.0"

func main() {
	// CLI flags
	configFlag := flag.String("config", "", "Config file (defaults to ./cgd.yaml when present)")
	rulesFlag := flag.String("rules", "", "Rules store path (overrides rules.path)")
	outputFlag := flag.String("output", "transacoes.csv", "Output CSV file path for import; - writes to stdout")
	serveFlag := flag.Bool("serve", false, "Start the HTTP API instead of running a command")
	debugFlag := flag.Bool("debug", false, "Log reconstructed lines and debug output")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Controle de Gastos Domésticos
Imports credit-card statements (PDF or JSON), categorizes every charge and
learns how recurring charges are split between two people.

Usage:
  controle-gastos [flags] import <fatura.pdf|fatura.json> [...]
  controle-gastos [flags] export-rules [regras-export.json]
  controle-gastos [flags] import-rules <regras.json>
  controle-gastos [flags] reset-rules
  controle-gastos [flags] -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Import two statements into a CSV
  controle-gastos import nubank-julho.pdf itau-julho.pdf

  # Use a SQLite rule store
  CGD_RULES_DRIVER=sqlite controle-gastos -rules regras.db import fatura.json

  # Serve the API on :8080
  controle-gastos -serve

Supported issuers:
  Nubank, Itaú, Amazon, Rico (others use the generic parser)
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("controle-gastos v%s\n", version)
		os.Exit(0)
	}
	if *helpFlag || (flag.NArg() == 0 && !*serveFlag) {
		flag.Usage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatalf("Config error: %v\n", err)
	}
	if *rulesFlag != "" {
		cfg.Rules.Path = *rulesFlag
	}
	if *debugFlag {
		cfg.Log.Level = "debug"
	}
	log := logger.Build(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	app, err := newApp(ctx, cfg, log, *debugFlag)
	if err != nil {
		fatalf("Startup failed: %v\n", err)
	}

	if *serveFlag {
		err = app.serve(ctx)
	} else {
		err = app.run(ctx, flag.Arg(0), flag.Args()[1:], *outputFlag)
	}
	if cerr := app.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fatalf("Error: %v\n", err)
	}
}

// application is the wired pipeline shared by the CLI commands and the API.
type application struct {
	cfg        *config.Config
	log        zerolog.Logger
	engine     *rules.Engine
	coll       *ledger.Collection
	importer   *importer.Importer
	closeStore func() error
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, debug bool) (*application, error) {
	cat := categorizer.New()
	if cfg.Categories.File != "" {
		if err := cat.LoadFile(cfg.Categories.File); err != nil {
			return nil, err
		}
	}

	st, closeStore, err := store.Open(cfg.Rules.Driver, cfg.Rules.Path)
	if err != nil {
		return nil, err
	}
	engine := rules.NewEngine(
		rules.WithStore(st),
		rules.WithDebounce(cfg.Rules.Debounce),
		rules.WithLogger(log),
	)
	if err := engine.Load(ctx); err != nil {
		closeStore()
		return nil, err
	}
	log.Debug().Str("driver", cfg.Rules.Driver).Str("path", cfg.Rules.Path).Int("rules", engine.Len()).Msg("Rules loaded")

	coll := ledger.NewCollection()
	return &application{
		cfg:    cfg,
		log:    log,
		engine: engine,
		coll:   coll,
		importer: importer.New(cat, coll, engine, importer.Options{
			RowTolerance: cfg.Layout.RowTolerance,
			Debug:        debug,
		}),
		closeStore: closeStore,
	}, nil
}

func (a *application) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.engine.Close(ctx)
	if cerr := a.closeStore(); err == nil {
		err = cerr
	}
	return err
}

func (a *application) run(ctx context.Context, cmd string, args []string, output string) error {
	switch cmd {
	case "import":
		return a.importFiles(ctx, args, output)
	case "export-rules":
		return a.exportRules(args)
	case "import-rules":
		return a.importRules(args)
	case "reset-rules":
		a.engine.Reset()
		fmt.Println("All learned rules removed.")
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *application) importFiles(ctx context.Context, paths []string, output string) error {
	if len(paths) == 0 {
		return errors.New("import needs at least one statement file")
	}

	res := a.importer.ImportPaths(ctx, paths)
	for _, f := range res.Files {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", f.Name)
		if f.Failed() {
			fmt.Fprintf(os.Stderr, "  Error [%s]: %s\n", f.Code, f.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "  Issuer: %s (%s)\n", f.Issuer, f.Kind)
		if f.Pages > 0 {
			fmt.Fprintf(os.Stderr, "  Extracted text from %d page(s)\n", f.Pages)
		}
		fmt.Fprintf(os.Stderr, "  Found %d transaction(s)\n", f.Transactions)
		if f.Skipped > 0 {
			fmt.Fprintf(os.Stderr, "  Skipped %d malformed entr(ies)\n", f.Skipped)
		}
		if f.Transactions == 0 {
			fmt.Fprintln(os.Stderr, "  Warning: No transactions found. The layout may not match any known pattern.")
		}
		for _, l := range f.Lines {
			a.log.Debug().Str("file", f.Name).Msg(l)
		}
	}
	if res.Failures() == len(res.Files) {
		return errors.New("no file could be imported")
	}

	txns := a.coll.All()
	w := &writer.CSVWriter{IncludeHeader: true}
	if output == "-" {
		if err := w.Write(os.Stdout, txns); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
	} else {
		if err := w.WriteToFile(output, txns); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output: %s (%d transaction(s))\n", output, len(txns))
	}

	s := ledger.Summarize(txns, a.cfg.Split.Ratio)
	fmt.Fprintf(os.Stderr, "Geral: %s  Exclusivas: %s  Usuário: %s  Esposa: %s\n",
		normalize.FormatValue(s.Shared), normalize.FormatValue(s.Exclusive),
		normalize.FormatValue(s.First), normalize.FormatValue(s.Second))
	return nil
}

func (a *application) exportRules(args []string) error {
	data, err := a.engine.Export()
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", args[0], err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d rule(s) to %s\n", a.engine.Len(), args[0])
	return nil
}

func (a *application) importRules(args []string) error {
	if len(args) != 1 {
		return errors.New("import-rules needs exactly one file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", args[0], err)
	}
	report, err := a.engine.Import(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %d rule(s), %d migrated from the legacy format, %d skipped\n",
		report.Rules, report.Migrated, report.Skipped)
	return nil
}

func (a *application) serve(ctx context.Context) error {
	app := api.NewApp(&api.Handler{
		Importer: a.importer,
		Ledger:   a.coll,
		Rules:    a.engine,
		Ratio:    a.cfg.Split.Ratio,
		Log:      a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Server.Addr).Msg("Server starting")
		errCh <- app.Listen(a.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
