// Command radindex turns EUROCONTROL RAD workbooks into normalized JSON and
// serves, searches and validates the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"radindex/internal/config"
	"radindex/internal/listener"
	"radindex/internal/logging"
	"radindex/internal/pipeline"
	"radindex/internal/schema"
	"radindex/internal/search"
	"radindex/internal/server"
	"radindex/internal/source"
	"radindex/internal/storage"
)

var (
	cfg       config.Config
	logLevel  string
	logFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "radindex",
		Short:         "Normalize RAD workbooks into searchable JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text|json (default LOG_FORMAT)")

	rootCmd.AddCommand(
		parseCmd(),
		validateCmd(),
		downloadCmd(),
		searchCmd(),
		exportCmd(),
		serveCmd(),
		watchCmd(),
		historyCmd(),
		diagnoseCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parseCmd() *cobra.Command {
	var (
		indent   int
		noLedger bool
	)
	cmd := &cobra.Command{
		Use:   "parse <input.xlsx> <output.json>",
		Short: "Transform a RAD workbook into the JSON document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("indent") {
				cfg.JSONIndent = max(indent, 0)
			}
			ctx, cancel := signalContext()
			defer cancel()

			var report pipeline.Report
			var total int
			if noLedger {
				t, err := pipeline.NewTransformerFromConfig(cfg)
				if err != nil {
					return err
				}
				doc, rep, err := pipeline.ParseFile(ctx, t, args[0], args[1], cfg.JSONIndent)
				if err != nil {
					return err
				}
				report, total = rep, doc.Stats.TotalEntries
			} else {
				db, err := storage.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				svc, err := pipeline.NewProcessingService(db, cfg)
				if err != nil {
					return err
				}
				res, err := svc.ProcessFile(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				report, total = res.Report, res.Document.Stats.TotalEntries
			}

			for _, cr := range report.Categories {
				fmt.Printf("%-20s %6d\n", cr.Key, cr.Records)
			}
			fmt.Printf("%-20s %6d\n", "total", total)
			for _, w := range report.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			fmt.Printf("wrote %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().IntVar(&indent, "indent", 2, "JSON indent (0 = compact)")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record the run in the ledger")
	return cmd
}

func validateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Check the structure and counts of an emitted document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rep := pipeline.Validate(blob)

			if asJSON {
				if err := printJSON(rep); err != nil {
					return err
				}
			} else {
				for _, c := range rep.Checks {
					if c.Passed {
						fmt.Printf("ok    %s\n", c.Name)
					} else {
						fmt.Printf("FAIL  %s: expected %s, got %s\n", c.Name, c.Expected, c.Actual)
					}
				}
				for _, w := range rep.Warnings {
					fmt.Printf("warn  %s\n", w)
				}
				fmt.Printf("cycle=%s entries=%d size=%.1fKB\n", rep.Cycle, rep.TotalEntries, float64(rep.SizeBytes)/1024)
			}
			if !rep.Valid {
				return errors.New("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func downloadCmd() *cobra.Command {
	var (
		outputDir string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the current and next-cycle RAD workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir != "" {
				cfg.RawDir = outputDir
			}
			if err := cfg.Require("RAD_BASE_URL", cfg.RADBaseURL); err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := signalContext()
			defer cancel()
			meta, err := source.NewDownloadService(db, cfg).DownloadAll(ctx, force)
			if err != nil {
				return err
			}
			for _, kind := range []string{"current", "future"} {
				f := meta.Files[kind]
				if f == nil {
					fmt.Printf("%-8s not downloaded\n", kind)
					continue
				}
				fmt.Printf("%-8s cycle=%s version=%s size=%.2fMB %s\n", kind, f.Cycle, f.Version, f.SizeMB, f.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "destination directory (default RAD_RAW_DIR)")
	cmd.Flags().BoolVar(&force, "force", false, "download even when the ledger already has the file")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		opts    search.Options
		byError bool
		byID    bool
	)
	cmd := &cobra.Command{
		Use:   "search <file.json> <query>",
		Short: "Search rules in an emitted document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pipeline.ReadDocument(args[0])
			if err != nil {
				return err
			}
			idx := search.BuildIndex(doc)
			query := strings.Join(args[1:], " ")

			switch {
			case byID:
				return printJSON(idx.ByReference(query))
			case byError:
				info, results := idx.ByError(query)
				return printJSON(map[string]any{"parsed": info, "results": results})
			default:
				opts.Annex = strings.ToUpper(opts.Annex)
				return printJSON(idx.Search(query, opts))
			}
		},
	}
	cmd.Flags().StringVar(&opts.Annex, "annex", "", "only this annex (1, 2A, 2B, 2C, 3A, 3B)")
	cmd.Flags().StringVar(&opts.NasFab, "nas-fab", "", "only rules whose NAS/FAB contains this value")
	cmd.Flags().StringVar(&opts.ChangeStatus, "status", "", "only this change indicator")
	cmd.Flags().IntVar(&opts.Limit, "limit", search.DefaultLimit, "maximum results")
	cmd.Flags().BoolVar(&byError, "error", false, "treat the query as a flight plan rejection message")
	cmd.Flags().BoolVar(&byID, "id", false, "look up a rule id or [REFERENCE]")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.json> <out.xlsx>",
		Short: "Write an emitted document back to a workbook, one sheet per category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pipeline.ReadDocument(args[0])
			if err != nil {
				return err
			}
			if err := pipeline.ExportDocumentToXLSX(doc, args[1]); err != nil {
				return err
			}
			fmt.Printf("exported %d entries to %s\n", doc.Stats.TotalEntries, args[1])
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [file.json]",
		Short: "Serve the search API over an emitted document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(cfg.OutputDir, pipeline.CurrentOutput)
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := pipeline.ReadDocument(path)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ServerAddr
			}

			ctx, cancel := signalContext()
			defer cancel()

			srv := server.New(doc)
			if watch {
				db, err := storage.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				w, err := listener.NewService(db, cfg)
				if err != nil {
					return err
				}
				w.OnPublish = srv.Reload
				go func() { _ = w.Run(ctx) }()
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()
			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
				defer done()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SERVER_ADDR)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also run the download/parse loop and reload on new revisions")
	return cmd
}

func watchCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically download new revisions and rebuild their JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Require("RAD_BASE_URL", cfg.RADBaseURL); err != nil {
				return err
			}
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			w, err := listener.NewService(db, cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			if once {
				return w.RunCycle(ctx)
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List downloaded revisions and recent parse runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			revs, err := db.ListRevisions()
			if err != nil {
				return err
			}
			fmt.Println("revisions:")
			for _, r := range revs {
				effective := "-"
				if r.EffectiveDate != nil {
					effective = *r.EffectiveDate
				}
				fmt.Printf("  %-8s %s v%-6s effective=%s %s\n", r.Kind, r.Cycle, r.Version, effective, r.Filename)
			}

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			fmt.Println("runs:")
			for _, r := range runs {
				line := fmt.Sprintf("  %s %-6s %s entries=%d %dms", r.CreatedAt, r.Status, r.Filename, r.TotalEntries, r.DurationMs)
				if r.Error != "" {
					line += " error=" + r.Error
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show (0 = all)")
	return cmd
}

func diagnoseCmd() *cobra.Command {
	var (
		sheet  string
		find   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose <input.xlsx> <category|sheet>",
		Short: "Show how a category sheet maps onto its schema",
		Long:  "The second argument is a category key or the sheet name it is read from. Categories: " + strings.Join(schema.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := config.LoadSheetNames(cfg.SheetsFile)
			if err != nil {
				return err
			}
			names, err := schema.DefaultSheetNames().WithOverrides(overrides)
			if err != nil {
				return err
			}
			c, ok := categoryFor(args[1], names)
			if !ok {
				return fmt.Errorf("unknown category or sheet %q (categories: %s)", args[1], strings.Join(schema.Keys(), ", "))
			}
			if sheet == "" {
				sheet = names[c]
			}

			d, err := pipeline.Diagnose(args[0], c, sheet, find)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(d)
			}
			fmt.Print(d.Summary())
			for _, m := range d.Matches {
				fmt.Printf("  line %d: %v\n", m.Line, m.Values)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name override")
	cmd.Flags().StringVar(&find, "find", "", "print rows whose id contains this value")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diagnosis as JSON")
	return cmd
}

// categoryFor accepts a category key or a configured sheet name.
func categoryFor(arg string, names schema.SheetNames) (schema.Category, bool) {
	if c, ok := schema.ByKey(arg); ok {
		return c, true
	}
	for _, c := range schema.Categories {
		if strings.EqualFold(strings.TrimSpace(names[c]), strings.TrimSpace(arg)) {
			return c, true
		}
	}
	return 0, false
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
