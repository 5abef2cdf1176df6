// Command trajectory ingests a GeoLife dataset tree and runs the
// analytic report over the stored trajectories.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/trajectory.report/internal/config"
	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/ingest"
	"github.com/banshee-data/trajectory.report/internal/pgstore"
	"github.com/banshee-data/trajectory.report/internal/query"
	"github.com/banshee-data/trajectory.report/internal/report"
	"github.com/banshee-data/trajectory.report/internal/store"
	"github.com/banshee-data/trajectory.report/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "ingest":
		handleIngest(args)
	case "report":
		handleReport(args)
	case "stats":
		handleStats(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Printf("trajectory version %s (%s, built %s)\n",
			version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`trajectory - GeoLife trajectory ingestion and analytics

Usage: trajectory <command> [options]

Commands:
  ingest     Load a GeoLife dataset directory into the store
  report     Run the query battery and write the text report and charts
  stats      Print store totals
  migrate    Apply or roll back the SQLite schema migrations
  version    Show trajectory version
  help       Show this help message

Common Flags:
  --config <file>   JSON configuration file; defaults apply when omitted
  --data <dir>      Dataset root, overrides the configured data_dir (ingest)

The storage backend is selected by the config driver field: "sqlite"
(default, db_path) or "postgres" (postgres_dsn).`)
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openStore connects the configured backend. Storage connectivity is a
// hard requirement for every command, so failure is fatal.
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	switch cfg.Driver {
	case "postgres":
		st, err := pgstore.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		return st
	default:
		st, err := db.NewDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database %s: %v", cfg.DBPath, err)
		}
		return st
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func handleIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "JSON configuration file")
	dataDir := fs.String("data", "", "dataset root, overrides the configured data_dir")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	ctx, stop := signalContext()
	defer stop()

	st := openStore(ctx, cfg)
	defer st.Close()

	summary, err := ingest.New(cfg, st).Run(ctx)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}
	fmt.Printf("ingested: %s\n", summary)
}

func handleReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "JSON configuration file")
	outDir := fs.String("out", "", "report directory, overrides the configured report_dir")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *outDir != "" {
		cfg.ReportDir = *outDir
	}

	ctx, stop := signalContext()
	defer stop()

	st := openStore(ctx, cfg)
	defer st.Close()

	res, err := query.New(cfg, st).Run(ctx)
	if err != nil {
		log.Fatalf("query battery failed: %v", err)
	}

	path, err := report.New(cfg, st).Generate(ctx, res)
	if err != nil {
		log.Fatalf("report generation failed: %v", err)
	}
	fmt.Printf("report written to %s\n", path)
}

func handleStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "JSON configuration file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	ctx, stop := signalContext()
	defer stop()

	st := openStore(ctx, cfg)
	defer st.Close()

	counts, err := st.Counts(ctx)
	if err != nil {
		log.Fatalf("failed to read counts: %v", err)
	}
	fmt.Printf("users: %d\nactivities: %d\ntrackpoints: %d\n",
		counts.Users, counts.Activities, counts.TrackPoints)
}

func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "JSON configuration file")
	direction := fs.String("direction", "up", "up, down or version")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if cfg.Driver != "sqlite" {
		log.Fatalf("migrate applies to the sqlite driver; postgres manages its schema on connect")
	}

	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", cfg.DBPath, err)
	}
	defer database.Close()

	switch *direction {
	case "up":
		// NewDB already migrates up; re-running is a no-op.
		if err := database.MigrateUp(); err != nil {
			log.Fatalf("migrate up failed: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			log.Fatalf("migrate down failed: %v", err)
		}
		fmt.Println("migrations rolled back")
	case "version":
		v, dirty, err := database.MigrateVersion()
		if err != nil {
			log.Fatalf("failed to read migration version: %v", err)
		}
		fmt.Printf("version: %d dirty: %t\n", v, dirty)
	default:
		log.Fatalf("unknown migrate direction %q", *direction)
	}
}
