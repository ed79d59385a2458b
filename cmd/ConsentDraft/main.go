package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ConsentLoop/ConsentDraft/cmd/ConsentDraft/tui"
	"github.com/ConsentLoop/ConsentDraft/internal/api"
	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/lockfile"
	"github.com/ConsentLoop/ConsentDraft/internal/store"
	"github.com/ConsentLoop/ConsentDraft/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ConsentDraft state data
	DefaultStateDir = "/var/lib/consentdraft"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "consentdraft.db"
	// DefaultAPIAddr is the default API server listen address
	DefaultAPIAddr = ":8080"
	// DefaultOwner is the fallback owner username for the interactive wizard
	DefaultOwner = "@me"
)

func main() {
	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Initialize structured logger. The interactive wizard owns the terminal,
	// so debug output only goes to stdout in server or explicit debug mode.
	initializeLogger(*flags.serve || *flags.debug)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Open the draft store
	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Load the encounter type catalog
	cat, err := loadCatalog(flags)
	if err != nil {
		slog.Error("Failed to load encounter type catalog", "error", err)
		os.Exit(1)
	}

	// Seed the university directory on first run
	if err := seedUniversities(st); err != nil {
		slog.Error("Failed to seed university directory", "error", err)
		os.Exit(1)
	}

	if *flags.serve {
		runServer(flags, st, cat)
		return
	}
	runWizard(flags, st, cat)
}

// runServer starts the HTTP API server and blocks until shutdown.
func runServer(flags Flags, st store.Store, cat *catalog.Catalog) {
	// A single server instance per state directory
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Error("Failed to release state directory lock", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping ConsentDraft API server", "addr", *flags.apiAddr)
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.NewServer(st, cat).Run(ctx, *flags.apiAddr); err != nil {
		slog.Error("ConsentDraft API server failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ConsentDraft exited successfully")
}

// runWizard starts the interactive contract creation wizard.
func runWizard(flags Flags, st store.Store, cat *catalog.Catalog) {
	opts := tui.Options{
		Store:   st,
		Catalog: cat,
		OwnerID: *flags.owner,
		DraftID: *flags.resume,
	}
	if err := tui.Run(context.Background(), opts); err != nil {
		slog.Error("ConsentDraft wizard failed to run", "error", err)
		os.Exit(1)
	}
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	DBDSN       string
	StateDir    string
	APIAddr     string
	CatalogFile string
	Owner       string
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	serve       *bool
	stateDir    *string
	dbDSN       *string
	apiAddr     *string
	catalogFile *string
	owner       *string
	resume      *string
	debug       *bool
}

// initializeLogger sets up structured logging
func initializeLogger(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBDSN:       os.Getenv("CONSENTDRAFT_DB_DSN"),
		StateDir:    os.Getenv("CONSENTDRAFT_STATE_DIR"),
		APIAddr:     util.ParseStringEnv("API_ADDR", DefaultAPIAddr),
		CatalogFile: os.Getenv("CONSENTDRAFT_CATALOG_FILE"),
		Owner:       util.ParseStringEnv("CONSENTDRAFT_OWNER", DefaultOwner),
		Debug:       util.ParseBoolEnv("CONSENTDRAFT_DEBUG", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CONSENTDRAFT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Fall back to DATABASE_URL if no specific DSN is set
	if config.DBDSN == "" {
		config.DBDSN = config.DatabaseURL
		if config.DatabaseURL != "" {
			slog.Debug("Using DATABASE_URL as CONSENTDRAFT_DB_DSN", "dsn_set", true)
		}
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DBDSN == "" {
		config.DBDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DBDSN)
	}

	slog.Debug("environment variables loaded",
		"CONSENTDRAFT_DB_DSN_SET", config.DBDSN != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CONSENTDRAFT_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"CONSENTDRAFT_CATALOG_FILE", config.CatalogFile,
		"CONSENTDRAFT_OWNER", config.Owner)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		serve:       flag.Bool("serve", false, "run the HTTP API server instead of the interactive wizard"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for ConsentDraft data (overrides $CONSENTDRAFT_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DBDSN, "database DSN for the draft store (overrides $CONSENTDRAFT_DB_DSN or $DATABASE_URL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		catalogFile: flag.String("catalog", config.CatalogFile, "path to a YAML encounter type catalog (overrides $CONSENTDRAFT_CATALOG_FILE)"),
		owner:       flag.String("owner", config.Owner, "owner username for the interactive wizard (overrides $CONSENTDRAFT_OWNER)"),
		resume:      flag.String("resume", "", "draft id to resume in the interactive wizard"),
		debug:       flag.Bool("debug", config.Debug, "enable debug logging (overrides $CONSENTDRAFT_DEBUG)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"serve", *flags.serve,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"catalogFile", *flags.catalogFile,
		"owner", *flags.owner,
		"resume", *flags.resume)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DBDSN && config.DBDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		dbDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating directory for file-based database", "dir", dbDir)
		if err := os.MkdirAll(dbDir, store.DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "dir", dbDir)
			return err
		}
	}
	if err := os.MkdirAll(*flags.stateDir, store.DefaultDirPermissions); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
		return err
	}
	return nil
}

// openStore opens the draft store matching the configured DSN
func openStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// loadCatalog loads the encounter type catalog from a file, or the built-in table
func loadCatalog(flags Flags) (*catalog.Catalog, error) {
	if *flags.catalogFile != "" {
		return catalog.LoadFile(*flags.catalogFile)
	}
	return catalog.Default(), nil
}

// seedUniversities fills an empty university directory with the built-in list
func seedUniversities(st store.Store) error {
	existing, err := st.ListUniversities("")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, u := range catalog.SeedUniversities() {
		if err := st.SaveUniversity(u); err != nil {
			return err
		}
	}
	slog.Info("Seeded university directory", "count", len(catalog.SeedUniversities()))
	return nil
}
