// Command ravend is the background mail sync daemon: it reads account
// configuration, mirrors IMAP state into a local SQLite database, and
// exposes the mirror and the actions that mutate it over D-Bus.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/ravend/ravend/internal/action"
	"github.com/ravend/ravend/internal/bus"
	"github.com/ravend/ravend/internal/config"
	"github.com/ravend/ravend/internal/database"
	"github.com/ravend/ravend/internal/logging"
	"github.com/ravend/ravend/internal/oauth2"
	"github.com/ravend/ravend/internal/secret"
	"github.com/ravend/ravend/internal/store"
	"github.com/ravend/ravend/internal/supervisor"
	"github.com/ravend/ravend/internal/syncengine"
	"github.com/ravend/ravend/internal/thread"
)

var (
	debugMode = flag.Bool("debug", false, "enable debug-level logging")
	logJSON   = flag.Bool("log-json", false, "emit newline-delimited JSON logs instead of a console writer")
)

func debugEnabled() bool {
	return *debugMode || os.Getenv("RAVEND_DEBUG") == "1"
}

func main() {
	flag.Parse()

	level := "info"
	if debugEnabled() {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Console: !*logJSON})
	log := logging.WithComponent("main")

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("ravend exited with error")
	}
}

// dataDir and configDir mirror the original daemon's dirs::data_dir()/
// config_dir() resolution (XDG_DATA_HOME / XDG_CONFIG_HOME with the
// platform-appropriate fallback), joined with the daemon's own subdirectory.
func dataDir() string {
	return filepath.Join(xdg.DataHome, "ravend")
}

func configDir() string {
	return filepath.Join(xdg.ConfigHome, "ravend")
}

func run() error {
	log := logging.WithComponent("main")
	log.Info().Msg("starting ravend")

	dataDir := dataDir()
	configDir := configDir()
	filesDir := filepath.Join(dataDir, "files")

	for _, dir := range []string{dataDir, configDir, filesDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	log.Info().Str("dataDir", dataDir).Str("configDir", configDir).Msg("resolved directories")

	dbPath := filepath.Join(dataDir, "raven.sqlite")
	db, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info().Msg("database ready")

	st := store.New(db)
	threader := thread.New(st)
	accounts := config.NewSource(configDir)
	secrets := secret.New()
	refresher := oauth2.NewRefresher()

	// engine and executor are built before the notifier (the D-Bus
	// service) exists, since the service in turn depends on the executor
	// and the supervisor. SetNotifier wires the D-Bus service in once it
	// is constructed below.
	engine := syncengine.New(st, threader, filesDir, nil)
	sup := supervisor.New(accounts, st, engine, secrets, refresher)
	executor := action.New(st, accounts, secrets, refresher, nil)

	svc := bus.New(accounts, st, executor, sup, secrets, filesDir)
	engine.SetNotifier(svc)
	executor.SetNotifier(svc)

	// The D-Bus service is started before the first account load so that
	// TableChanged/MessagesChanged signals have somewhere to go as soon
	// as the first sync worker starts producing them.
	if err := svc.Start(); err != nil {
		if errors.Is(err, bus.ErrAnotherInstanceRunning) {
			return errors.New("another instance of ravend is already running")
		}
		return fmt.Errorf("starting D-Bus service: %w", err)
	}
	defer svc.Close()
	log.Info().Msg("D-Bus service registered")

	log.Info().Msg("loading initial accounts")
	if err := sup.ReloadAccounts(); err != nil {
		log.Error().Err(err).Msg("initial account load failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("entering main loop")
	<-sigCh
	log.Info().Msg("shutdown signal received")
	sup.Shutdown()
	return nil
}
