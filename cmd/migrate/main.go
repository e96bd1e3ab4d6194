// Command migrate applies and authors the shop's SQL migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/bignstrong/RailGuard/internal/infrastructure/config"
	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/bignstrong/RailGuard/internal/infrastructure/migration"
	"github.com/bignstrong/RailGuard/migrations"
	"go.uber.org/zap"
)

const usage = `Usage: migrate [-path dir] [-log-level level] <command> [args]

Database commands (connection from config.toml or SHOP_DATABASE_URL / DATABASE_URL):
  up                    apply all pending migrations
  down                  roll back every migration
  step <n>              move n migrations, negative n rolls back
  goto <version>        migrate up or down to version
  version               print the applied version
  force <version>       mark version as applied without running it

Local commands:
  create <name> [desc]  write a new up/down file pair
  list                  list migrations in the source

Without -path the migrations compiled into the binary are used; create
writes to ./migrations.
`

// dbCommand runs against an open migrator with the remaining arguments.
type dbCommand struct {
	args int
	run  func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var dbCommands = map[string]dbCommand{
	"up":   {run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"step": {args: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("step count %q: %w", args[0], err)
		}
		return m.Steps(n)
	}},
	"goto": {args: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("version %q: %w", args[0], err)
		}
		return m.GoTo(uint(v))
	}},
	"force": {args: 1, run: func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version %q: %w", args[0], err)
		}
		return m.Force(v)
	}},
	"version": {run: func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
}

func main() {
	dir := flag.String("path", "", "migrations directory (default: embedded)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stderr", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(args[0], args[1:], *dir, log); err != nil {
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(command string, args []string, dir string, log *zap.Logger) error {
	var source fs.FS = migrations.FS
	if dir != "" {
		source = os.DirFS(dir)
	}

	switch command {
	case "create":
		return create(dir, args, log)
	case "list":
		return list(source)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if len(args) < cmd.args {
		return fmt.Errorf("%s needs %d argument(s)", command, cmd.args)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := migration.NewFromURL(cfg.Database.DSN(), source, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Closing migrator", zap.Error(err))
		}
	}()
	return cmd.run(m, args, log)
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return errors.New("create needs a migration name")
	}
	if dir == "" {
		dir = "migrations"
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	f, err := migration.Create(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", f.Version),
		zap.String("up", f.UpPath),
		zap.String("down", f.DownPath),
	)
	return nil
}

func list(source fs.FS) error {
	names, err := migration.List(source)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
