package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/JustJay7/chamber-desk/internal/auth"
	"github.com/JustJay7/chamber-desk/internal/backup"
	"github.com/JustJay7/chamber-desk/internal/database"
	"github.com/JustJay7/chamber-desk/internal/server"
	"github.com/JustJay7/chamber-desk/internal/statutes"
	"github.com/spf13/cobra"
)

var bnsReverse bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP server",
	RunE:  runServer,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE:  runMigrate,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write the CSV case backup once and exit",
	RunE:  runBackup,
}

// hashKeyCmd prints the value for ACCESS_KEY_HASH
var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [access-key]",
	Short: "Print the bcrypt hash of an access key",
	Long: `Print the bcrypt hash of an access key for ACCESS_KEY_HASH.

The key is read from the first argument, or from the first line of stdin
when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashKey,
}

var bnsCmd = &cobra.Command{
	Use:   "bns <section>",
	Short: "Look up the BNS section replacing an IPC section",
	Args:  cobra.ExactArgs(1),
	RunE:  runBNS,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		return err
	}

	srv, err := server.New(cfg, db, log)
	if err != nil {
		log.Error("Failed to build server", "error", err)
		return err
	}

	log.Info("Starting Chamber Desk",
		"host", cfg.Host,
		"port", cfg.Port,
		"chamber", cfg.ChamberName,
	)

	return srv.Run()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		return err
	}
	log.Info("Database migrations completed successfully", "path", cfg.DatabasePath)
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		return err
	}

	writer := backup.NewWriter(db, cfg.BackupPath, log)
	n, err := writer.WriteCases(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cases to %s\n", n, writer.Path())
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read access key: %w", err)
		}
		key = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashKey(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runBNS(cmd *cobra.Command, args []string) error {
	table := statutes.Default()
	lookup, from, to := table.LookupIPC, "IPC", "BNS"
	if bnsReverse {
		lookup, from, to = table.LookupBNS, "BNS", "IPC"
	}

	m, found := lookup(args[0])
	if !found {
		return fmt.Errorf("no mapping for %s section %s", from, statutes.NormalizeSection(args[0]))
	}

	target := m.BNS
	if bnsReverse {
		target = m.IPC
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s %s) -> %s %s\n", m.Offence, from, statutes.NormalizeSection(args[0]), to, target)
	return nil
}
