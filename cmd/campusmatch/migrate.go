package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusmatch/campusmatch/pkg/state"
)

var migrateFlags struct {
	purge bool
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite answer database",
		Long: `Apply pending migrations to the SQLite database at --db.

With --purge, rows whose TTL has passed are deleted as well.`,
		RunE: runMigrate,
	}
	cmd.Flags().BoolVar(&migrateFlags.purge, "purge", false, "Delete expired answers")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := state.OpenSQLite(ctx, cfg.Store.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is at schema version %d\n", cfg.Store.SQLite.Path, store.SchemaVersion())
	if migrateFlags.purge {
		n, err := store.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purging: %w", err)
		}
		fmt.Fprintf(out, "Purged %d expired rows\n", n)
	}
	return nil
}
