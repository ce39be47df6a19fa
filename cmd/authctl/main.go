package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"identity/internal/config"
	"identity/internal/database"
)

// options are shared by every subcommand.
type options struct {
	databaseURL string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Operate the identity service database",
		Long:          "authctl runs schema migrations, purges expired tokens and manages administrator accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "database DSN (defaults to DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(opts),
		newCleanupCmd(opts),
		newSeedAdminCmd(opts),
		newSetRoleCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// open loads the configuration and returns a migrated database handle.
func (o *options) open() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate failed: %w", err)
	}
	return cfg, db, nil
}
