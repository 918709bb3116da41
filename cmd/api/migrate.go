package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/companyhub/companyhub/internal/repository"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	DownTo int64
}

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				if err := repo.Migrate(ctx); err != nil {
					return err
				}
				return printVersion(ctx, cmd, repo)
			})
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll the schema back to a target version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DownTo < 0 {
				return fmt.Errorf("--to must not be negative, got %d", opts.DownTo)
			}
			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				if err := repo.MigrateDownTo(ctx, opts.DownTo); err != nil {
					return err
				}
				return printVersion(ctx, cmd, repo)
			})
		},
	}
	down.Flags().Int64Var(&opts.DownTo, "to", 0, "target schema version (0 drops everything)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				return printVersion(ctx, cmd, repo)
			})
		},
	})

	return cmd
}

// withRepository opens the database for the duration of fn.
func (o *RootOptions) withRepository(ctx context.Context, fn func(ctx context.Context, repo *repository.Repository) error) error {
	repo, err := repository.New(ctx, o.cfg.DatabaseURL)
	if err != nil {
		return connectionError(o.logger, "database", o.cfg.DatabaseURL, err)
	}
	defer repo.Close()
	return fn(ctx, repo)
}

func printVersion(ctx context.Context, cmd *cobra.Command, repo *repository.Repository) error {
	version, err := repo.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}
