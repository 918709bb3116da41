package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/repository"
	"github.com/companyhub/companyhub/internal/seed"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	FixturePath string
}

// NewSeedCommand creates the seed command. It loads the demo companies for
// the DUMMY_USER_* account and is safe to run repeatedly.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo companies for the demo account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(opts.FixturePath)
			if err != nil {
				return err
			}
			demo := seed.DemoAccount{
				Username: opts.cfg.DummyUserName,
				Email:    opts.cfg.DummyUserEmail,
				Password: opts.cfg.DummyUserPassword,
			}

			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				result, err := seed.New(repo, auth.HashPassword, fixture, opts.logger).Run(ctx, demo)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.AccountCreated {
					fmt.Fprintf(out, "created account %s\n", demo.Username)
				}
				for _, name := range result.Created {
					fmt.Fprintf(out, "created company %s\n", name)
				}
				for _, name := range result.Existing {
					fmt.Fprintf(out, "exists  company %s\n", name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.FixturePath, "fixture", "", "YAML fixture file (defaults to the embedded demo set)")

	return cmd
}

func loadFixture(path string) (seed.Fixture, error) {
	if path == "" {
		return seed.DefaultFixture(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return seed.Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return seed.ParseFixture(data)
}
