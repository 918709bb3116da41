package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/companyhub/companyhub/internal/auth"
	"github.com/companyhub/companyhub/internal/model"
	"github.com/companyhub/companyhub/internal/repository"
)

// accountStore is the subset of the repository the account commands use.
type accountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	UpdateAccountPassword(ctx context.Context, id, passwordHash string) error
}

type passwordHasher func(password string) (string, error)

// AccountOptions holds flags shared by the account commands.
type AccountOptions struct {
	*RootOptions
	Username string
	Email    string
	Password string
}

// NewCreateUserCommand creates the create-user command.
func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account that can log in to the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFromFlagOrInput(opts.Password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				account, err := createAccount(ctx, repo, auth.HashPassword, opts.Username, opts.Email, password)
				if err != nil {
					return err
				}
				opts.logger.Info("account created", "account_id", account.ID, "username", account.Username)
				fmt.Fprintf(cmd.OutOrStdout(), "created account %s (%s)\n", account.Username, account.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address, also accepted at login")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

// NewSetPasswordCommand creates the set-password command.
func NewSetPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AccountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace the password of an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFromFlagOrInput(opts.Password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return opts.withRepository(cmd.Context(), func(ctx context.Context, repo *repository.Repository) error {
				account, err := setPassword(ctx, repo, auth.HashPassword, opts.Username, password)
				if err != nil {
					return err
				}
				opts.logger.Info("password updated", "account_id", account.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", account.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "new password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func createAccount(ctx context.Context, store accountStore, hash passwordHasher, username, email, password string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}

	passwordHash, err := hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return nil, fmt.Errorf("account %q: %w", username, err)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func setPassword(ctx context.Context, store accountStore, hash passwordHasher, username, password string) (*model.Account, error) {
	account, err := store.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("find account %q: %w", username, err)
	}

	passwordHash, err := hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := store.UpdateAccountPassword(ctx, account.ID, passwordHash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return account, nil
}

// passwordFromFlagOrInput returns the flag value, or the first line of in.
func passwordFromFlagOrInput(flagValue string, in io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required: pass --password or pipe it on stdin")
	}
	return password, nil
}
