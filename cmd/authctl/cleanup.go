package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"identity/internal/modules/auth"
	"identity/internal/repository"
)

func newCleanupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh, confirmation and reset tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := opts.open()
			if err != nil {
				return err
			}

			// Only the token stores are exercised by PurgeExpired.
			service := auth.NewService(
				repository.NewUserRepository(db),
				nil,
				nil,
				auth.NewRefreshStore(repository.NewRefreshTokenRepository(db), cfg.RefreshTokenPepper, cfg.RefreshTTL),
				auth.NewSecretTokens(repository.NewMailConfirmationTokenRepository(db), cfg.MailConfirmationTTL),
				auth.NewSecretTokens(repository.NewForgotPasswordTokenRepository(db), cfg.ForgotPasswordTTL),
				nil,
				nil,
				auth.Options{},
			)

			report, err := service.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cleanup completed: refresh_tokens=%d mail_confirmation_tokens=%d forgot_password_tokens=%d\n",
				report.RefreshTokens, report.MailConfirmationTokens, report.ForgotPasswordTokens)
			return nil
		},
	}
}
