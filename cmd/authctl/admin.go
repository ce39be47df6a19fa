package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"identity/internal/domain"
	"identity/internal/pkg/password"
	"identity/internal/repository"
)

func newSeedAdminCmd(opts *options) *cobra.Command {
	var email, name, pass string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an enabled ADMIN password account",
		Long: "Create an enabled ADMIN account that signs in with a password. If the email " +
			"already belongs to a password account it is promoted and enabled instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				pass = os.Getenv("AUTHCTL_ADMIN_PASSWORD")
			}
			if email == "" || pass == "" {
				return errors.New("--email and --password (or AUTHCTL_ADMIN_PASSWORD) are required")
			}

			cfg, db, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			users := repository.NewUserRepository(db)

			existing, err := users.GetByEmail(ctx, nil, email)
			switch {
			case err == nil:
				if existing.LoginMethod != domain.LoginMethodPassword {
					return fmt.Errorf("%s signs in with %s, not a password", existing.Email, existing.LoginMethod)
				}
				if err := users.UpdateRole(ctx, nil, existing.ID, domain.RoleAdmin); err != nil {
					return err
				}
				if err := users.SetEnabled(ctx, nil, existing.ID, true); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "promoted %s to ADMIN\n", existing.Email)
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			hash, err := password.NewHasher(cfg.BcryptCost).Hash(pass)
			if err != nil {
				return err
			}
			admin := domain.NewPasswordUser(email, name, hash, true, time.Now().UTC())
			admin.Role = domain.RoleAdmin
			if err := users.Create(ctx, nil, admin); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created ADMIN %s id=%s\n", admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&pass, "password", "", "initial password")
	return cmd
}

func newSetRoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change the role of an account",
		Long:  "Change the role of an account. The new authorities apply from the next login or refresh.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, ok := domain.ParseRole(args[1])
			if !ok {
				return fmt.Errorf("unknown role %q", args[1])
			}

			_, db, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			users := repository.NewUserRepository(db)

			user, err := users.GetByEmail(ctx, nil, args[0])
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("no account for %s", args[0])
				}
				return err
			}
			if err := users.UpdateRole(ctx, nil, user.ID, role); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
			return nil
		},
	}
}
