package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"MockShop/internal/auth"
)

func (a *app) loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("password") {
				pw, err := promptPassword(a.in, a.out)
				if err != nil {
					return err
				}
				password = pw
			}

			if _, err := a.api.Login(cmd.Context(), username, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			fmt.Fprintf(a.out, "Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", auth.DemoUsername, "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted if omitted)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.requireSession(cmd)
			if err != nil {
				return err
			}

			id, err := a.api.WhoAmI(ctx)
			if err != nil {
				return fmt.Errorf("whoami: %w", err)
			}

			fmt.Fprintf(a.out, "User:    %s\n", id.Username)
			fmt.Fprintf(a.out, "Expires: %s\n", id.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}
