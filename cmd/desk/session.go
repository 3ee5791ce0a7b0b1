package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/token/jwt"
	"github.com/spf13/cobra"
)

// PasswordEnv lets scripts sign in without a prompt.
const PasswordEnv = "DESK_PASSWORD"

func loginCmd() *cobra.Command {
	var (
		email    string
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the contract API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(_ config.Config, a *app) error {
				if email == "" {
					if u := a.auth.RememberedUser(); u != nil {
						email = u.Email
					}
				}
				if email == "" {
					return errors.New("--email is required")
				}
				password, err := readPassword(cmd)
				if err != nil {
					return err
				}

				result := a.auth.Login(cmd.Context(), email, password, remember)
				if !result.Success {
					return errors.New(result.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", result.User.DisplayName())
				if !remember {
					fmt.Fprintln(cmd.OutOrStdout(), "Not remembered: the next command will need to sign in again.")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session across runs")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	if p := os.Getenv(PasswordEnv); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(_ config.Config, a *app) error {
				a.auth.Logout(cmd.Context(), auth.NavigatorFunc(func(string) {
					fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				}))
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(_ config.Config, a *app) error {
				if err := requireSession(cmd.Context(), a); err != nil {
					return err
				}
				u := a.auth.User()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s <%s>\n", u.DisplayName(), u.Email)
				if u.Role != "" {
					fmt.Fprintf(out, "role:    %s\n", u.Role)
				}
				if claims, err := jwt.ParseUnverified(a.tokens.AccessToken()); err == nil && claims.ExpiresAt > 0 {
					fmt.Fprintf(out, "expires: %s\n", time.Unix(claims.ExpiresAt, 0).Local().Format(time.RFC3339))
				}
				return nil
			})
		},
	}
}

// requireSession restores the stored session for commands that call the API.
func requireSession(ctx context.Context, a *app) error {
	if a.auth.RestoreSession(ctx) != auth.StateAuthenticated {
		return errors.New("not signed in, run `desk login` first")
	}
	return nil
}
