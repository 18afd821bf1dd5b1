package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	email    string
	password string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Register, log in and inspect the current user",
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var user map[string]any
		if err := c.call(cmd.Context(), http.MethodPost, "/auth/register", credentials(), &user); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print an access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var tok struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		}
		if err := c.call(cmd.Context(), http.MethodPost, "/auth/login", credentials(), &tok); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
		fmt.Fprintln(cmd.ErrOrStderr(), "Export it as EDA_TOKEN to authenticate later calls.")
		return nil
	},
}

var authMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the user behind --token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var user map[string]any
		if err := c.call(cmd.Context(), http.MethodGet, "/auth/me", nil, &user); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authRegisterCmd, authLoginCmd, authMeCmd)
	for _, c := range []*cobra.Command{authRegisterCmd, authLoginCmd} {
		c.Flags().StringVar(&email, "email", "", "account email")
		c.Flags().StringVar(&password, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
}

func credentials() map[string]string {
	return map[string]string{"email": email, "password": password}
}
