package main

import (
	"fmt"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/app"
	"github.com/spf13/cobra"
)

var (
	sessionScope    string
	sessionTokenTTL time.Duration
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage offline Admin API sessions",
}

var sessionPutCmd = &cobra.Command{
	Use:   "put <shop> <access-token>",
	Short: "Store the offline session for a shop",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.PutSession(cmd.Context(), appConfig(), app.PutSessionParams{
			Shop:        args[0],
			AccessToken: args[1],
			Scope:       sessionScope,
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored offline session for %s\n", args[0])
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <shop>",
	Short: "Remove the offline session for a shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.DeleteSession(cmd.Context(), appConfig(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted offline session for %s\n", args[0])
		return nil
	},
}

var sessionTokenCmd = &cobra.Command{
	Use:   "token <shop>",
	Short: "Print a development session token for a shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := app.SignSessionToken(appConfig(), args[0], sessionTokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	sessionPutCmd.Flags().StringVar(&sessionScope, "scope", "read_metafields,write_metafields", "granted scopes")
	sessionTokenCmd.Flags().DurationVar(&sessionTokenTTL, "ttl", time.Hour, "token lifetime")
	sessionCmd.AddCommand(sessionPutCmd, sessionDeleteCmd, sessionTokenCmd)
}
