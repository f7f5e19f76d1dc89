package main

import (
	"fmt"

	"github.com/Leo3030/roadmap-demo/internal/app"
	"github.com/Leo3030/roadmap-demo/internal/settings"
	"github.com/spf13/cobra"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show or change the settings form flags",
}

var flagsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := app.GetFlags(cmd.Context(), appConfig())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s=%t\n", settings.IframeURLFieldKey, flags.IframeURLField)
		fmt.Fprintf(out, "%s=%t\n", settings.ValidateBeforeSaveKey, flags.ValidateBeforeSave)
		return nil
	},
}

var flagsSetCmd = &cobra.Command{
	Use:   "set <key> <true|false>",
	Short: "Change a flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.SetFlag(cmd.Context(), appConfig(), args[0], args[1])
	},
}

func init() {
	flagsCmd.AddCommand(flagsGetCmd, flagsSetCmd)
}
