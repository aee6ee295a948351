package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studyplan/internal/calendar"
	"studyplan/internal/config"
)

var calendarCode string

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Google Calendar integration",
}

var calendarAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize calendar sync",
	Long: `Without --code, prints the consent URL. Open it, approve access and
run the command again with the code Google shows to cache the token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		creds := calendar.Credentials{
			ClientSecretsFile: cfg.Calendar.ClientSecretsFile,
			TokenFile:         cfg.Calendar.TokenFile,
		}
		if calendarCode == "" {
			url, err := creds.AuthURL()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Open this link and rerun with --code:")
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		}
		if err := creds.Exchange(cmd.Context(), calendarCode); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("authorization failed"))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token saved to "+cfg.Calendar.TokenFile)
		return nil
	},
}

func init() {
	calendarAuthCmd.Flags().StringVar(&calendarCode, "code", "", "authorization code from the consent page")
	calendarCmd.AddCommand(calendarAuthCmd)
	rootCmd.AddCommand(calendarCmd)
}
