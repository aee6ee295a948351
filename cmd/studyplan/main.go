// Package main implements the studyplan CLI: the API server plus a few
// maintenance and reporting commands over the same store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studyplan/internal/app"
	"studyplan/internal/authz"
	"studyplan/internal/config"
	"studyplan/internal/db"
	"studyplan/internal/middleware"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:          "studyplan",
	Short:        "Study planner API and tools",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down|status>",
	Short:     "Apply or inspect database migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// Open already migrates up; down and status run on top of that.
		conn, err := db.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		if args[0] == "up" {
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		}
		return db.Migrate(cmd.Context(), conn.DB, cfg.Database.Driver, args[0])
	},
}

var (
	tokenOwner string
	tokenRole  string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for an owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !authz.Valid(tokenRole) {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not configured")
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), tokenOwner, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $STUDYPLAN_CONFIG or "+config.DefaultPath+")")

	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "owner id for the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", authz.RoleStudent, "student or viewer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("owner")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

