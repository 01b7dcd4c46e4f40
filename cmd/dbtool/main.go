package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"roadtrip-meal-service/internal/adapters/repositories"
	"roadtrip-meal-service/internal/config"
	"roadtrip-meal-service/internal/platform/db"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dbtool",
		Short:        "Maintenance commands for the meal planner database",
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newResetPreferencesCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the geocode cache, preference and selection tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB) error {
				log.Println("Initializing database schema...")
				if err := repositories.InitSchema(ctx, conn); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}
				log.Println("Schema ready.")
				return nil
			})
		},
	}
}

func newResetPreferencesCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "reset-preferences",
		Short: "Drop a user's learned preference weights (selection history is kept)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			return withDB(cmd.Context(), func(ctx context.Context, conn *sql.DB) error {
				if err := repositories.NewPostgresWeightsStore(conn).DeleteWeights(ctx, userID); err != nil {
					return err
				}
				log.Printf("Preferences reset for user=%q", userID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id whose weights should be reset")
	return cmd
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}
