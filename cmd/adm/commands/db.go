// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(userService *services.UserService, logger *observability.Logger, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the daily questions application.

Available commands:
  stats - Show database statistics
  reset - Delete all users, questions, and responses`,
	}

	dbCmd.AddCommand(statsCmd(logger, db))
	dbCmd.AddCommand(resetCmd(userService, logger))

	return dbCmd
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show database statistics including user, question, and response counts.`,
		RunE:  runStats(logger, db),
	}
}

func resetCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all application data",
		Long: `Delete all users, questions, and responses from the database.

This is destructive and cannot be undone. Requires the --yes flag.`,
		RunE: runReset(userService, logger, &confirm),
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm that all data should be deleted")

	return cmd
}

func runStats(logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Diagnostic info", map[string]interface{}{
			"config_file": os.Getenv("DAILYQ_CONFIG_FILE"),
			"database":    getDatabaseInfo(db),
		})

		var users, questions, activeQuestions, responses int
		err := db.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM questions WHERE active = TRUE),
			(SELECT COUNT(*) FROM responses)`).
			Scan(&users, &questions, &activeQuestions, &responses)
		if err != nil {
			return contextutils.WrapError(err, "failed to get database statistics")
		}

		fmt.Println(getDatabaseInfo(db))
		fmt.Println(strings.Repeat("-", 40))
		fmt.Printf("Users:            %d\n", users)
		fmt.Printf("Questions:        %d (%d active)\n", questions, activeQuestions)
		fmt.Printf("Responses:        %d\n", responses)

		return nil
	}
}

func runReset(userService *services.UserService, logger *observability.Logger, confirm *bool) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		if !*confirm {
			return contextutils.ErrorWithContextf("refusing to reset the database without --yes")
		}

		if err := userService.ResetDatabase(ctx); err != nil {
			return contextutils.WrapError(err, "failed to reset database")
		}

		fmt.Println("Database reset: all users, questions, and responses deleted")
		logger.Warn(ctx, "Database reset via admin CLI")
		return nil
	}
}
