package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the daily questions application.

Available commands:
  list           - List all users
  create         - Create a new user
  make-admin     - Grant or revoke admin privileges
  reset-password - Reset password for a specific user`,
	}

	userCmd.AddCommand(listCmd(userService, logger, databaseURL))
	userCmd.AddCommand(createCmd(userService, logger))
	userCmd.AddCommand(makeAdminCmd(userService, logger))
	userCmd.AddCommand(resetPasswordCmd(userService, logger))

	return userCmd
}

func listCmd(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Long:  `List all users in the database with their basic information.`,
		RunE:  runListUsers(userService, logger, databaseURL),
	}
}

func createCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "create [username]",
		Short: "Create a new user",
		Long:  `Create a new user account. You will be prompted for a password.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runCreateUser(userService, logger),
	}
}

func makeAdminCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "make-admin [username]",
		Short: "Grant or revoke admin privileges",
		Long:  `Grant admin privileges to a user, or revoke them with --revoke.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runMakeAdmin(userService, logger, &revoke),
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Revoke admin privileges instead of granting them")

	return cmd
}

func resetPasswordCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password [username]",
		Short: "Reset password for a user",
		Long:  `Reset the password for a specific user. If username is not provided, you will be prompted for it.`,
		RunE:  runResetPassword(userService, logger),
	}
}

func runListUsers(userService *services.UserService, logger *observability.Logger, databaseURL string) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Admin command diagnostics", map[string]interface{}{
			"config_file":  os.Getenv("DAILYQ_CONFIG_FILE"),
			"database_url": maskDatabaseURL(databaseURL),
		})

		users, err := userService.GetAllUsers(ctx)
		if err != nil {
			return contextutils.WrapError(err, "failed to get users")
		}

		if len(users) == 0 {
			fmt.Println("No users found in the database")
			return nil
		}

		fmt.Printf("%-5s %-20s %-30s %-7s %-12s %-12s\n", "ID", "Username", "Email", "Admin", "Last active", "Created")
		fmt.Println(strings.Repeat("-", 90))

		for _, user := range users {
			email := "N/A"
			if user.Email.Valid {
				email = user.Email.String
			}
			admin := "No"
			if user.IsAdmin {
				admin = "Yes"
			}
			lastActive := "never"
			if user.LastActive.Valid {
				lastActive = user.LastActive.Time.Format("2006-01-02")
			}

			fmt.Printf("%-5d %-20s %-30s %-7s %-12s %-12s\n",
				user.ID,
				user.Username,
				email,
				admin,
				lastActive,
				user.CreatedAt.Format("2006-01-02"),
			)
		}

		logger.Info(ctx, "Listed users", map[string]interface{}{"total": len(users)})
		return nil
	}
}

// promptPassword reads a password twice from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Print("Enter password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	fmt.Println()

	password := string(passwordBytes)
	if password == "" {
		return "", contextutils.ErrorWithContextf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password confirmation: %v", err)
	}
	fmt.Println()

	if password != string(confirmBytes) {
		return "", contextutils.ErrorWithContextf("passwords do not match")
	}

	return password, nil
}

func runCreateUser(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		username := args[0]

		password, err := promptPassword()
		if err != nil {
			return err
		}

		user, err := userService.CreateUserWithPassword(ctx, username, password, "")
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to create user '%s'", username)
		}

		fmt.Printf("Created user '%s' (ID: %d)\n", user.Username, user.ID)
		logger.Info(ctx, "User created", map[string]interface{}{"username": username, "user_id": user.ID})
		return nil
	}
}

func runMakeAdmin(userService *services.UserService, logger *observability.Logger, revoke *bool) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		username := args[0]

		user, err := userService.GetUserByUsername(ctx, username)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user '%s': %v", username, err)
		}
		if user == nil {
			return contextutils.ErrorWithContextf("user '%s' not found", username)
		}

		isAdmin := !*revoke
		if err := userService.SetAdmin(ctx, user.ID, isAdmin); err != nil {
			return contextutils.WrapErrorf(err, "failed to update admin flag for user '%s'", username)
		}

		if isAdmin {
			fmt.Printf("Granted admin privileges to '%s' (ID: %d)\n", username, user.ID)
		} else {
			fmt.Printf("Revoked admin privileges from '%s' (ID: %d)\n", username, user.ID)
		}
		logger.Info(ctx, "Admin flag updated", map[string]interface{}{"username": username, "is_admin": isAdmin})
		return nil
	}
}

func runResetPassword(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		var username string
		if len(args) > 0 {
			username = args[0]
		} else {
			fmt.Print("Enter username: ")
			if _, err := fmt.Scanln(&username); err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read username: %v", err)
			}
		}
		if username == "" {
			return contextutils.ErrorWithContextf("username is required")
		}

		newPassword, err := promptPassword()
		if err != nil {
			return err
		}

		user, err := userService.GetUserByUsername(ctx, username)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user '%s': %v", username, err)
		}
		if user == nil {
			return contextutils.ErrorWithContextf("user '%s' not found", username)
		}

		if err := userService.UpdateUserPassword(ctx, user.ID, newPassword); err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to update password for user '%s': %v", username, err)
		}

		fmt.Printf("Password successfully reset for user '%s' (ID: %d)\n", username, user.ID)
		logger.Info(ctx, "Password reset successful", map[string]interface{}{"username": username, "user_id": user.ID})
		return nil
	}
}
