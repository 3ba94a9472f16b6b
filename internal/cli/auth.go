package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"protrader/internal/config"
	apperrors "protrader/internal/errors"
	"protrader/internal/models"
	"protrader/internal/subs"
)

// sessionFile returns the path holding the logged-in account's email.
func sessionFile() string {
	return filepath.Join(config.DefaultConfigDir(), "session")
}

// restoreSession loads the persisted session, if any, into the subscription
// manager.
func (app *App) restoreSession() {
	if app.Store == nil {
		return
	}
	data, err := os.ReadFile(sessionFile())
	if err != nil {
		return
	}
	email := strings.TrimSpace(string(data))
	if email == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := app.Store.GetUser(ctx, email)
	if err != nil {
		app.Logger.Warn().Err(err).Str("email", email).Msg("Failed to restore session")
		return
	}
	app.Subs.SetUser(user)
}

func saveSession(email string) error {
	dir := config.DefaultConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(sessionFile(), []byte(email+"\n"), 0o600)
}

func clearSession() {
	os.Remove(sessionFile())
}

// addAccountCommands adds account management commands.
func addAccountCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSignupCmd(app))
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newWhoamiCmd(app))
}

func newSignupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup <name> <email>",
		Short: "Create a new account",
		Long: `Create a new account and log in.

New accounts start with the demo portfolio so the dashboard has something
to show right away.`,
		Example: `  protrader signup "Jane Doe" jane@example.com --password secret`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store unavailable; cannot create accounts.")
				return apperrors.ErrStoreClosed
			}

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				output.Error("A password is required. Use --password.")
				return apperrors.NewValidationError("password", "", "must not be empty")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			user := &models.User{
				Name:          args[0],
				Email:         strings.ToLower(args[1]),
				Password:      password,
				Subscriptions: subs.GuestSubscriptions(),
			}
			for i := range user.Subscriptions {
				user.Subscriptions[i].AddedAt = time.Now()
			}

			if err := app.Store.CreateUser(ctx, user); err != nil {
				if apperrors.Is(err, apperrors.ErrUserExists) {
					output.Error("An account with that email already exists.")
				} else {
					output.Error("Failed to create account: %v", err)
				}
				return err
			}

			if err := saveSession(user.Email); err != nil {
				output.Warning("Account created but session could not be saved: %v", err)
			}
			app.Subs.SetUser(user)
			app.Center.ClearActivity()

			output.Success("Welcome, %s! Account created and logged in.", user.Name)
			output.Dim("Demo holdings added: %d tickers, 10 shares each", len(user.Subscriptions))
			return nil
		},
	}
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login <email>",
		Short:   "Log in to an existing account",
		Example: `  protrader login jane@example.com --password secret`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Store unavailable; cannot log in.")
				return apperrors.ErrStoreClosed
			}

			password, _ := cmd.Flags().GetString("password")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			user, err := app.Store.Authenticate(ctx, strings.ToLower(args[0]), password)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
					output.Error("Invalid email or password.")
				} else {
					output.Error("Login failed: %v", err)
				}
				return err
			}

			if err := saveSession(user.Email); err != nil {
				output.Warning("Logged in but session could not be saved: %v", err)
			}
			app.Subs.SetUser(user)
			app.Center.ClearActivity()

			output.Success("Welcome back, %s!", user.Name)
			output.Dim("Subscriptions: %d", len(user.Subscriptions))
			return nil
		},
	}
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Subs.User() == nil {
				output.Dim("Not logged in.")
				return nil
			}
			clearSession()
			app.Subs.SetUser(nil)
			app.Center.ClearActivity()
			app.Monitor.ClearAlerts()
			output.Success("Logged out. Browsing as guest with the demo portfolio.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			user := app.Subs.User()
			if output.IsJSON() {
				if user == nil {
					return output.JSON(map[string]interface{}{"guest": true})
				}
				return output.JSON(map[string]interface{}{
					"guest":         false,
					"name":          user.Name,
					"email":         user.Email,
					"subscriptions": len(user.Subscriptions),
				})
			}
			if user == nil {
				output.Dim("Browsing as guest (demo portfolio). Use 'protrader login' or 'protrader signup'.")
				return nil
			}
			output.Bold("%s <%s>", user.Name, user.Email)
			output.Printf("Subscriptions: %d\n", len(user.Subscriptions))
			return nil
		},
	}
}
