package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ── login ────────────────────────────────────────────────────────────────────

var (
	loginEmail         string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your site email and password",
	Long: `login signs in with Firebase email/password auth, then exchanges the
Firebase ID token for a site session.

  wpyvr login --email ann@example.com
  echo "$PASSWORD" | wpyvr login --email ann@example.com --password-stdin`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, syncCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if app.cfg.Firebase.APIKey == "" {
		return errors.New("firebase.api_key is not configured (set FIREBASE_API_KEY)")
	}
	ctx := cmd.Context()
	stdin := bufio.NewReader(os.Stdin)

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		fmt.Print("Email: ")
		line, _ := stdin.ReadString('\n')
		email = strings.TrimSpace(line)
	}
	if !loginPasswordStdin {
		fmt.Print("Password: ")
	}
	line, _ := stdin.ReadString('\n')
	password := strings.TrimRight(line, "\r\n")
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	user, err := app.firebase.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	ident, err := app.bridge.Sync(ctx, user)
	if err != nil {
		return fmt.Errorf("signed in to Firebase but site sync failed: %w", err)
	}

	name := ident.DisplayName
	if p := app.bridge.Profile(); p != nil && p.Nickname != "" {
		name = p.Nickname
	}
	fmt.Printf("✓ Signed in as %s (user #%d)\n", name, ident.WPUserID)
	return nil
}

// ── logout ───────────────────────────────────────────────────────────────────

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.bridge.Logout(cmd.Context()); err != nil {
			// Local state is already cleared at this point.
			return fmt.Errorf("signed out locally, but: %w", err)
		}
		fmt.Println("✓ Signed out")
		return nil
	},
}

// ── whoami ───────────────────────────────────────────────────────────────────

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in member",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.bridge.Restore(cmd.Context()); err != nil {
			return err
		}
		ident := app.bridge.Identity()
		if ident == nil {
			if jsonOutput() {
				return printJSON(map[string]any{"state": app.bridge.State().String()})
			}
			fmt.Println("Not signed in.")
			return nil
		}
		profile := app.bridge.Profile()
		if jsonOutput() {
			return printJSON(map[string]any{
				"state":    app.bridge.State().String(),
				"identity": ident,
				"profile":  profile,
			})
		}
		fmt.Printf("User ID:  %d\n", ident.WPUserID)
		fmt.Printf("Name:     %s\n", ident.DisplayName)
		fmt.Printf("Email:    %s\n", ident.Email)
		if len(ident.Roles) > 0 {
			fmt.Printf("Roles:    %s\n", strings.Join(ident.Roles, ", "))
		}
		if profile != nil {
			fmt.Printf("Nickname: %s\n", profile.Nickname)
			fmt.Printf("Profile:  %s\n", profile.ProfileVisibility)
		}
		return nil
	},
}

// ── sync ─────────────────────────────────────────────────────────────────────

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-exchange the Firebase session for a fresh site session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := app.firebase.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			return errors.New(`not signed in; run "wpyvr login"`)
		}
		ident, err := app.bridge.Sync(ctx, user)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Session refreshed for user #%d\n", ident.WPUserID)
		return nil
	},
}
