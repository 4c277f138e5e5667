package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/breakingmathclub/backend/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and store a session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())

		email := ""
		if len(args) == 1 {
			email = args[0]
		}
		if email == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Email: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("cannot read email: %w", err)
			}
			email = strings.TrimSpace(line)
		}

		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}
		password := strings.TrimSpace(line)

		client := newAPIClient(serverURL())
		var resp struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			ExpiresAt    int64  `json:"expires_at"`
			User         struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			} `json:"user"`
		}
		err = client.postJSON("/api/auth/login", "", map[string]string{
			"email":    email,
			"password": password,
		}, &resp)
		if err != nil {
			return err
		}

		store, err := session.NewStore(sessionDir())
		if err != nil {
			return err
		}
		sess := &session.Session{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    resp.ExpiresAt,
			Email:        resp.User.Email,
		}
		if id, err := uuid.Parse(resp.User.ID); err == nil {
			sess.UserID = id
		}
		if err := store.Save(sess); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", resp.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the stored session and forget it",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(sessionDir())
		if err != nil {
			return err
		}
		sess, err := store.Load()
		if err != nil {
			return err
		}
		if sess == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}

		client := newAPIClient(serverURL())
		// Best effort: the local session is cleared even if the server
		// side revocation fails.
		if err := client.postJSON("/api/auth/logout", sess.AccessToken, map[string]string{
			"refresh_token": sess.RefreshToken,
		}, nil); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
		}

		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session and its resolved roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(sessionDir())
		if err != nil {
			return err
		}
		sess, err := store.Load()
		if err != nil {
			return err
		}
		if sess == nil {
			return errors.New("not signed in; run clubctl login first")
		}

		client := newAPIClient(serverURL())
		var roles struct {
			IsAdmin    bool `json:"is_admin"`
			IsOverseer bool `json:"is_overseer"`
		}
		err = client.postJSON("/api/roles/check", "", map[string]string{
			"user_id":      sess.UserID.String(),
			"access_token": sess.AccessToken,
		}, &roles)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (admin=%v overseer=%v)\n",
			sess.Email, roles.IsAdmin, roles.IsOverseer)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <course-id>",
	Short: "Import classroom announcements for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewStore(sessionDir())
		if err != nil {
			return err
		}
		sess, err := store.Load()
		if err != nil {
			return err
		}
		if sess == nil {
			return errors.New("not signed in; run clubctl login first")
		}

		client := newAPIClient(serverURL())
		var resp struct {
			Success bool   `json:"success"`
			Count   int    `json:"count"`
			Message string `json:"message"`
		}
		err = client.postJSON("/api/admin/sync", sess.AccessToken, map[string]string{
			"course_id": args[0],
		}, &resp)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	},
}
