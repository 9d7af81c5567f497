package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlVector/controlvector-frontend/client"
	"github.com/controlVector/controlvector-frontend/identity"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user and workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		token, err := e.requireToken()
		if err != nil {
			return err
		}

		user, err := e.api.Me(cmd.Context())
		switch {
		case err == nil:
			fmt.Printf("%s (user %s, workspace %s)\n", user.Email, user.ID, user.WorkspaceID)
			return nil
		case errors.Is(err, client.ErrUnauthorized):
			return fmt.Errorf("session expired, run `cv login`")
		}

		// Offline: fall back to the token's claims.
		e.log.Logger.Warn("me_failed", "error", err)
		id, idErr := identity.Resolve(token)
		if idErr != nil {
			return fmt.Errorf("whoami: %w", err)
		}
		fmt.Printf("user %s, workspace %s (offline: %v)\n", id.UserID, id.WorkspaceID, err)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
