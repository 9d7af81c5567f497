package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlVector/controlvector-frontend/client"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a ControlVector account and workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p := newPrompter()
		var req client.SignupRequest
		if req.Email, err = p.line("Email"); err != nil {
			return err
		}
		if req.Name, err = p.optional("Name"); err != nil {
			return err
		}
		if req.WorkspaceName, err = p.optional("Workspace name"); err != nil {
			return err
		}
		for {
			if req.Password, err = p.secret("Password"); err != nil {
				return err
			}
			confirm, err := p.secret("Confirm password")
			if err != nil {
				return err
			}
			if confirm == req.Password {
				break
			}
			fmt.Println("Passwords do not match. Please try again.")
		}

		sess, err := e.api.Signup(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		return e.saveSession(sess)
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
}
