package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlVector/controlvector-frontend/client"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to ControlVector",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return loginInteractive(cmd.Context(), e)
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	rootCmd.AddCommand(loginCmd)
}

func loginInteractive(ctx context.Context, e *env) error {
	p := newPrompter()
	email := loginEmail
	var err error
	if email == "" {
		if email, err = p.line("Email"); err != nil {
			return err
		}
	}
	password, err := p.secret("Password")
	if err != nil {
		return err
	}

	sess, err := e.api.Login(ctx, client.LoginRequest{Email: email, Password: password})
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("login failed: invalid email or password")
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return e.saveSession(sess)
}

// saveSession stores the token pair and forgets the cached conversation,
// which belongs to whoever was logged in before.
func (e *env) saveSession(sess *client.AuthSession) error {
	if err := e.store.SaveTokens(tokensOf(sess)); err != nil {
		return err
	}
	if err := e.store.ClearConversation(); err != nil {
		return err
	}
	e.api.SetToken(sess.AccessToken)
	e.log.Logger.Info("logged_in", "user_id", sess.User.ID)
	fmt.Printf("Logged in as %s\n", sess.User.Email)
	return nil
}
