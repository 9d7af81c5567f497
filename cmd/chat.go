package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/app"
	"github.com/controlVector/controlvector-frontend/client"
	"github.com/controlVector/controlvector-frontend/identity"
	"github.com/controlVector/controlvector-frontend/store"
)

const meTimeout = 5 * time.Second

func tokensOf(sess *client.AuthSession) store.Tokens {
	return store.Tokens{Access: sess.AccessToken, Refresh: sess.RefreshToken}
}

// runChat starts the chat program, logging in first whenever there is no
// usable token. It loops when the program exits because the backend
// rejected the token.
func runChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	for {
		token, id, err := e.session(ctx)
		if err != nil {
			var idErr *identity.Error
			if errors.As(err, &idErr) {
				fmt.Fprintf(os.Stderr, "Your session could not be verified (%s). Please log in again.\n", idErr.Reason)
			}
			if err := loginInteractive(ctx, e); err != nil {
				return err
			}
			continue
		}

		m := app.New(app.Options{
			API:        e.api,
			Store:      e.store,
			Config:     e.cfg,
			ProfileDir: e.dir,
			Logger:     e.log.Logger,
			Identity:   id,
			Email:      e.email(ctx),
			Token:      token,
			Version:    version,
		})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		go func() {
			p.Send(app.ProgramReady{Program: p})
		}()

		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		if fm, ok := final.(app.Model); ok && errors.Is(fm.Err(), app.ErrLoginRequired) {
			fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
			if err := loginInteractive(ctx, e); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

// session returns a usable access token and its identity, refreshing an
// expired token when a refresh token is stored. Any failure clears the
// stored session.
func (e *env) session(ctx context.Context) (string, identity.Identity, error) {
	tokens, err := e.store.Tokens()
	if err != nil {
		return "", identity.Identity{}, err
	}
	if tokens.Access == "" {
		return "", identity.Identity{}, errors.New("no stored session")
	}

	if identity.Expired(tokens.Access, time.Now()) {
		if tokens.Refresh == "" {
			return "", identity.Identity{}, e.dropSession(errors.New("token expired"))
		}
		sess, err := e.api.Refresh(ctx, tokens.Refresh)
		if err != nil {
			return "", identity.Identity{}, e.dropSession(fmt.Errorf("refresh failed: %w", err))
		}
		tokens = tokensOf(sess)
		if err := e.store.SaveTokens(tokens); err != nil {
			return "", identity.Identity{}, err
		}
		e.log.Logger.Info("token_refreshed", "user_id", sess.User.ID)
	}

	id, err := identity.Resolve(tokens.Access)
	if err != nil {
		return "", identity.Identity{}, e.dropSession(err)
	}
	e.api.SetToken(tokens.Access)
	return tokens.Access, id, nil
}

func (e *env) dropSession(cause error) error {
	e.log.Logger.Warn("session_dropped", "error", cause)
	if err := e.store.ClearSession(); err != nil {
		e.log.Logger.Error("session_clear_failed", "error", err)
	}
	return cause
}

// email looks up the user's address for the header. It is best effort.
func (e *env) email(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, meTimeout)
	defer cancel()
	user, err := e.api.Me(ctx)
	if err != nil {
		e.log.Logger.Debug("me_failed", "error", err)
		return ""
	}
	return user.Email
}
