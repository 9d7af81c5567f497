// Package identity derives the caller's user and workspace from a bearer
// token. Signatures are not verified here; the backend does that.
package identity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the pair every conversation is scoped to.
type Identity struct {
	UserID      string
	WorkspaceID string
}

// Error explains why a token could not be resolved.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "identity: " + e.Reason + ": " + e.Err.Error()
	}
	return "identity: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

var parser = jwt.NewParser(jwt.WithJSONNumber())

// Resolve decodes the token payload and returns its user_id and
// workspace_id claims.
func Resolve(token string) (Identity, error) {
	claims, err := decode(token)
	if err != nil {
		return Identity{}, err
	}
	userID := claimString(claims, "user_id")
	if userID == "" {
		return Identity{}, &Error{Reason: "token has no user_id claim"}
	}
	workspaceID := claimString(claims, "workspace_id")
	if workspaceID == "" {
		return Identity{}, &Error{Reason: "token has no workspace_id claim"}
	}
	return Identity{UserID: userID, WorkspaceID: workspaceID}, nil
}

// Expired reports whether the token's exp claim is at or before now. Tokens
// without exp never expire; undecodable tokens count as expired.
func Expired(token string, now time.Time) bool {
	claims, err := decode(token)
	if err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func decode(token string) (jwt.MapClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &Error{Reason: "no token"}
	}
	if strings.Count(token, ".") != 2 {
		return nil, &Error{Reason: "token is not a JWT"}
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, &Error{Reason: "malformed token payload", Err: err}
	}
	return claims, nil
}

// claimString accepts string and numeric claim values.
func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
