package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(body) + ".c2lnbmF0dXJl"
}

func TestResolve(t *testing.T) {
	id, err := Resolve(token(t, map[string]any{"user_id": "u-1", "workspace_id": "w-1"}))
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", WorkspaceID: "w-1"}, id)
}

func TestResolve_NumericClaims(t *testing.T) {
	id, err := Resolve(token(t, map[string]any{"user_id": 42, "workspace_id": 7}))
	require.NoError(t, err)
	assert.Equal(t, "42", id.UserID)
	assert.Equal(t, "7", id.WorkspaceID)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "abc.def"},
		{name: "bad payload", token: "eyJhbGciOiJIUzI1NiJ9.%%%.sig"},
		{name: "missing user", token: token(t, map[string]any{"workspace_id": "w-1"})},
		{name: "missing workspace", token: token(t, map[string]any{"user_id": "u-1"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.token)
			require.Error(t, err)
			var idErr *Error
			assert.True(t, errors.As(err, &idErr))
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	past := token(t, map[string]any{"user_id": "u", "workspace_id": "w", "exp": now.Add(-time.Minute).Unix()})
	future := token(t, map[string]any{"user_id": "u", "workspace_id": "w", "exp": now.Add(time.Hour).Unix()})
	noExp := token(t, map[string]any{"user_id": "u", "workspace_id": "w"})

	assert.True(t, Expired(past, now))
	assert.False(t, Expired(future, now))
	assert.False(t, Expired(noExp, now))
	assert.True(t, Expired("garbage", now))
}
