package client

// User as returned by the auth endpoints.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest for POST /auth/signup.
type SignupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name,omitempty"`
	WorkspaceName string `json:"workspace_name,omitempty"`
}

// RefreshRequest for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthSession is the data payload of login, signup and refresh responses.
type AuthSession struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ConversationRequest for POST /api/conversations.
type ConversationRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// Conversation from POST /api/conversations.
type Conversation struct {
	ID string `json:"id"`
}

// CredentialRequest for POST /api/v1/context/secret/credential.
type CredentialRequest struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// SSHKeyRequest for POST /api/v1/context/secret/ssh-key.
type SSHKeyRequest struct {
	KeyName    string `json:"key_name"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// CredentialInfo is stored credential metadata; values are never returned.
type CredentialInfo struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Provider  string `json:"provider,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ErrorResponse for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// envelope wraps every successful response body as {"data": ...}.
type envelope[T any] struct {
	Data T `json:"data"`
}
