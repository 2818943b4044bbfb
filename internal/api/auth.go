package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login authenticates a regular user
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

// AdminLogin authenticates an administrator
func (c *Client) AdminLogin(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/admin-login", creds)
}

// Register creates an account. The backend answers with a token and the
// new user, exactly like a login.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.send(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, &APIError{
			Kind:    KindDecode,
			Status:  http.StatusOK,
			Method:  http.MethodPost,
			Path:    path,
			Message: fmt.Sprintf("auth response is missing %s", missingAuthField(out)),
		}
	}
	return &out, nil
}

func missingAuthField(r AuthResponse) string {
	switch {
	case r.Token == "" && r.User == nil:
		return "token and user"
	case r.Token == "":
		return "token"
	default:
		return "user"
	}
}

// Profile returns the signed-in user's profile
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/user/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
