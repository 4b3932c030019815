// ABOUTME: Login and logout workflows against the Bubble Workflow API
// ABOUTME: Applies the login-specific error mapping and treats a 401 logout as success
package bubble

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Token     string
	UserID    string
	ExpiresIn time.Duration
	Role      string
}

type loginResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Response *struct {
		UserID    string  `json:"user_id"`
		Token     string  `json:"token"`
		ExpiresIn float64 `json:"expires_in"`
		Role      string  `json:"role"`
	} `json:"response"`
}

// Login exchanges credentials for a bearer token. It never sends an
// Authorization header.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	op := WorkflowLogin
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, validationError(op, "Email and password are required")
	}

	body := map[string]string{"email": email, "password": password}
	data, err := c.do(ctx, op, "", http.MethodPost, c.wfURL(WorkflowLogin), body, loginError)
	if err != nil {
		return LoginResult{}, err
	}

	var res loginResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return LoginResult{}, decodeError(op, err)
	}
	if res.Status != "success" || res.Response == nil || res.Response.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = "Login failed"
		}
		return LoginResult{}, &Error{Op: op, Kind: KindClient, Message: msg}
	}

	return LoginResult{
		Token:     res.Response.Token,
		UserID:    res.Response.UserID,
		ExpiresIn: time.Duration(res.Response.ExpiresIn * float64(time.Second)),
		Role:      res.Response.Role,
	}, nil
}

// Logout ends the server session for userID. A 401 means the server
// already considers the user logged out and is not an error.
func (c *Client) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return validationError(WorkflowLogout, "User ID is required")
	}
	_, err := c.Workflow(ctx, WorkflowLogout, map[string]string{"user_id": userID})
	var be *Error
	if errors.As(err, &be) && be.Status == http.StatusUnauthorized {
		c.logger.Info("server logout: already logged out")
		return nil
	}
	if err != nil {
		c.logger.Warn("server logout failed", zap.Error(err))
	}
	return err
}
