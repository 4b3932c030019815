// ABOUTME: Error normalization for the Bubble REST gateway
// ABOUTME: Maps transport failures and HTTP statuses onto one user-facing error type
package bubble

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a gateway failure.
type Kind int

const (
	KindNetwork Kind = iota
	KindClient
	KindServer
	KindValidation
	KindDecode
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

// User-facing messages.
const (
	MsgNetwork            = "Network connection failed. Please check your internet connection."
	MsgServer             = "Server temporarily unavailable. Please try again."
	MsgInvalidCredentials = "Email or password is incorrect"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNotFound           = errors.New("not found")
	ErrPaginationStalled  = errors.New("pagination stalled")
)

// Error is the single error type every gateway call returns.
// Message is safe to show to a user as-is.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call could succeed.
// Only transport failures and 5xx responses qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

// IsRetryable reports whether err is a gateway error worth retrying.
func IsRetryable(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}

// UserMessage extracts the user-facing message from err.
func UserMessage(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ValidationError reports bad input caught before any request is sent.
func ValidationError(op, msg string) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: msg}
}

func validationError(op, msg string) *Error {
	return ValidationError(op, msg)
}

func networkError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

func decodeError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindDecode, Message: "Unexpected response from server", Err: err}
}

// errorBody is the shape Bubble uses for failures.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Body    *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"body"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	if b.Body != nil && b.Body.Message != "" {
		return b.Body.Message
	}
	if b.Status != "" {
		return b.Status
	}
	if b.Body != nil {
		return b.Body.Status
	}
	return ""
}

// statusError builds the error for a non-2xx response.
func statusError(op string, status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	backendMsg := strings.TrimSpace(eb.text())

	e := &Error{Op: op, Status: status}
	switch {
	case status >= 500:
		e.Kind = KindServer
		e.Message = MsgServer
	case status == http.StatusNotFound:
		e.Kind = KindClient
		e.Err = ErrNotFound
		e.Message = backendMsg
	default:
		e.Kind = KindClient
		e.Message = backendMsg
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed (%d)", status)
	}
	if backendMsg != "" && e.Err == nil {
		e.Err = errors.New(backendMsg)
	}
	return e
}

// loginError applies the login-specific mapping on top of statusError.
// 400/401 collapse to "incorrect credentials" unless the backend says
// the account is locked or rate limited.
func loginError(status int, body []byte) *Error {
	e := statusError("login", status, body)
	if status != http.StatusBadRequest && status != http.StatusUnauthorized {
		return e
	}
	if e.Err != nil && mentionsLockout(e.Err.Error()) {
		return e
	}
	e.Message = MsgInvalidCredentials
	e.Err = ErrInvalidCredentials
	return e
}

var lockoutWords = []string{"locked", "too many", "rate limit", "suspended", "disabled"}

func mentionsLockout(msg string) bool {
	msg = strings.ToLower(msg)
	for _, w := range lockoutWords {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
