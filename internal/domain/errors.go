package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrProviderNotFound is returned when no wallet provider is configured or reachable.
	ErrProviderNotFound = errors.New("wallet provider not found: install or start a wallet -> https://metamask.io/download.html")
	// ErrWalletNotConnected is returned when a flow needs an address and none is connected.
	ErrWalletNotConnected = errors.New("wallet not connected")
	// ErrQuizNotOnChain indicates the quiz id is missing from the contract's quiz list.
	ErrQuizNotOnChain = errors.New("quiz not found in on-chain quiz list")
	// ErrTxReverted indicates a mined transaction with a failed status.
	ErrTxReverted = errors.New("transaction reverted")
	// ErrNonPositiveScore blocks on-chain score submission.
	ErrNonPositiveScore = errors.New("score must be greater than 0 to submit")
	// ErrNameRequired is returned when joining without a display name.
	ErrNameRequired = errors.New("please enter your name")
	// ErrNoAnswer is returned when advancing manually before choosing an option.
	ErrNoAnswer = errors.New("choose an answer before moving on")
	// ErrUnknownOption indicates a selection that is not one of the question's labels.
	ErrUnknownOption = errors.New("option not found")
	// ErrRecordNotFound indicates a missing ledger record.
	ErrRecordNotFound = errors.New("creation record not found")
	// ErrServiceUnavailable wraps transport failures talking to the quiz backend.
	ErrServiceUnavailable = errors.New("quiz backend unavailable")
)

// Wallet provider error codes with special handling.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
	CodeServerError       = -32000
)

// ProviderError is a JSON-RPC error returned by the wallet provider.
type ProviderError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// RevertReason extracts data.message from a -32000 error, falling back to the top-level message.
func (e *ProviderError) RevertReason() string {
	if len(e.Data) > 0 {
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Data, &data); err == nil && data.Message != "" {
			return data.Message
		}
	}
	return e.Message
}

// IsProviderCode reports whether err wraps a ProviderError with the given code.
func IsProviderCode(err error, code int) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Code == code
}

// ValidationError is a user-facing input error caught before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// APIError is a non-2xx backend reply. Message is the server's text verbatim
// when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// ServerMessage returns the backend message carried by err, or fallback.
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
