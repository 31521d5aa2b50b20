package core

import (
	"encoding/json"
)

// ErrCode enumerates common error identifiers.
const (
	ErrParse     = "ERR_PARSE"
	ErrIO        = "ERR_IO"
	ErrHTTP      = "ERR_HTTP"
	ErrRateLimit = "ERR_RATE_LIMIT"
	ErrConfig    = "ERR_CONFIG"
)

// CLIError is a uniform error payload for both human and JSON output.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e CLIError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e CLIError) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap generates a CLIError with code and wraps the inner error for detail.
func Wrap(code, msg string, inner error) error {
	return CLIError{Code: code, Message: msg, Detail: inner.Error()}
}
