package model

import "errors"

// Sentinel errors for programmatic checking.
var (
	ErrMalformedLine = errors.New("malformed triple line")
	ErrNoShard       = errors.New("shard file missing")
	ErrRateLimited   = errors.New("rate limited by remote endpoint")
)

// ErrorCode provides a machine-readable error type for diagnostics output.
type ErrorCode string

const (
	ECNone      ErrorCode = ""
	ECParse     ErrorCode = "ERR_PARSE"
	ECIO        ErrorCode = "ERR_IO"
	ECHTTP      ErrorCode = "ERR_HTTP"
	ECRateLimit ErrorCode = "ERR_RATE_LIMIT"
	ECConfig    ErrorCode = "ERR_CONFIG"
	ECUnknown   ErrorCode = "ERR_UNKNOWN"
)
