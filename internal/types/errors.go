package types

import (
	"errors"
	"fmt"
)

// MalformedDataError reports candle data with missing or unparseable fields.
type MalformedDataError struct {
	Index  int // row index in the raw input, -1 when not row specific
	Field  string
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	msg := "malformed candle data"
	if e.Index >= 0 {
		msg += fmt.Sprintf(" at row %d", e.Index)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// InsufficientDataError reports a series too short for an indicator.
type InsufficientDataError struct {
	Indicator string
	Need      int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d, got %d", e.Indicator, e.Need, e.Got)
}

// AdapterError is a failure reported by the exchange layer, carrying the remote code and message.
type AdapterError struct {
	Op      string // "fetch_candles" or "submit_order"
	Code    string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	msg := fmt.Sprintf("%s failed: code=%s", e.Op, e.Code)
	if e.Message != "" {
		msg += " msg=" + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AdapterError) Unwrap() error { return e.Err }

const (
	KindMalformedData    = "malformed_data"
	KindInsufficientData = "insufficient_data"
	KindAdapter          = "adapter"
	KindOther            = "other"
)

// ErrorKind classifies err by the taxonomy above, for logs and metrics labels.
func ErrorKind(err error) string {
	var (
		malformed    *MalformedDataError
		insufficient *InsufficientDataError
		adapter      *AdapterError
	)
	switch {
	case errors.As(err, &malformed):
		return KindMalformedData
	case errors.As(err, &insufficient):
		return KindInsufficientData
	case errors.As(err, &adapter):
		return KindAdapter
	}
	return KindOther
}
