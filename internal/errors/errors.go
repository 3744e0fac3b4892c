// Package errors defines the error taxonomy for the batch pipeline.
//
// Per-market failures are isolated: a market whose trade source cannot
// be resolved is skipped and logged while the remaining markets keep
// processing. The only fatal condition is the total absence of valid
// input markets.
package errors

import (
	"errors"
	"fmt"
)

// ErrNoValidMarkets is returned when a batch run finds no market with a
// resolvable trade source. It is the only error that aborts a run.
var ErrNoValidMarkets = errors.New("no valid input markets")

// MissingFieldError reports that a required column could not be
// resolved from a market's trade source. The market is skipped.
type MissingFieldError struct {
	MarketID string
	Field    string
	Tried    []string
}

// Error implements the error interface
func (e *MissingFieldError) Error() string {
	if len(e.Tried) > 0 {
		return fmt.Sprintf("market %s: could not resolve required field %q (tried %v)", e.MarketID, e.Field, e.Tried)
	}
	return fmt.Sprintf("market %s: could not resolve required field %q", e.MarketID, e.Field)
}

// NewMissingFieldError creates a MissingFieldError for a market
func NewMissingFieldError(marketID, field string, tried []string) *MissingFieldError {
	return &MissingFieldError{MarketID: marketID, Field: field, Tried: tried}
}

// IsMissingField reports whether err is a MissingFieldError
func IsMissingField(err error) bool {
	var target *MissingFieldError
	return errors.As(err, &target)
}

// EmptyPanelError reports that a (market, segment) pair produced no
// daily panel because the segment had no trades. Downstream consumers
// treat the absent cohort as all-undefined rather than failing.
type EmptyPanelError struct {
	MarketID string
	Segment  string
}

// Error implements the error interface
func (e *EmptyPanelError) Error() string {
	return fmt.Sprintf("market %s: segment %s has no trades, no panel produced", e.MarketID, e.Segment)
}

// IsEmptyPanel reports whether err is an EmptyPanelError
func IsEmptyPanel(err error) bool {
	var target *EmptyPanelError
	return errors.As(err, &target)
}
