package models

import (
	"errors"
	"fmt"
)

// ErrAggregationFailure marks a run that produced no usable shop data.
// Results carrying it are never cached.
var ErrAggregationFailure = errors.New("aggregation failed")

// ErrEmptyQuery is returned for a query that is blank after normalization.
var ErrEmptyQuery = errors.New("query must not be empty")

// FetchError is a network failure or timeout talking to a shop.
type FetchError struct {
	ShopID string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.ShopID, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the page did not have the expected structure.
type ParseError struct {
	ShopID string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.ShopID, e.Reason)
}

// ValidationError rejects a single record. The rest of the page is kept.
type ValidationError struct {
	ShopID string
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q from %s: %s", e.Field, e.Value, e.ShopID, e.Reason)
}
