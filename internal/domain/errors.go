package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means a provider answered but had no result for the query.
	ErrNotFound = errors.New("not found")
	// ErrProvider covers network failures, non-success statuses, undecodable
	// bodies and missing credentials on geocoding and places providers.
	ErrProvider = errors.New("provider error")
	// ErrModelInvocation means the text-generation call failed or is not configured.
	ErrModelInvocation = errors.New("model invocation failed")
	// ErrModelParse means the model answered with output that is not a price object.
	ErrModelParse = errors.New("model output not parseable")
)

// ValidationError lists every problem found in a price request.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Details, "; ")
}
