package service

import (
	"fmt"
	"strings"
)

// NotFoundError marks an absent project/investment/record. Handlers map it
// to 404; it is never silently defaulted.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func notFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// ValidationError carries every structural violation of a write, not just
// the first. Warnings never ride on it; they stay on the ValidationResult.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RangeError rejects inverted or malformed date ranges.
type RangeError struct {
	Message string
}

func (e *RangeError) Error() string {
	return e.Message
}

func invalidRange(msg string) error {
	return &RangeError{Message: msg}
}
