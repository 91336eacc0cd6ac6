// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrDataUnavailable    = errors.New("price data unavailable")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeClosed        = errors.New("trade already closed")
	ErrTradeAlreadyOpen   = errors.New("symbol already has an open trade")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrDisciplineLocked   = errors.New("rule constants locked: insufficient closed-trade sample")
)

// DataError represents a market-data error for a specific symbol.
type DataError struct {
	Symbol  string
	Bars    int
	Need    int
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("data error [%s]: %s (%d bars, need %d)", e.Symbol, e.Message, e.Bars, e.Need)
	}
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrDataUnavailable
}

// NewInsufficientData creates a DataError for a history that is too short.
func NewInsufficientData(symbol string, bars, need int) *DataError {
	return &DataError{
		Symbol:  symbol,
		Bars:    bars,
		Need:    need,
		Message: "insufficient history",
	}
}

// StorageError represents a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return ErrStorageUnavailable
}

// NewStorageError creates a new StorageError.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// ValidationError represents a configuration or input validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
