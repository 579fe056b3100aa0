package database

import (
	"errors"
	"fmt"
)

// Common database errors
var (
	// ErrConnection is returned when the database cannot be reached or rejects the login
	ErrConnection = errors.New("database connection error")

	// ErrStatement is returned when the database rejects a statement
	ErrStatement = errors.New("statement execution error")

	// ErrNotConnected is returned when a session is used before Connect succeeded
	ErrNotConnected = errors.New("database connection not established")

	// ErrAlreadyConnected is returned when Connect is called twice on one session
	ErrAlreadyConnected = errors.New("database connection already established")

	// ErrUnsupportedDriver is returned for drivers the factory cannot open
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// ConnectionError wraps a failure to open or ping the database
type ConnectionError struct {
	Target string // Redacted connection target
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection to %s failed: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// StatementExecutionError wraps a failed statement
type StatementExecutionError struct {
	Statement string // Name of the script or statement that failed
	Err       error
}

func (e *StatementExecutionError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("executing %s failed: %v", e.Statement, e.Err)
	}
	return fmt.Sprintf("statement execution failed: %v", e.Err)
}

func (e *StatementExecutionError) Unwrap() error {
	return e.Err
}

func (e *StatementExecutionError) Is(target error) bool {
	return target == ErrStatement
}

// IsConnection checks if an error is a "connection" error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsStatement checks if an error is a "statement execution" error
func IsStatement(err error) bool {
	return errors.Is(err, ErrStatement)
}
