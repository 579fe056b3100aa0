package secrets

import (
	"errors"
	"fmt"
)

// Common secret resolution errors
var (
	// ErrSecretNotFound is returned when the store has no string payload for the identifier
	ErrSecretNotFound = errors.New("secret not found")

	// ErrStoreUnavailable is returned when the secret store call itself fails
	ErrStoreUnavailable = errors.New("secret store unavailable")

	// ErrInvalidSecret is returned when the payload is not a usable database configuration
	ErrInvalidSecret = errors.New("invalid secret")
)

// MissingSecretError is returned when no secret string exists for an identifier.
// Its message is reported verbatim to the provisioning orchestrator.
type MissingSecretError struct {
	SecretID string
	Err      error // Store error, if the store reported the absence
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("Failed to find secret with the specified id: %s", e.SecretID)
}

func (e *MissingSecretError) Unwrap() error {
	return e.Err
}

func (e *MissingSecretError) Is(target error) bool {
	return target == ErrSecretNotFound
}

// StoreUnavailableError wraps a failed call to the secret store
type StoreUnavailableError struct {
	SecretID string
	Err      error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("failed to read secret %q: %v", e.SecretID, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// InvalidSecretError is returned when the secret payload cannot be parsed or validated
type InvalidSecretError struct {
	SecretID string
	Err      error
}

func (e *InvalidSecretError) Error() string {
	return fmt.Sprintf("secret %q is not a valid database configuration: %v", e.SecretID, e.Err)
}

func (e *InvalidSecretError) Unwrap() error {
	return e.Err
}

func (e *InvalidSecretError) Is(target error) bool {
	return target == ErrInvalidSecret
}

// IsNotFound checks if an error is a "secret not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSecretNotFound)
}

// IsStoreUnavailable checks if an error is a "store unavailable" error
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
