// Package credstore keeps small secrets in a platform credential store
// under a fixed service namespace.
//
// A Store wraps one Backend. Backends do the platform-specific work
// (OS keyring, encrypted SQL vault, memory); the Store turns their errors
// into boolean and optional results and logs every outcome.
package credstore

import (
	"errors"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned by backends when no record exists for a key.
	ErrNotFound = errors.New("credential not found")

	// ErrUnsupported indicates that the OS keyring is not available
	// on the current platform.
	ErrUnsupported = keyring.ErrUnsupportedPlatform
)

// AccessPolicy describes when a stored record may be read.
type AccessPolicy string

// AccessWhenUnlockedThisDeviceOnly restricts a record to the creating user,
// readable only while the device is unlocked, and never synchronized.
// It is the only policy records are written with.
const AccessWhenUnlockedThisDeviceOnly AccessPolicy = "when-unlocked-this-device-only"

// Backend is a platform credential store.
// Records are addressed by (service, key) and hold opaque bytes.
type Backend interface {
	// Save writes data under (service, key), replacing any existing record.
	Save(service, key string, data []byte) error

	// Load returns the record's payload, or ErrNotFound.
	Load(service, key string) ([]byte, error)

	// Delete removes the record.
	// It is a no-op if the record does not exist.
	Delete(service, key string) error

	// Exists reports whether a record exists without reading its payload.
	Exists(service, key string) (bool, error)
}

// Lister is implemented by backends that can enumerate their keys.
// The OS keyring cannot.
type Lister interface {
	Keys(service string) ([]string, error)
}
