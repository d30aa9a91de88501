package credstore

import (
	"errors"
	"fmt"
)

// FallbackBackend is a credential store that falls back to a secondary
// backend if the primary backend fails.
//
// A record lives in at most one of the two backends:
// writes that reach the primary clear any copy the secondary
// picked up while the primary was unavailable.
type FallbackBackend struct {
	Primary, Secondary Backend // required
}

var _ Backend = (*FallbackBackend)(nil)

// Save saves to the primary backend and removes any secondary copy.
// If the primary fails, it falls back to the secondary backend.
func (f *FallbackBackend) Save(service, key string, data []byte) error {
	if err := f.Primary.Save(service, key, data); err != nil {
		return f.Secondary.Save(service, key, data)
	}
	if err := f.Secondary.Delete(service, key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("remove secondary copy: %w", err)
	}
	return nil
}

// Load loads from the primary backend.
// If the operation fails NOT because the record is not found,
// it falls back to the secondary backend.
func (f *FallbackBackend) Load(service, key string) ([]byte, error) {
	data, err := f.Primary.Load(service, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		data, err = f.Secondary.Load(service, key)
	}
	return data, err
}

// Delete deletes from both backends.
// It fails only if neither backend could be cleared.
func (f *FallbackBackend) Delete(service, key string) error {
	perr := f.Primary.Delete(service, key)
	if errors.Is(perr, ErrNotFound) {
		perr = nil
	}
	serr := f.Secondary.Delete(service, key)
	if errors.Is(serr, ErrNotFound) {
		serr = nil
	}
	if perr != nil && serr != nil {
		return errors.Join(perr, serr)
	}
	return nil
}

// Exists asks the primary backend,
// and if that fails, the secondary backend.
func (f *FallbackBackend) Exists(service, key string) (bool, error) {
	ok, err := f.Primary.Exists(service, key)
	if err != nil {
		return f.Secondary.Exists(service, key)
	}
	return ok, nil
}
