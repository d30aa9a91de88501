package credstore

import (
	"errors"
	"io"
	"log/slog"

	xlog "github.com/zx06/xcred/internal/log"
)

// DefaultService is the namespace records are stored under
// when Options.Service is empty.
const DefaultService = "xcred"

// Options configures a Store.
type Options struct {
	// Service is the namespace separating this application's records
	// from others in the same credential store.
	Service string

	// Logger receives one line per operation. Payloads are never logged.
	Logger *slog.Logger

	// Rand is the randomness source for generated keys.
	// Defaults to crypto/rand.
	Rand io.Reader
}

// Store is a handle to one namespace of a credential store.
// Construct it once and share it; it holds no state besides its Backend.
//
// Store methods never return errors: failures are logged and reported
// as false or absent. Use Lookup to tell "not found" from "failed".
type Store struct {
	backend Backend
	service string
	log     *slog.Logger
	rand    io.Reader
}

// New builds a Store over backend.
func New(backend Backend, opts Options) *Store {
	service := opts.Service
	if service == "" {
		service = DefaultService
	}
	logger := xlog.WithSubsystem(opts.Logger, xlog.Subsystem, xlog.Category)
	return &Store{
		backend: backend,
		service: service,
		log:     logger.With(slog.String("service", service)),
		rand:    opts.Rand,
	}
}

// Service reports the namespace of the store.
func (s *Store) Service() string { return s.service }

// Status is the outcome of a Lookup.
type Status int

const (
	StatusFound Status = iota + 1
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not-found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a Lookup.
// Data is set only for StatusFound, Err only for StatusFailed.
type Result struct {
	Status Status
	Data   []byte
	Err    error
}

var errEmptyKey = errors.New("empty key")

// Save replaces the record for key with data.
//
// Any prior record is removed first, then the new one is added.
// The two steps are not atomic on every backend:
// concurrent writers of the same key must serialize themselves.
func (s *Store) Save(key string, data []byte) bool {
	log := s.log.With(slog.String("op", "save"), slog.String("key", key))
	if key == "" {
		log.Error("save failed", slog.Any("error", errEmptyKey))
		return false
	}

	if err := s.backend.Delete(s.service, key); err != nil {
		log.Warn("removing previous record failed", slog.Any("error", err))
	}

	if err := s.backend.Save(s.service, key, data); err != nil {
		log.Error("save failed", slog.Any("error", err))
		return false
	}

	log.Info("saved credential", slog.String("access", string(AccessWhenUnlockedThisDeviceOnly)))
	return true
}

// Lookup reads the record for key and reports
// whether it was found, absent, or unreadable.
func (s *Store) Lookup(key string) Result {
	log := s.log.With(slog.String("op", "load"), slog.String("key", key))
	if key == "" {
		log.Error("load failed", slog.Any("error", errEmptyKey))
		return Result{Status: StatusFailed, Err: errEmptyKey}
	}

	data, err := s.backend.Load(s.service, key)
	switch {
	case err == nil:
		log.Debug("loaded credential")
		return Result{Status: StatusFound, Data: data}
	case errors.Is(err, ErrNotFound):
		log.Debug("credential not found")
		return Result{Status: StatusNotFound}
	default:
		log.Error("load failed", slog.Any("error", err))
		return Result{Status: StatusFailed, Err: err}
	}
}

// Load returns the payload for key.
// ok is false both when no record exists and when the read failed.
func (s *Store) Load(key string) (data []byte, ok bool) {
	r := s.Lookup(key)
	if r.Status != StatusFound {
		return nil, false
	}
	return r.Data, true
}

// Delete removes the record for key.
// Deleting a key that was never saved succeeds.
func (s *Store) Delete(key string) bool {
	log := s.log.With(slog.String("op", "delete"), slog.String("key", key))
	if key == "" {
		log.Error("delete failed", slog.Any("error", errEmptyKey))
		return false
	}

	if err := s.backend.Delete(s.service, key); err != nil {
		log.Error("delete failed", slog.Any("error", err))
		return false
	}

	log.Info("deleted credential")
	return true
}

// Exists reports whether a record for key exists.
// Read failures report false.
func (s *Store) Exists(key string) bool {
	log := s.log.With(slog.String("op", "exists"), slog.String("key", key))
	if key == "" {
		log.Error("exists failed", slog.Any("error", errEmptyKey))
		return false
	}

	ok, err := s.backend.Exists(s.service, key)
	if err != nil {
		log.Error("exists failed", slog.Any("error", err))
		return false
	}

	log.Debug("checked credential", slog.Bool("exists", ok))
	return ok
}

// ErrNotListable is returned by Keys when the backend cannot enumerate records.
var ErrNotListable = errors.New("backend cannot list keys")

// Keys lists the keys stored in the namespace.
// Unlike the other operations it returns an error,
// since an empty list and an unsupported backend must differ.
func (s *Store) Keys() ([]string, error) {
	l, ok := s.backend.(Lister)
	if !ok {
		return nil, ErrNotListable
	}
	keys, err := l.Keys(s.service)
	if err != nil {
		s.log.Error("list failed", slog.String("op", "list"), slog.Any("error", err))
		return nil, err
	}
	s.log.Debug("listed credentials", slog.String("op", "list"), slog.Int("count", len(keys)))
	return keys, nil
}
