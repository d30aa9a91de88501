package credstore_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"

	"github.com/zx06/xcred/internal/credstore"
)

var errBroken = errors.New("credential store unavailable")

// brokenBackend fails every operation.
type brokenBackend struct{}

func (brokenBackend) Save(string, string, []byte) error   { return errBroken }
func (brokenBackend) Load(string, string) ([]byte, error) { return nil, errBroken }
func (brokenBackend) Delete(string, string) error         { return errBroken }
func (brokenBackend) Exists(string, string) (bool, error) { return false, errBroken }

// readOnlyBackend serves reads from an inner backend and rejects writes.
type readOnlyBackend struct {
	credstore.Backend
}

func (readOnlyBackend) Save(string, string, []byte) error { return errBroken }

func newTestStore(b credstore.Backend) (*credstore.Store, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return credstore.New(b, credstore.Options{Service: "test", Logger: logger}), &logs
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

// flakyBackend wraps a backend that can be switched off.
// While down, every operation fails with errBroken.
type flakyBackend struct {
	credstore.MemoryBackend

	down bool
}

func (f *flakyBackend) Save(service, key string, data []byte) error {
	if f.down {
		return errBroken
	}
	return f.MemoryBackend.Save(service, key, data)
}

func (f *flakyBackend) Load(service, key string) ([]byte, error) {
	if f.down {
		return nil, errBroken
	}
	return f.MemoryBackend.Load(service, key)
}

func (f *flakyBackend) Delete(service, key string) error {
	if f.down {
		return errBroken
	}
	return f.MemoryBackend.Delete(service, key)
}

func (f *flakyBackend) Exists(service, key string) (bool, error) {
	if f.down {
		return false, errBroken
	}
	return f.MemoryBackend.Exists(service, key)
}

// stickyBackend refuses deletes and otherwise behaves like memory.
type stickyBackend struct {
	credstore.MemoryBackend
}

func (*stickyBackend) Delete(string, string) error { return errBroken }
