package credstore_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/zx06/xcred/internal/credstore"
)

func TestMain(m *testing.M) {
	// There does not appear to be a way to undo the mock,
	// so do it for the test binary's lifetime.
	keyring.MockInit()

	os.Exit(m.Run())
}

func TestBackend(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		testBackend(t, new(credstore.MemoryBackend))
	})

	t.Run("Keyring", func(t *testing.T) {
		testBackend(t, new(credstore.KeyringBackend))
	})

	t.Run("Fallback", func(t *testing.T) {
		testBackend(t, &credstore.FallbackBackend{
			Primary:   new(credstore.MemoryBackend),
			Secondary: new(credstore.MemoryBackend),
		})
	})

	t.Run("FallbackBrokenPrimary", func(t *testing.T) {
		testBackend(t, &credstore.FallbackBackend{
			Primary:   brokenBackend{},
			Secondary: new(credstore.MemoryBackend),
		})
	})
}

func testBackend(t *testing.T, b credstore.Backend) {
	const _service = "test-service"

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := b.Load(_service, "missing")
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("ExistsMissing", func(t *testing.T) {
		ok, err := b.Exists(_service, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	require.NoError(t, b.Save(_service, "key", []byte("secret")))

	t.Run("Load", func(t *testing.T) {
		data, err := b.Load(_service, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("secret"), data)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := b.Exists(_service, "key")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("OtherService", func(t *testing.T) {
		_, err := b.Load("other-service", "key")
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, b.Save(_service, "key", []byte("new")))

		data, err := b.Load(_service, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
	})

	t.Run("Binary", func(t *testing.T) {
		payload := []byte{0x00, 0xff, 0x10, 0x00, 0x80}
		require.NoError(t, b.Save(_service, "binary", payload))

		data, err := b.Load(_service, "binary")
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("Empty", func(t *testing.T) {
		require.NoError(t, b.Save(_service, "empty", nil))

		data, err := b.Load(_service, "empty")
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, b.Delete(_service, "key"))

		_, err := b.Load(_service, "key")
		require.ErrorIs(t, err, credstore.ErrNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		require.NoError(t, b.Delete(_service, "missing"))
	})
}

func TestFallbackBackend_NotFoundDoesNotFallBack(t *testing.T) {
	secondary := new(credstore.MemoryBackend)
	require.NoError(t, secondary.Save("svc", "key", []byte("from-secondary")))

	f := &credstore.FallbackBackend{
		Primary:   new(credstore.MemoryBackend),
		Secondary: secondary,
	}

	_, err := f.Load("svc", "key")
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestMemoryBackend_CopiesPayload(t *testing.T) {
	var m credstore.MemoryBackend
	payload := []byte("abc")
	require.NoError(t, m.Save("svc", "key", payload))
	payload[0] = 'x'

	data, err := m.Load("svc", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data[1] = 'y'
	again, err := m.Load("svc", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
	assert.Equal(t, 1, m.Len())
}

func TestFallbackBackend_DeleteClearsSecondary(t *testing.T) {
	primary := new(flakyBackend)
	secondary := new(credstore.MemoryBackend)
	f := &credstore.FallbackBackend{Primary: primary, Secondary: secondary}

	primary.down = true
	require.NoError(t, f.Save("svc", "key", []byte("v1")))
	assert.Equal(t, 1, secondary.Len())

	primary.down = false
	require.NoError(t, f.Delete("svc", "key"))
	assert.Equal(t, 0, secondary.Len())

	primary.down = true
	_, err := f.Load("svc", "key")
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestFallbackBackend_SaveClearsStaleSecondary(t *testing.T) {
	primary := new(flakyBackend)
	secondary := new(credstore.MemoryBackend)
	f := &credstore.FallbackBackend{Primary: primary, Secondary: secondary}

	primary.down = true
	require.NoError(t, f.Save("svc", "key", []byte("old")))

	primary.down = false
	require.NoError(t, f.Save("svc", "key", []byte("new")))
	assert.Equal(t, 1, primary.Len())
	assert.Equal(t, 0, secondary.Len())

	data, err := f.Load("svc", "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)

	primary.down = true
	_, err = f.Load("svc", "key")
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestFallbackBackend_Delete(t *testing.T) {
	t.Run("PrimaryDown", func(t *testing.T) {
		secondary := new(credstore.MemoryBackend)
		require.NoError(t, secondary.Save("svc", "key", []byte("v")))
		f := &credstore.FallbackBackend{Primary: brokenBackend{}, Secondary: secondary}

		require.NoError(t, f.Delete("svc", "key"))
		assert.Equal(t, 0, secondary.Len())
	})

	t.Run("SecondaryDown", func(t *testing.T) {
		primary := new(credstore.MemoryBackend)
		require.NoError(t, primary.Save("svc", "key", []byte("v")))
		f := &credstore.FallbackBackend{Primary: primary, Secondary: brokenBackend{}}

		require.NoError(t, f.Delete("svc", "key"))
		assert.Equal(t, 0, primary.Len())
	})

	t.Run("BothDown", func(t *testing.T) {
		f := &credstore.FallbackBackend{Primary: brokenBackend{}, Secondary: brokenBackend{}}
		require.ErrorIs(t, f.Delete("svc", "key"), errBroken)
	})
}

func TestFallbackBackend_SaveReportsStuckSecondary(t *testing.T) {
	f := &credstore.FallbackBackend{
		Primary:   new(credstore.MemoryBackend),
		Secondary: brokenBackend{},
	}
	require.ErrorIs(t, f.Save("svc", "key", []byte("v")), errBroken)
}
