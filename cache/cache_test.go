package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/refinery/storage"
	"github.com/poiesic/refinery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, storage.ResultStore) {
	t.Helper()
	store, err := badger.NewMemoryResultStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := New(store, opts...)
	require.NoError(t, err)
	return c, store
}

func TestKey(t *testing.T) {
	assert.Equal(t, "refinery:result:report.pdf", Key("refinery", "report.pdf"))
}

func TestCodecRoundTrip(t *testing.T) {
	values := []string{
		"",
		`{"text":"hello"}`,
		"héllo wörld ✓",
		strings.Repeat("compressible ", 10_000),
	}
	for _, v := range values {
		raw, err := Encode(v)
		require.NoError(t, err)

		got, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestCodecCompresses(t *testing.T) {
	v := strings.Repeat("a", 100_000)
	raw, err := Encode(v)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(v)/10)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not an envelope"))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsBadGzip(t *testing.T) {
	raw, err := msgpack.Marshal(&envelope{Version: envelopeVersion, Data: []byte("plain, not gzip")})
	require.NoError(t, err)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsChecksumMismatch(t *testing.T) {
	raw, err := Encode("original")
	require.NoError(t, err)

	var env envelope
	require.NoError(t, msgpack.Unmarshal(raw, &env))
	env.Sum++
	tampered, err := msgpack.Marshal(&env)
	require.NoError(t, err)

	_, err = Decode(tampered)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCacheGetSet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a.txt", `{"text":"hi"}`))

	v, ok, err := c.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"text":"hi"}`, v)
}

func TestCacheCorruptEntryIsMissWithError(t *testing.T) {
	c, store := newTestCache(t, WithNamespace("test"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, Key("test", "bad.txt"), []byte{0x01, 0x02}, time.Hour))

	v, ok, err := c.Get(ctx, "bad.txt")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCacheNamespaces(t *testing.T) {
	store, err := badger.NewMemoryResultStore()
	require.NoError(t, err)
	defer store.Close()

	a, err := New(store, WithNamespace("a"))
	require.NoError(t, err)
	b, err := New(store, WithNamespace("b"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "f.txt", "from a"))

	_, ok, err := b.Get(ctx, "f.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Purge(ctx))
	_, ok, err = a.Get(ctx, "f.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDefaults(t *testing.T) {
	c, _ := newTestCache(t)
	assert.Equal(t, DefaultNamespace, c.Namespace())
	assert.Equal(t, 24*time.Hour, c.TTL())

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

type failingStore struct {
	storage.ResultStore
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestWriterSwallowsFailures(t *testing.T) {
	c, err := New(failingStore{})
	require.NoError(t, err)

	w, err := NewWriter(c, 1)
	require.NoError(t, err)

	var mu sync.Mutex
	var results []error
	w.OnResult = func(_ string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	}

	w.SetAsync("a.txt", "v")
	w.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.Error(t, results[0])
}

func TestWriterWritesEventually(t *testing.T) {
	c, _ := newTestCache(t)
	w, err := NewWriter(c, 2)
	require.NoError(t, err)
	defer w.Close()

	w.SetAsync("a.txt", "value")
	w.Wait()

	v, ok, err := c.Get(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestWriterDropsWritesAfterClose(t *testing.T) {
	c, _ := newTestCache(t)
	w, err := NewWriter(c, 2)
	require.NoError(t, err)

	var mu sync.Mutex
	var results []error
	w.OnResult = func(_ string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	}

	w.Close()
	assert.NotPanics(t, func() { w.SetAsync("late.txt", "value") })
	w.Close()

	mu.Lock()
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0], ErrWriterClosed)
	mu.Unlock()

	_, ok, err := c.Get(context.Background(), "late.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriterCloseRacesSetAsync(t *testing.T) {
	c, _ := newTestCache(t)
	w, err := NewWriter(c, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				w.SetAsync("a.txt", "value")
			}
		}()
	}
	w.Close()
	wg.Wait()
}
