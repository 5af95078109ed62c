package fpstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/auralis/internal/types"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)

	fp := types.NeutralFingerprint(120)
	fp.ContentClass = types.ClassElectronic

	key := Key("/music/track.flac", []byte("content-bytes"))

	require.NoError(t, store.Store(key, &fp))

	loaded, ok := store.Load(key)
	require.True(t, ok)
	assert.Equal(t, fp.ContentClass, loaded.ContentClass)
	assert.InDelta(t, fp.IntegratedLUFS, loaded.IntegratedLUFS, 1e-9)
}

func TestLoadMissingIsCacheMiss(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)

	_, ok := store.Load("does-not-exist")
	assert.False(t, ok)
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("/a/b.flac", []byte("hello"))
	b := Key("/a/b.flac", []byte("hello"))
	c := Key("/a/b.flac", []byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestClearAllRemovesEveryRecord(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)

	fp := types.NeutralFingerprint(60)
	require.NoError(t, store.Store("one", &fp))
	require.NoError(t, store.Store("two", &fp))

	require.NoError(t, store.ClearAll())

	_, ok := store.Load("one")
	assert.False(t, ok)
}
