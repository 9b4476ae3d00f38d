package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/coinview/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadPath(t *testing.T) {
	at := time.Unix(1700000000, 42)
	assert.Equal(t, "coins/bitcoin/1700000000000000042.json", PayloadPath("bitcoin", at))
}

func TestArchive_SaveAndLatest(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	a := New(fs)
	ctx := context.Background()

	base := time.Unix(1700000000, 0)
	_, err = a.Save(ctx, "bitcoin", []byte(`{"v":1}`), base)
	require.NoError(t, err)
	p2, err := a.Save(ctx, "bitcoin", []byte(`{"v":2}`), base.Add(time.Minute))
	require.NoError(t, err)
	_, err = a.Save(ctx, "ethereum", []byte(`{"v":3}`), base.Add(time.Hour))
	require.NoError(t, err)

	data, path, err := a.Latest(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, p2, path)
	assert.JSONEq(t, `{"v":2}`, string(data))

	loaded, err := a.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestArchive_LatestMissing(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	_, _, err = New(fs).Latest(context.Background(), "bitcoin")
	assert.True(t, errors.Is(err, core.ErrCoinNotFound))
}

func TestArchive_SaveRejectsInvalidID(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	_, err = New(fs).Save(context.Background(), "../x", []byte("{}"), time.Now())
	assert.ErrorIs(t, err, core.ErrInvalidCoinID)
}

// prefixStorage lists by raw key prefix the way object stores do.
type prefixStorage struct {
	objects map[string][]byte
}

func (p *prefixStorage) Write(ctx context.Context, path string, data []byte) error {
	p.objects[path] = data
	return nil
}

func (p *prefixStorage) Read(ctx context.Context, path string) ([]byte, error) {
	data, ok := p.objects[path]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (p *prefixStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	for k := range p.objects {
		if strings.HasPrefix(k, prefix) {
			paths = append(paths, k)
		}
	}
	return paths, nil
}

func TestArchive_LatestIgnoresSiblingIDs(t *testing.T) {
	a := New(&prefixStorage{objects: make(map[string][]byte)})
	ctx := context.Background()

	want, err := a.Save(ctx, "bitcoin", []byte(`{"name":"Bitcoin"}`), time.Unix(0, 100))
	require.NoError(t, err)
	for _, id := range []string{"bitcoinz", "bitcoin2", "bitcoin.cash"} {
		_, err := a.Save(ctx, id, []byte(`{"name":"other"}`), time.Unix(0, 50))
		require.NoError(t, err)
	}

	data, p, err := a.Latest(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, want, p)
	assert.JSONEq(t, `{"name":"Bitcoin"}`, string(data))

	_, _, err = a.Latest(ctx, "bitcoi")
	assert.ErrorIs(t, err, core.ErrCoinNotFound)
}
