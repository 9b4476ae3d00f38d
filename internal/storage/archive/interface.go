// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/coinview/internal/core"
)

// Storage defines the interface for payload archive backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)
}

// Archive keeps raw coin payloads as they were received from upstream,
// one object per fetch under coins/{id}/{unix-nano}.json.
type Archive struct {
	storage Storage
}

// New wraps a storage backend.
func New(storage Storage) *Archive {
	return &Archive{storage: storage}
}

// PayloadPath returns the object path for a payload of id fetched at t.
func PayloadPath(id string, t time.Time) string {
	return path.Join("coins", id, fmt.Sprintf("%019d.json", t.UnixNano()))
}

// Save stores a raw payload and returns its path.
func (a *Archive) Save(ctx context.Context, id string, raw []byte, at time.Time) (string, error) {
	if err := core.ValidateCoinID(id); err != nil {
		return "", err
	}
	p := PayloadPath(id, at)
	if err := a.storage.Write(ctx, p, raw); err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, err)
	}
	return p, nil
}

// Load reads an archived payload by path.
func (a *Archive) Load(ctx context.Context, p string) ([]byte, error) {
	data, err := a.storage.Read(ctx, p)
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, err)
	}
	return data, nil
}

// Latest returns the most recently archived payload for id and its path.
func (a *Archive) Latest(ctx context.Context, id string) ([]byte, string, error) {
	if err := core.ValidateCoinID(id); err != nil {
		return nil, "", err
	}
	// The trailing slash keeps prefix listings (S3) from matching ids that
	// merely start with id, like bitcoinz for bitcoin.
	dir := path.Join("coins", id)
	paths, err := a.storage.List(ctx, dir+"/")
	if err != nil {
		return nil, "", core.WrapError(core.ErrArchiveFailed, err)
	}

	var payloads []string
	for _, p := range paths {
		if path.Dir(p) == dir && strings.HasSuffix(p, ".json") {
			payloads = append(payloads, p)
		}
	}
	if len(payloads) == 0 {
		return nil, "", core.WrapError(core.ErrCoinNotFound, fmt.Errorf("no archived payload for %s", id))
	}

	sort.Strings(payloads)
	latest := payloads[len(payloads)-1]
	data, err := a.Load(ctx, latest)
	if err != nil {
		return nil, "", err
	}
	return data, latest, nil
}
