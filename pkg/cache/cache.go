// Package cache persists computed panels on disk or in Redis so expensive
// signal pipelines are not recomputed on every run. Entries carry the time
// they were saved; a caller-supplied staleness predicate decides whether a
// hit is still usable, typically by comparing against the source dataset
// files' modification times.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bulkfin/bulkfin-go/internal/logging"
	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// ErrMiss reports that a key has no cache entry.
var ErrMiss = errors.New("cache miss")

// Key identifies a cached panel: a readable name plus a fingerprint over
// everything that influences the computation (market, tickers, offset,
// fill method, method arguments).
type Key struct {
	Name        string
	Fingerprint string
}

// NewKey fingerprints the ids by joining their string forms with dashes
// and hashing the result.
func NewKey(name string, ids ...any) Key {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "-")))
	return Key{Name: name, Fingerprint: hex.EncodeToString(sum[:])}
}

// Short returns the first eight hex digits of the fingerprint, enough to
// keep file names readable without collisions in practice.
func (k Key) Short() string {
	if len(k.Fingerprint) < 8 {
		return k.Fingerprint
	}
	return k.Fingerprint[:8]
}

func (k Key) String() string {
	if k.Fingerprint == "" {
		return k.Name
	}
	return k.Name + "-" + k.Short()
}

// Store persists panels under keys. Load reports when the entry was saved
// and returns ErrMiss for absent keys.
type Store interface {
	Save(ctx context.Context, key Key, p *panel.Panel) error
	Load(ctx context.Context, key Key) (*panel.Panel, time.Time, error)
}

// ComputeOrLoad returns the cached panel when present and not stale, and
// otherwise computes and caches it. A nil store always computes. A nil
// stale predicate accepts any hit. Save failures are logged and swallowed,
// the computed panel is still returned.
func ComputeOrLoad(
	ctx context.Context,
	store Store,
	key Key,
	stale func(savedAt time.Time) bool,
	compute func(ctx context.Context) (*panel.Panel, error),
	log *logrus.Logger,
) (*panel.Panel, error) {
	log = logging.OrDiscard(log)

	if store != nil {
		p, savedAt, err := store.Load(ctx, key)
		switch {
		case err == nil && (stale == nil || !stale(savedAt)):
			log.WithField("key", key.String()).Debug("Cache hit")
			return p, nil
		case err == nil:
			log.WithField("key", key.String()).Debug("Cache entry is stale")
		case !errors.Is(err, ErrMiss):
			log.WithError(err).WithField("key", key.String()).Warn("Cache read failed")
		}
	}

	p, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if err := store.Save(ctx, key, p); err != nil {
			log.WithError(err).WithField("key", key.String()).Warn("Cache write failed")
		}
	}
	return p, nil
}

// OlderThan builds a staleness predicate from source file paths: an entry
// is stale when any of the files is missing or has been modified after the
// entry was saved.
func OlderThan(paths ...string) func(time.Time) bool {
	return func(savedAt time.Time) bool {
		for _, path := range paths {
			st, err := os.Stat(path)
			if err != nil || st.ModTime().After(savedAt) {
				return true
			}
		}
		return false
	}
}
