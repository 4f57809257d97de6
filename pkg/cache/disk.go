package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bulkfin/bulkfin-go/pkg/panel"
)

// DiskStore keeps one CSV file per key in a directory. The saved-at
// timestamp is the file's modification time.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) path(key Key) string {
	return filepath.Join(s.dir, key.String()+".csv")
}

// Save writes the entry through a temp file so readers never observe a
// partial write.
func (s *DiskStore) Save(_ context.Context, key Key, p *panel.Panel) error {
	data, err := encodePanel(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := s.path(key)
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *DiskStore) Load(_ context.Context, key Key) (*panel.Panel, time.Time, error) {
	path := s.path(key)
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, ErrMiss
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	p, err := decodePanel(data)
	if err != nil {
		return nil, time.Time{}, err
	}
	return p, st.ModTime(), nil
}
