package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ggranum/fetherbrik/internal/sources"
)

// FileName is the snapshot file written under the runtime directory.
const FileName = "effective.json5"

var (
	// ErrNoSnapshot indicates nothing has been saved yet.
	ErrNoSnapshot = errors.New("no configuration snapshot saved")
	// ErrInvalidSnapshot indicates a snapshot body that is not a relaxed-JSON object.
	ErrInvalidSnapshot = errors.New("configuration snapshot is not a valid json5 object")
)

// Snapshot is the effective configuration of one process start.
type Snapshot struct {
	RunID   string
	Env     string
	Version string
	SavedAt time.Time
	// Body is the configuration encoded as relaxed JSON.
	Body []byte
}

// Store keeps the most recent configuration snapshot.
type Store interface {
	Save(s Snapshot) error
	Latest() (Snapshot, error)
}

// MemoryStore keeps the snapshot in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save validates and stores a copy of s.
func (m *MemoryStore) Save(s Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}
	c := clone(s)

	m.mu.Lock()
	m.latest = &c
	m.mu.Unlock()
	return nil
}

// Latest returns a copy of the stored snapshot.
func (m *MemoryStore) Latest() (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return clone(*m.latest), nil
}

// FileStore writes the snapshot to <Dir>/effective.json5. Metadata is kept in
// leading comment lines so the file stays a valid relaxed-JSON document.
type FileStore struct {
	Dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string {
	return filepath.Join(f.Dir, FileName)
}

// Save writes the snapshot atomically through a temporary file.
func (f *FileStore) Save(s Snapshot) error {
	if err := validate(s); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.Dir, FileName+".*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "// run: %s\n", s.RunID)
	fmt.Fprintf(w, "// env: %s\n", s.Env)
	fmt.Fprintf(w, "// version: %s\n", s.Version)
	fmt.Fprintf(w, "// saved: %s\n", s.SavedAt.UTC().Format(time.RFC3339))
	w.Write(s.Body)
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path()); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Latest reads the snapshot file back.
func (f *FileStore) Latest() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	rest := data
	for {
		line, tail, found := bytes.Cut(rest, []byte("\n"))
		key, value, ok := strings.Cut(strings.TrimPrefix(string(line), "// "), ": ")
		if !found || !bytes.HasPrefix(line, []byte("// ")) || !ok {
			break
		}
		switch key {
		case "run":
			s.RunID = value
		case "env":
			s.Env = value
		case "version":
			s.Version = value
		case "saved":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				s.SavedAt = t
			}
		}
		rest = tail
	}
	s.Body = append([]byte(nil), rest...)
	if err := validate(s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func validate(s Snapshot) error {
	if _, err := sources.ParseJSON5(s.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

func clone(s Snapshot) Snapshot {
	s.Body = append([]byte(nil), s.Body...)
	return s
}
