package packages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sys/unix"

	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/versions"
)

// StoreFileName is the per-project file that records installed packages.
const StoreFileName = "packages.toml"

// Save waits this long for another process to release the store lock.
var (
	storeLockTimeout = 30 * time.Second
	storeLockRetry   = 50 * time.Millisecond
)

type storeFile struct {
	Package []storeEntry `toml:"package"`
}

type storeEntry struct {
	ID      string `toml:"id"`
	Version string `toml:"version"`
}

// Store holds the installed packages of one project in declaration order.
type Store struct {
	path    string
	project string
	refs    []Reference
}

// LoadStore reads dir/packages.toml. A missing file yields an empty store.
func LoadStore(dir string, project string) (*Store, error) {
	path := filepath.Join(dir, StoreFileName)
	store := &Store{path: path, project: project}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf(messages.StoreReadFmt, path, err)
	}
	var file storeFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf(messages.StoreInvalidFmt, path, err)
	}
	for i, entry := range file.Package {
		if strings.TrimSpace(entry.ID) == "" {
			return nil, fmt.Errorf(messages.StoreMissingIDFmt, path, i)
		}
		v, err := versions.Parse(entry.Version)
		if err != nil {
			return nil, fmt.Errorf(messages.StoreInvalidEntryFmt, path, i, entry.Version, err)
		}
		store.refs = append(store.refs, Reference{
			Identity: Identity{ID: strings.TrimSpace(entry.ID), Version: v},
			Project:  project,
		})
	}
	return store, nil
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// References returns a copy of the installed references in declaration order.
func (s *Store) References() []Reference {
	return append([]Reference(nil), s.refs...)
}

// Find returns the installed reference for id, ignoring case.
func (s *Store) Find(id string) (Reference, bool) {
	for _, ref := range s.refs {
		if SameID(ref.ID, id) {
			return ref, true
		}
	}
	return Reference{}, false
}

// Upsert records identity, replacing an existing entry with the same id in place.
func (s *Store) Upsert(identity Identity) {
	ref := Reference{Identity: identity, Project: s.project}
	for i, existing := range s.refs {
		if SameID(existing.ID, identity.ID) {
			s.refs[i] = ref
			return
		}
	}
	s.refs = append(s.refs, ref)
}

// Save writes the store while holding the store lock.
func (s *Store) Save() error {
	file := storeFile{Package: make([]storeEntry, 0, len(s.refs))}
	for _, ref := range s.refs {
		file.Package = append(file.Package, storeEntry{ID: ref.ID, Version: ref.Version.String()})
	}
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf(messages.StoreEncodeFmt, err)
	}
	unlock, err := lockStore(s.path + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf(messages.StoreWriteFmt, s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf(messages.StoreWriteFmt, s.path, err)
	}
	return nil
}

// lockStore takes an exclusive flock on path, retrying while another process holds it.
func lockStore(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.StoreOpenLockFmt, path, err)
	}
	fd := int(f.Fd())
	deadline := time.Now().Add(storeLockTimeout)
	for {
		err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			if time.Now().Before(deadline) {
				time.Sleep(storeLockRetry)
				continue
			}
			err = fmt.Errorf(messages.StoreLockTimeoutFmt, storeLockTimeout)
		}
		_ = f.Close()
		return nil, fmt.Errorf(messages.StoreLockFmt, path, err)
	}
	return func() {
		_ = unix.Flock(fd, unix.LOCK_UN)
		_ = f.Close()
	}, nil
}
