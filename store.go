package zarr

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	MemoryStoreType    = "MemoryStore"
	LocalStoreType     = "LocalStore"
	dirPermissionBits  = 0755
	filePermissionBits = 0644
)

var ErrNotFound = errors.New("not found")

// Store is a hierarchical key-value store. Keys are "/"-separated logical
// paths relative to the store root.
type Store interface {
	Get(key string) (io.ReadCloser, error)
	// Has reports whether key names a readable document.
	Has(key string) (bool, error)
	// List returns the names of the immediate child directories of prefix, in
	// the order the backend yields them.
	List(prefix string) ([]string, error)
	Put(key string, val io.Reader) error
	Type() string
}

type MemoryStore struct {
	lk   sync.Mutex
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: map[string][]byte{},
	}
}

func (s *MemoryStore) Type() string { return MemoryStoreType }

func (s *MemoryStore) Get(key string) (io.ReadCloser, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	d, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return ioutil.NopCloser(bytes.NewReader(d)), nil
}

func (s *MemoryStore) Has(key string) (bool, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

// List derives directories from key prefixes: "a/b/.zarray" implies the
// directories "a" and "a/b". Children are returned sorted.
func (s *MemoryStore) List(prefix string) ([]string, error) {
	s.lk.Lock()
	defer s.lk.Unlock()

	found := prefix == ""
	seen := map[string]struct{}{}
	var children []string
	for key := range s.data {
		rest := key
		if prefix != "" {
			if !strings.HasPrefix(key, prefix+"/") {
				continue
			}
			found = true
			rest = key[len(prefix)+1:]
		}
		i := strings.IndexByte(rest, '/')
		if i <= 0 {
			continue
		}
		name := rest[:i]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		children = append(children, name)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}

	sort.Strings(children)
	return children, nil
}

func (s *MemoryStore) Put(key string, val io.Reader) error {
	d, err := ioutil.ReadAll(val)
	if err != nil {
		return err
	}

	s.lk.Lock()
	defer s.lk.Unlock()
	s.data[key] = d

	return nil
}

// LocalStore is a Store backed by a directory on the local filesystem.
type LocalStore struct {
	base string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store rooted at base. The directory is not created;
// a missing base shows up as missing documents.
func NewLocalStore(base string) (*LocalStore, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}

	return &LocalStore{
		base: base,
	}, nil
}

func (s *LocalStore) Type() string { return LocalStoreType }

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(key))
}

func (s *LocalStore) Get(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

func (s *LocalStore) Has(key string) (bool, error) {
	fi, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// List reports directories in os.ReadDir order. Symbolic links to
// directories are reported like the directories they point at.
func (s *LocalStore) List(prefix string) ([]string, error) {
	dir := s.path(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var children []string
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			// dangling links are skipped
			if fi, err := os.Stat(filepath.Join(dir, e.Name())); err != nil || !fi.IsDir() {
				continue
			}
		} else if !e.IsDir() {
			continue
		}
		children = append(children, e.Name())
	}
	return children, nil
}

// Put writes val to a temporary file next to key and renames it into place,
// so readers never observe a partially written document.
func (s *LocalStore) Put(key string, val io.Reader) (err error) {
	path := s.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissionBits); err != nil {
		return err
	}

	f, err := ioutil.TempFile(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err = io.Copy(f, val); err != nil {
		return err
	}
	if err = f.Chmod(filePermissionBits); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
