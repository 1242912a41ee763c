package notepad

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// FileStore keeps notes as plain files under <root>/<namespace>/<name>.
// Directories are created on first write.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore { return &FileStore{root: dir} }

// Root returns the notes directory.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) path(namespace, name string) (string, error) {
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, Namespace(namespace), name), nil
}

// Save writes the note, replacing existing content.
func (s *FileStore) Save(namespace, name string, data []byte) error {
	p, err := s.path(namespace, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}

	return nil
}

// Get reads the note or returns ErrNotFound.
func (s *FileStore) Get(namespace, name string) ([]byte, error) {
	p, err := s.path(namespace, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read note: %w", err)
	}

	return data, nil
}

// List returns the sorted note names of the namespace.
func (s *FileStore) List(namespace string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, Namespace(namespace)))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	return names, nil
}

// Delete removes the note or returns ErrNotFound.
func (s *FileStore) Delete(namespace, name string) error {
	p, err := s.path(namespace, name)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}

	return err
}
