package storage

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrObjectExists = errors.New("object already exists")
	ErrInvalidPath  = errors.New("object path is invalid")
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name string
	Size int64
}

// Store is the object storage capability used for uploaded media:
// list objects under a prefix, write an object at a path (refusing to
// overwrite), and resolve the public URL for a path.
type Store interface {
	List(prefix string) ([]ObjectInfo, error)
	Upload(objectPath string, data []byte) error
	PublicURL(objectPath string) string
}

// DiskStore persists objects under a root directory and serves them
// from a static URL prefix.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates a DiskStore rooted at dir, with public URLs under baseURL.
func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// List returns the objects directly under prefix, sorted by name.
// A missing prefix directory is treated as empty, not as an error.
func (s *DiskStore) List(prefix string) ([]ObjectInfo, error) {
	cleaned, err := cleanObjectPath(prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, ObjectInfo{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// Upload writes an object at objectPath. Writing over an existing
// object fails with ErrObjectExists; callers check first and reuse.
func (s *DiskStore) Upload(objectPath string, data []byte) error {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	if cleaned == "" {
		return ErrInvalidPath
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrObjectExists
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	return f.Close()
}

// PublicURL resolves the public URL for an object path.
func (s *DiskStore) PublicURL(objectPath string) string {
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return s.baseURL
	}
	return s.baseURL + "/" + cleaned
}

// cleanObjectPath 归一化对象路径并拒绝越出存储根目录的路径。
func cleanObjectPath(p string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(p), "/")
	if trimmed == "" {
		return "", nil
	}

	cleaned := path.Clean(trimmed)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
