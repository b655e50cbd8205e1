package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	cmstorage "github.com/chartmuseum/storage"
)

// LocalStore implements ObjectStorage on a local directory through chartmuseum's filesystem backend.
type LocalStore struct {
	root    string
	backend cmstorage.Backend
}

// NewLocalStore stores objects under root, creating it on first write.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage directory must be provided")
	}

	return &LocalStore{root: root, backend: cmstorage.NewLocalFilesystemBackend(root)}, nil
}

// UploadObject writes data at key. The content type is implied by the file extension.
func (s *LocalStore) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.backend.PutObject(key, data); err != nil {
		return fmt.Errorf("local put %s failed: %w", key, err)
	}
	return nil
}

// DownloadObject reads the object stored at key.
func (s *LocalStore) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	object, err := s.backend.GetObject(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("local get %s failed: %w", key, err)
	}
	return object.Content, nil
}

// ListObjects lists every object below the prefix directory, descending into
// the date partitions. The filesystem backend only lists one directory level
// and does not load content, so subdirectories are walked here and sizes come from stat.
func (s *LocalStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	prefix = strings.Trim(prefix, "/")
	base := filepath.Join(s.root, filepath.FromSlash(prefix))

	results := make([]ObjectInfo, 0)
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == base {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(rel)
		if dir == "." {
			dir = ""
		}

		files, err := s.backend.ListObjects(dir)
		if err != nil {
			return err
		}
		for _, object := range files {
			key := path.Join(dir, object.Path)
			info := ObjectInfo{Key: key}
			if st, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key))); err == nil {
				info.Size = st.Size()
			}
			results = append(results, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local list failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results, nil
}

var _ ObjectStorage = (*LocalStore)(nil)
