package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/erp/catalog-migrator/internal/domain/integration"
)

// LocalStore reads media files from <dir>/<prefix>
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir/prefix
func NewLocalStore(dir, prefix string) *LocalStore {
	return &LocalStore{root: filepath.Join(dir, filepath.FromSlash(strings.Trim(prefix, "/")))}
}

// Root returns the directory files are read from
func (s *LocalStore) Root() string {
	return s.root
}

// Open loads filename as an upload. A missing file returns (nil, nil).
func (s *LocalStore) Open(filename string) (*integration.Upload, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return nil, fmt.Errorf("media: invalid file name %q", filename)
	}

	content, err := os.ReadFile(filepath.Join(s.root, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("media: read %s: %w", filename, err)
	}
	return &integration.Upload{
		FileName:    filename,
		ContentType: ImageContentType(filename),
		Content:     content,
	}, nil
}

// ImageContentType returns image/<ext> for filename, with jpg mapped to jpeg
func ImageContentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "":
		return "application/octet-stream"
	case "jpg":
		ext = "jpeg"
	}
	return "image/" + ext
}
