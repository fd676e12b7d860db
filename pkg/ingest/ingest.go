// Package ingest stores uploaded blobs under a public-servable root directory
// and returns the relative path clients use to reference them. It is the
// single write path for every multipart-accepting endpoint.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyFile marks a zero-length payload. Handlers treat it as "field not
// provided" and skip the field rather than failing the request.
var ErrEmptyFile = errors.New("ingest: empty file")

// Store writes blobs under Root and references them as PublicPrefix/<name>.
type Store struct {
	Root         string
	PublicPrefix string
}

func NewStore(root, publicPrefix string) *Store {
	return &Store{Root: root, PublicPrefix: publicPrefix}
}

// EnsureRoot creates the storage root. Safe to call concurrently and
// repeatedly; MkdirAll is a no-op once the directory exists.
func (s *Store) EnsureRoot() error {
	return os.MkdirAll(s.Root, 0o755)
}

// StorageName derives a collision-resistant storage name from the
// client-supplied filename: <base>-<unix-millis>-<random>.<ext>. The client
// name is trusted only for its base name and extension. Collisions are
// treated as negligible; there is no existence check.
func StorageName(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%d%s", base, time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
}

// Save writes the payload under a generated name and returns its public
// reference path. No cleanup is attempted on a failed write.
func (s *Store) Save(filename string, r io.Reader, size int64) (string, error) {
	if size == 0 {
		return "", ErrEmptyFile
	}
	if err := s.EnsureRoot(); err != nil {
		return "", err
	}
	name := StorageName(filename)
	dst, err := os.Create(filepath.Join(s.Root, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, r); err != nil {
		return "", err
	}
	return path.Join(s.PublicPrefix, name), nil
}

// SaveMultipart ingests one multipart file part.
func (s *Store) SaveMultipart(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Size == 0 {
		return "", ErrEmptyFile
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.Save(fh.Filename, src, fh.Size)
}
