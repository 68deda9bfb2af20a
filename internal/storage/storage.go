// Package storage holds uploaded images on the local filesystem and hands
// out opaque public URLs for them. The database never knows about files;
// callers remove images best-effort after their transaction commits.
package storage

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidType = errors.New("file type not allowed")
	ErrTooLarge    = errors.New("file exceeds the maximum allowed size")
)

// Config makes the upload constraints explicit instead of burying them in
// handler code.
type Config struct {
	AllowedExtensions []string
	MaxSizeBytes      int64
	RenameOnStore     bool
}

// DefaultConfig mirrors the production upload policy: images only, 10 MB
// ceiling, renamed on disk to prevent duplicate-name collisions.
func DefaultConfig() Config {
	return Config{
		AllowedExtensions: []string{"jpg", "jpeg", "png"},
		MaxSizeBytes:      10_000_000,
		RenameOnStore:     true,
	}
}

type Store struct {
	cfg     Config
	baseDir string
	baseURL string // public prefix, e.g. http://localhost:8080
}

func New(cfg Config, baseDir, baseURL string) *Store {
	return &Store{cfg: cfg, baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Save validates the upload and writes it under the base directory,
// returning the public URL of the stored file.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !s.allowed(ext) {
		return "", ErrInvalidType
	}
	if fh.Size > s.cfg.MaxSizeBytes {
		return "", ErrTooLarge
	}

	name := filepath.Base(fh.Filename)
	if s.cfg.RenameOnStore {
		name = uuid.NewString() + "." + ext
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return s.baseURL + "/images/" + name, nil
}

// Delete removes the file behind a public URL. Best-effort: failures are
// logged, never propagated, since the filesystem is outside the database's
// atomicity boundary.
func (s *Store) Delete(publicPath string) {
	if publicPath == "" {
		return
	}
	name := path.Base(publicPath)
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove stored file %s: %v", name, err)
	}
}

func (s *Store) allowed(ext string) bool {
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
