// Package blobstore stores uploaded item photos on disk and maps them to
// stable public URLs served by the HTTP layer.
package blobstore

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a disk-backed blob store rooted at a single directory. Object
// paths use forward slashes and are namespaced per user.
type Store struct {
	Root    string
	BaseURL string
}

// New creates a Store rooted at dir, creating the directory if needed.
// baseURL is the public URL prefix objects are served under (e.g. "/images").
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{Root: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// ObjectPath builds a new object path for a user's upload, namespaced by the
// user ID with a time plus random suffix so concurrent uploads by the same
// user never collide.
func (s *Store) ObjectPath(userID int64, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%d/%d-%s%s", userID, time.Now().UnixMilli(), uuid.NewString(), ext)
}

// Upload writes data under the given object path.
func (s *Store) Upload(objectPath string, data []byte) error {
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating blob subdirectory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	return nil
}

// PublicURL returns the stable public URL for an object path.
func (s *Store) PublicURL(objectPath string) string {
	return s.BaseURL + "/" + objectPath
}

// Remove deletes an object. Missing objects are not an error.
func (s *Store) Remove(objectPath string) error {
	full, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}

// ServeHTTP serves stored objects. The request path relative to the handler's
// mount point is the object path.
func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/")
	full, err := s.resolve(objectPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, full)
}

// resolve maps an object path to a file path, rejecting traversal outside
// the root.
func (s *Store) resolve(objectPath string) (string, error) {
	cleaned := path.Clean("/" + objectPath)
	if cleaned == "/" {
		return "", fmt.Errorf("empty object path")
	}
	return filepath.Join(s.Root, filepath.FromSlash(cleaned)), nil
}
