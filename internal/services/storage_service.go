package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/models"
)

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"

	attachmentPrefix = "attachments"
)

// FileStore persists uploaded attachment bytes and returns their public URL.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// NewFileStore returns the backend selected by STORAGE_BACKEND.
func NewFileStore(cfg *config.Config) (FileStore, error) {
	switch cfg.StorageBackend {
	case StorageBackendS3:
		return NewS3Store(cfg)
	case StorageBackendLocal, "":
		return NewLocalStore(cfg.LocalUploadsPath, strings.TrimRight(cfg.APIUrl, "/")+"/uploads")
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// LocalStore writes files below a root directory served at baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Save streams r to a temporary file and renames it into place.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	absPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return s.baseURL + "/" + key, nil
}

// UploadService turns multipart uploads into attachment descriptors.
type UploadService struct {
	store    FileStore
	maxBytes int64
}

func NewUploadService(store FileStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

// Upload stores the file and returns the descriptor accepted by asset creation.
func (s *UploadService) Upload(ctx context.Context, caller *models.User, fh *multipart.FileHeader) (*AttachmentInput, error) {
	if err := RequireUser(caller); err != nil {
		return nil, err
	}
	if fh == nil {
		return nil, NewValidationError("file", "is required")
	}
	if fh.Size <= 0 {
		return nil, NewValidationError("file", "must not be empty")
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return nil, NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes))
	}

	name := path.Base(filepath.ToSlash(fh.Filename))
	contentType := detectContentType(name, fh.Header.Get("Content-Type"))

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	key := BuildObjectKey(attachmentPrefix, name)
	url, err := s.store.Save(ctx, key, src, fh.Size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &AttachmentInput{URL: url, Name: name, Size: fh.Size, Type: contentType}, nil
}

// BuildObjectKey creates a namespaced storage key
func BuildObjectKey(kind, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), ext)
}

func detectContentType(name, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
