package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FileSystemStorageConfig contains configuration for file system storage
type FileSystemStorageConfig struct {
	// BasePath is the root directory for archived documents
	// Default: ./storage/documents
	BasePath string
	// BaseURL is the URL prefix the archive is served under
	// Default: /documents
	BaseURL string
	// Logger for operations
	Logger *zap.Logger
	// Now overrides the clock used for the year/month directories
	Now func() time.Time
}

// FileSystemStorage stores rendered documents on the local file system
type FileSystemStorage struct {
	config *FileSystemStorageConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSystemStorage creates a new file system based document storage
func NewFileSystemStorage(config *FileSystemStorageConfig) (*FileSystemStorage, error) {
	if config == nil {
		config = &FileSystemStorageConfig{}
	}
	if config.BasePath == "" {
		config.BasePath = "./storage/documents"
	}
	if config.BaseURL == "" {
		config.BaseURL = "/documents"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", config.BasePath), err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &FileSystemStorage{config: config, logger: logger, now: now}, nil
}

func validateStoreRequest(req *printing.StoreRequest) error {
	if err := req.Validate(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "document cannot be stored", err)
	}
	return nil
}

// Store writes a rendered document under {base}/{kind}/{yyyy}/{mm}/{id}.{ext}
func (s *FileSystemStorage) Store(ctx context.Context, req *printing.StoreRequest) (*printing.StoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if err := validateStoreRequest(req); err != nil {
		return nil, err
	}

	key := printing.StorageKey(req.Kind, req.ID, req.Format, s.now().UTC())
	fullPath := filepath.Join(s.config.BasePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, req.Data, 0o644); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to write document file", err)
	}

	url := s.config.BaseURL + "/" + key
	s.logger.Info("Document stored",
		zap.String("path", fullPath),
		zap.Int("size", len(req.Data)),
		zap.String("url", url))

	return &printing.StoredDocument{Key: key, URL: url, Size: int64(len(req.Data))}, nil
}

// Get opens an archived document by key
func (s *FileSystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.NewNotFoundError("document", key)
		}
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open document file", err)
	}
	return file, nil
}

// Delete removes an archived document; a missing file is not an error
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return NewRenderError(ErrCodeStorageFailed, "failed to delete document file", err)
	}
	s.logger.Info("Document deleted", zap.String("key", key))
	return nil
}

// URL returns the served URL of a key
func (s *FileSystemStorage) URL(_ context.Context, key string) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return s.config.BaseURL + "/" + filepath.ToSlash(filepath.Clean(key)), nil
}

// resolve maps a key to a path under BasePath, rejecting traversal.
func (s *FileSystemStorage) resolve(key string) (string, error) {
	cleanPath := filepath.Clean(key)
	if key == "" || filepath.IsAbs(cleanPath) || containsDotDot(key) {
		s.logger.Warn("blocked potentially malicious path", zap.String("path", key))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}

	fullPath := filepath.Join(s.config.BasePath, cleanPath)
	absBase, err := filepath.Abs(s.config.BasePath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", NewRenderError(ErrCodeStorageFailed, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked", zap.String("path", key), zap.String("absPath", absPath))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid path", nil)
	}
	return fullPath, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(p string) bool {
	parts := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}

var _ printing.Storage = (*FileSystemStorage)(nil)
