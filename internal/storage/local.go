package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	apperrors "protoform/internal/errors"
)

// PublicPrefix is the URL prefix under which stored files are served statically.
const PublicPrefix = "/uploads/"

const maxExtLen = 16

// StoredFile describes a file written to the upload directory.
type StoredFile struct {
	Name        string
	PublicPath  string
	ContentType string
	Size        int64
}

// FileStore persists uploaded model files.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error)
	Remove(name string) error
	Resolve(name string) (string, error)
}

// Local stores files flat in a single directory on disk.
type Local struct {
	dir string
}

var _ FileStore = (*Local)(nil)

// NewLocal ensures dir exists and returns a store rooted at it.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	return &Local{dir: abs}, nil
}

// Dir returns the absolute upload directory.
func (l *Local) Dir() string {
	return l.dir
}

// Save writes r under a server-generated name. Only the extension of
// originalName survives, lower-cased and stripped to [a-z0-9].
func (l *Local) Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := uuid.NewString() + SafeExt(originalName)
	full := filepath.Join(l.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(full); err == nil {
		contentType = mt.String()
	}

	return &StoredFile{
		Name:        name,
		PublicPath:  PublicPrefix + name,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (l *Local) Remove(name string) error {
	if !validName(name) {
		return apperrors.ErrFileNotFound
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve maps a bare stored filename to its path on disk. Names carrying
// path components, and names with no regular file behind them, yield
// ErrFileNotFound.
func (l *Local) Resolve(name string) (string, error) {
	if !validName(name) {
		return "", apperrors.ErrFileNotFound
	}
	full := filepath.Join(l.dir, name)
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.ErrFileNotFound
		}
		return "", fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", apperrors.ErrFileNotFound
	}
	return full, nil
}

// SafeExt returns the extension of a client-supplied filename reduced to
// a dot plus lower-case alphanumerics, or "" when nothing usable remains.
func SafeExt(originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	if ext == "" || ext == base {
		return ""
	}

	var b strings.Builder
	for _, r := range ext[1:] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == maxExtLen {
			break
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
