package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Local keeps receipt uploads on disk, partitioned by month so a year of
// proofs stays browsable.
type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: urlPrefix}
}

func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	_ = ctx

	part := time.Now().UTC().Format("2006-01")
	dir := filepath.Join(l.BaseDir, part)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return PutResult{}, err
	}

	key := part + "/" + uuid.NewString() + receiptExt(in.Filename)
	dstPath := filepath.Join(l.BaseDir, filepath.FromSlash(key))

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return PutResult{}, err
	}

	url := strings.TrimRight(l.URLPrefix, "/") + "/" + key
	return PutResult{Key: key, URL: url}, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("invalid key: %s", key)
	}
	return os.Remove(filepath.Join(l.BaseDir, clean))
}

// receiptExt keeps only extensions a banking-app export can plausibly have.
func receiptExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".pdf":
		return ext
	default:
		return ""
	}
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
