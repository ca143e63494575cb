package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalCAS stores blobs on disk under their digest. Content is spooled to
// tmp/ and renamed into place, so a key never names a partial file.
type LocalCAS struct {
	root string
}

// NewLocalCAS creates root and its tmp/ spool directory if needed.
func NewLocalCAS(root string) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("blob directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalCAS{root: abs}, nil
}

func (c *LocalCAS) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	if r == nil {
		return PutResult{}, errors.New("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	tmpPath, digest, size, err := c.spool(r)
	if err != nil {
		return PutResult{}, err
	}
	defer os.Remove(tmpPath)

	result := PutResult{SHA256: digest, SizeBytes: size, Key: keyFromDigest(digest)}
	dst := c.path(result.Key)
	if _, err := os.Stat(dst); err == nil {
		return result, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return PutResult{}, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		// A concurrent Put of the same content may have won the rename.
		if _, statErr := os.Stat(dst); statErr == nil {
			return result, nil
		}
		return PutResult{}, fmt.Errorf("commit blob: %w", err)
	}
	return result, nil
}

// spool copies r into a temp file while hashing it.
func (c *LocalCAS) spool(r io.Reader) (path, digest string, size int64, err error) {
	tmp, err := os.CreateTemp(filepath.Join(c.root, "tmp"), "put-*")
	if err != nil {
		return "", "", 0, err
	}
	path = tmp.Name()

	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(tmp, h), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", "", 0, fmt.Errorf("spool blob: %w", err)
	}
	return path, hex.EncodeToString(h.Sum(nil)), size, nil
}

func (c *LocalCAS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (c *LocalCAS) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *LocalCAS) path(key string) string {
	return filepath.Join(c.root, filepath.FromSlash(key))
}
