package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// ErrNotFound is returned by Open when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// PutResult describes one persisted blob.
type PutResult struct {
	SHA256    string
	SizeBytes int64
	Key       string
}

// Store holds the bytes of uploaded comment attachments, addressed by digest.
// Identical content always yields the same key, so blobs may be shared.
type Store interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Keys look like sha256/ab/cd/abcd...; the two fan-out levels keep
// directories small for the on-disk store.
var keyPattern = regexp.MustCompile(`^sha256/([0-9a-f]{2})/([0-9a-f]{2})/([0-9a-f]{64})$`)

func keyFromDigest(digest string) string {
	return fmt.Sprintf("sha256/%s/%s/%s", digest[0:2], digest[2:4], digest)
}

func checkKey(key string) error {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil || m[3][0:2] != m[1] || m[3][2:4] != m[2] {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
