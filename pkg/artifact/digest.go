// Package artifact computes digests of Pulp 2 unit files and stores them as Pulp 3 artifacts.
package artifact

import (
	"crypto/md5"  //nolint:gosec
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
)

var (
	ErrDigestMismatch    = errors.New("digest mismatch")
	ErrSizeMismatch      = errors.New("size mismatch")
	ErrUnsupportedDigest = errors.New("unsupported digest")
)

// DigestSet holds every digest Pulp 3 records for an artifact.
type DigestSet struct {
	Size   int64
	MD5    string
	SHA1   string
	SHA224 string
	SHA256 string
	SHA384 string
	SHA512 string
}

// Get returns the digest for a checksum type, accepting Pulp 2 spellings like "sha".
func (d DigestSet) Get(checksumType string) (string, bool) {
	switch strings.ToLower(checksumType) {
	case "md5":
		return d.MD5, true
	case "sha", "sha1":
		return d.SHA1, true
	case "sha224":
		return d.SHA224, true
	case "sha256":
		return d.SHA256, true
	case "sha384":
		return d.SHA384, true
	case "sha512":
		return d.SHA512, true
	default:
		return "", false
	}
}

// Digests reads r to the end and computes its size and digests.
func Digests(r io.Reader) (DigestSet, error) {
	hashes := []hash.Hash{
		md5.New(),  //nolint:gosec
		sha1.New(), //nolint:gosec
		sha256.New224(),
		sha256.New(),
		sha512.New384(),
		sha512.New(),
	}

	writers := make([]io.Writer, 0, len(hashes))
	for _, h := range hashes {
		writers = append(writers, h)
	}

	size, err := io.Copy(io.MultiWriter(writers...), r)
	if err != nil {
		return DigestSet{}, fmt.Errorf("failed to read content: %w", err)
	}

	sum := func(i int) string {
		return hex.EncodeToString(hashes[i].Sum(nil))
	}

	return DigestSet{
		Size:   size,
		MD5:    sum(0),
		SHA1:   sum(1),
		SHA224: sum(2),
		SHA256: sum(3),
		SHA384: sum(4),
		SHA512: sum(5),
	}, nil
}

// Verify compares the digests against the expected checksums and size.
// A zero expected size is not checked.
func (d DigestSet) Verify(expected map[string]string, expectedSize int64) error {
	if expectedSize > 0 && d.Size != expectedSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrSizeMismatch, expectedSize, d.Size)
	}

	for checksumType, checksum := range expected {
		actual, ok := d.Get(checksumType)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedDigest, checksumType)
		}

		if !strings.EqualFold(actual, checksum) {
			return fmt.Errorf("%w: expected %s %s, got %s", ErrDigestMismatch, checksumType, checksum, actual)
		}
	}

	return nil
}

// Key is the storage key of an artifact, derived from its sha256.
func Key(sha256 string) string {
	return "artifact/" + sha256[:2] + "/" + sha256[2:]
}
