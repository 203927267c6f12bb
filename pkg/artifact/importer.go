package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goosemania/pulp-2to3-migrate/pkg/store/sql/model"
)

// ErrMissingFile is returned when the Pulp 2 file of a unit is not on disk.
var ErrMissingFile = errors.New("file is missing")

// Importer turns Pulp 2 unit files into stored artifacts.
type Importer struct {
	storage Storage
}

func NewImporter(storage Storage) *Importer {
	return &Importer{storage: storage}
}

// Import verifies the file at path against the expected checksums and size, copies it into
// storage unless an artifact with the same sha256 is stored already and returns the artifact row.
func (i *Importer) Import(
	ctx context.Context, path string, expected map[string]string, expectedSize int64,
) (*model.Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}

		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	digests, err := Digests(file)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digests of %s: %w", path, err)
	}

	if err := digests.Verify(expected, expectedSize); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	key := Key(digests.SHA256)

	exists, err := i.storage.Exists(ctx, key)
	if err != nil {
		return nil, err
	}

	if !exists {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
		}

		if err := i.storage.Save(ctx, key, file); err != nil {
			return nil, err
		}
	}

	return &model.Artifact{
		File:   key,
		Size:   digests.Size,
		MD5:    digests.MD5,
		SHA1:   digests.SHA1,
		SHA224: digests.SHA224,
		SHA256: digests.SHA256,
		SHA384: digests.SHA384,
		SHA512: digests.SHA512,
	}, nil
}

// IsOnDemand reports whether an import error means the content should be migrated
// without an artifact, to be downloaded on demand later.
func IsOnDemand(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrDigestMismatch) ||
		errors.Is(err, ErrSizeMismatch) ||
		errors.Is(err, ErrUnsupportedDigest)
}
