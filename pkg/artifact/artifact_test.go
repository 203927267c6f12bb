package artifact_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosemania/pulp-2to3-migrate/pkg/artifact"
)

const (
	helloMD5    = "5d41402abc4b2a76b9719d911017c592"
	helloSHA1   = "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"
	helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
)

func TestDigests(t *testing.T) {
	t.Parallel()

	digests, err := artifact.Digests(strings.NewReader("hello"))
	require.NoError(t, err)

	assert.Equal(t, int64(5), digests.Size)
	assert.Equal(t, helloMD5, digests.MD5)
	assert.Equal(t, helloSHA1, digests.SHA1)
	assert.Equal(t, helloSHA256, digests.SHA256)
	assert.Len(t, digests.SHA224, 56)
	assert.Len(t, digests.SHA384, 96)
	assert.Len(t, digests.SHA512, 128)

	sha1, ok := digests.Get("sha")
	assert.True(t, ok)
	assert.Equal(t, helloSHA1, sha1)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	digests, err := artifact.Digests(strings.NewReader("hello"))
	require.NoError(t, err)

	scenarios := []struct {
		name     string
		expected map[string]string
		size     int64
		err      error
	}{
		{name: "matching sha256", expected: map[string]string{"sha256": helloSHA256}, size: 5},
		{name: "upper case checksum", expected: map[string]string{"md5": strings.ToUpper(helloMD5)}},
		{name: "no expectations"},
		{name: "wrong checksum", expected: map[string]string{"sha256": helloSHA1}, err: artifact.ErrDigestMismatch},
		{name: "wrong size", size: 6, err: artifact.ErrSizeMismatch},
		{name: "unknown checksum type", expected: map[string]string{"crc32": "x"}, err: artifact.ErrUnsupportedDigest},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			err := digests.Verify(scenario.expected, scenario.size)
			if scenario.err == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, scenario.err)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestImporterCopiesFileIntoStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mediaRoot := t.TempDir()
	source := writeFile(t, t.TempDir(), "hello.rpm", "hello")

	importer := artifact.NewImporter(artifact.NewFileSystemStorage(mediaRoot))

	imported, err := importer.Import(ctx, source, map[string]string{"sha256": helloSHA256}, 5)
	require.NoError(t, err)
	assert.Equal(t, "artifact/2c/f24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", imported.File)
	assert.Equal(t, helloMD5, imported.MD5)

	stored, err := os.ReadFile(filepath.Join(mediaRoot, filepath.FromSlash(imported.File)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(stored))

	again, err := importer.Import(ctx, source, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, imported.File, again.File)
}

func TestImporterOnDemandErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	importer := artifact.NewImporter(artifact.NewFileSystemStorage(t.TempDir()))

	_, err := importer.Import(ctx, filepath.Join(dir, "missing.rpm"), nil, 0)
	require.ErrorIs(t, err, artifact.ErrMissingFile)
	assert.True(t, artifact.IsOnDemand(err))

	source := writeFile(t, dir, "hello.rpm", "hello")

	_, err = importer.Import(ctx, source, map[string]string{"sha256": strings.Repeat("0", 64)}, 0)
	require.ErrorIs(t, err, artifact.ErrDigestMismatch)
	assert.True(t, artifact.IsOnDemand(err))

	assert.False(t, artifact.IsOnDemand(errors.New("disk on fire")))
}

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) PutObject(
	_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = string(body)

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(
	_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}

	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := &fakeS3{objects: make(map[string]string)}
	storage := artifact.NewS3StorageWithClient(client, "pulp", "/media/")

	exists, err := storage.Exists(ctx, "artifact/2c/f24d")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, storage.Save(ctx, "artifact/2c/f24d", strings.NewReader("hello")))
	assert.Equal(t, "hello", client.objects["pulp/media/artifact/2c/f24d"])

	exists, err = storage.Exists(ctx, "artifact/2c/f24d")
	require.NoError(t, err)
	assert.True(t, exists)
}
