package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/farmastock/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.UploadObject(ctx, "exports/2026/03/01/a.txt", []byte("100001\n"), "text/plain"))

	data, err := store.DownloadObject(ctx, "exports/2026/03/01/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "100001\n", string(data))

	objects, err := store.ListObjects(ctx, "exports/2026/03/01")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "exports/2026/03/01/a.txt", objects[0].Key)
	assert.Equal(t, int64(7), objects[0].Size)
}

func TestLocalStoreListsDatePartitions(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.UploadObject(ctx, "exports/2026/03/02/b.xlsx", []byte("xlsx"), "application/octet-stream"))
	require.NoError(t, store.UploadObject(ctx, "exports/2026/03/01/a.txt", []byte("1\n"), "text/plain"))
	require.NoError(t, store.UploadObject(ctx, "other/c.txt", []byte("2\n"), "text/plain"))

	objects, err := store.ListObjects(ctx, "exports")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "exports/2026/03/01/a.txt", objects[0].Key)
	assert.Equal(t, "exports/2026/03/02/b.xlsx", objects[1].Key)
	assert.Equal(t, int64(4), objects[1].Size)

	all, err := store.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing, err := store.ListObjects(ctx, "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLocalStoreMissingObject(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.DownloadObject(context.Background(), "exports/none.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("exports/2026/03/01/a.txt"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey("/etc/passwd"))
	assert.False(t, ValidKey("exports/../secret"))
	assert.False(t, ValidKey("exports//a.txt"))
	assert.False(t, ValidKey("exports\\a.txt"))
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	key := ObjectKey("/exports/", "../informes/analisis.xlsx", now)

	assert.True(t, strings.HasPrefix(key, "exports/2026/03/01/"), key)
	assert.True(t, strings.HasSuffix(key, "-analisis.xlsx"), key)
	assert.NotEqual(t, key, ObjectKey("exports", "analisis.xlsx", now))
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(config.StorageConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = New(config.StorageConfig{Backend: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestNewMinioStoreParsesScheme(t *testing.T) {
	store, err := NewMinioStore(MinioConfig{
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "exports",
		UseSSL:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "http", store.client.EndpointURL().Scheme)
	assert.Equal(t, "localhost:9000", store.client.EndpointURL().Host)
}
