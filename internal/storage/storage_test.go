package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveURLDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(Config{Type: "local", BasePath: dir})
	require.NoError(t, err)

	key := NewKey("photos", "Me.JPG")
	assert.True(t, strings.HasPrefix(key, "photos/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	require.NoError(t, s.Save(ctx, key, strings.NewReader("data"), "image/jpeg"))
	content, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	url := s.URL(key)
	assert.Equal(t, "/files/"+key, url)
	back, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.Equal(t, key, back)

	_, ok = s.KeyFromURL("https://elsewhere.io/x.jpg")
	assert.False(t, ok)

	require.NoError(t, s.Delete(ctx, key))
	assert.NoFileExists(t, filepath.Join(dir, key))
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorage_KeyCannotEscapeRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(Config{BasePath: filepath.Join(dir, "root")})
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../../evil.txt", strings.NewReader("x"), "text/plain"))
	assert.FileExists(t, filepath.Join(dir, "root", "evil.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New(Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(Config{Type: "s3"})
	assert.Error(t, err)

	s, err := NewS3(Config{Type: "s3", Bucket: "media", Endpoint: "https://acct.r2.cloudflarestorage.com", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/media/a/b.jpg", s.URL("a/b.jpg"))
}
