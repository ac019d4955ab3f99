package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageServiceStoresValidImages(t *testing.T) {
	store := newMemoryStore()
	svc := NewImageService(store, 1, 5, testLogger())

	paths, err := svc.Store(context.Background(), []*multipart.FileHeader{
		buildFileHeader(t, "leak.PNG", pngHeader),
	})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.True(t, strings.HasPrefix(paths[0], "campus_env/"))
	require.True(t, strings.HasSuffix(paths[0], ".png"))
	require.Equal(t, 1, store.count())

	reader, contentType, err := svc.Open(context.Background(), strings.TrimPrefix(paths[0], "campus_env/"))
	require.NoError(t, err)
	defer reader.Close()
	require.Equal(t, "image/png", contentType)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, pngHeader, body)
}

func TestImageServiceRejectsBadExtension(t *testing.T) {
	svc := NewImageService(newMemoryStore(), 1, 5, testLogger())

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		buildFileHeader(t, "notes.txt", []byte("plain text")),
	})
	require.ErrorIs(t, err, ErrImageTypeNotAllowed)
	require.ErrorIs(t, err, ErrValidation)
}

func TestImageServiceSniffsContent(t *testing.T) {
	svc := NewImageService(newMemoryStore(), 1, 5, testLogger())

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		buildFileHeader(t, "fake.jpg", []byte("<html>not an image</html>")),
	})
	require.ErrorIs(t, err, ErrImageTypeNotAllowed)
}

func TestImageServiceRejectsOversize(t *testing.T) {
	store := newMemoryStore()
	svc := NewImageService(store, 1, 5, testLogger())

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte("a"), 2*1024*1024)...)
	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		buildFileHeader(t, "ok.png", pngHeader),
		buildFileHeader(t, "big.png", big),
	})
	require.ErrorIs(t, err, ErrImageTooLarge)
	require.Zero(t, store.count(), "nothing is written when any file fails validation")
}

func TestImageServiceRejectsTooMany(t *testing.T) {
	svc := NewImageService(newMemoryStore(), 1, 2, testLogger())

	files := []*multipart.FileHeader{
		buildFileHeader(t, "a.png", pngHeader),
		buildFileHeader(t, "b.png", pngHeader),
		buildFileHeader(t, "c.png", pngHeader),
	}
	_, err := svc.Store(context.Background(), files)
	require.ErrorIs(t, err, ErrTooManyImages)
}

func TestImageServiceRollsBackPartialWrites(t *testing.T) {
	store := newMemoryStore()
	store.failAt = 2
	svc := NewImageService(store, 1, 5, testLogger())

	_, err := svc.Store(context.Background(), []*multipart.FileHeader{
		buildFileHeader(t, "a.png", pngHeader),
		buildFileHeader(t, "b.png", pngHeader),
	})
	require.Error(t, err)
	require.Zero(t, store.count())
}

func TestImageServiceOpenRejectsTraversal(t *testing.T) {
	svc := NewImageService(newMemoryStore(), 1, 5, testLogger())

	for _, name := range []string{"../secret.png", "a/b.png", "", "missing.png", "script.php"} {
		_, _, err := svc.Open(context.Background(), name)
		require.ErrorIs(t, err, ErrImageNotFound, name)
	}
}
