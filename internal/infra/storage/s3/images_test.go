package s3

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageStoreValidation(t *testing.T) {
	_, err := NewImageStore(Options{Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = NewImageStore(Options{Endpoint: "http://localhost:9000"}, nil)
	assert.Error(t, err)

	store, err := NewImageStore(Options{Endpoint: "http://localhost:9000", Bucket: "assets", AccessKey: "k", SecretKey: "s"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", store.publicBaseURL)
}

func TestUploadRejectsEmptyKeyBeforeNetwork(t *testing.T) {
	store, err := NewImageStore(Options{Endpoint: "localhost:9000", Bucket: "assets"}, nil)
	require.NoError(t, err)
	_, err = store.Upload(context.Background(), " / ", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestObjectURLAndPolicy(t *testing.T) {
	assert.Equal(t, "https://cdn.test/assets/a/b.jpg", ObjectURL("https://cdn.test/", "assets", "/a/b.jpg"))
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))

	var policy map[string]any
	require.NoError(t, json.Unmarshal([]byte(PublicReadPolicy("assets")), &policy))
	assert.Contains(t, PublicReadPolicy("assets"), "arn:aws:s3:::assets/*")
}
