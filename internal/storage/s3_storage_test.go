package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPut struct {
	path        string
	contentType string
	body        string
}

func newTestS3Storage(t *testing.T, status int) (*S3Storage, *[]recordedPut) {
	var mu sync.Mutex
	var puts []recordedPut

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, recordedPut{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		})
		mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := s3.NewFromConfig(aws.Config{
		Region:      "ap-northeast-2",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
		o.UsePathStyle = true
	})

	return newS3StorageWithClient(client, "review-images", "/home/ec2-user/static/images"), &puts
}

func TestS3Storage_Save(t *testing.T) {
	store, puts := newTestS3Storage(t, http.StatusOK)

	path, err := store.Save(context.Background(), &UploadInput{
		Filename:    "cake.JPEG",
		ContentType: "image/jpeg",
		Size:        int64(len("jpeg-bytes")),
		Data:        strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/home/ec2-user/static/images/uploads/"), path)
	assert.True(t, strings.HasSuffix(path, ".jpeg"), path)

	require.Len(t, *puts, 1)
	put := (*puts)[0]
	assert.Equal(t, "/review-images/"+strings.TrimPrefix(path, "/home/ec2-user/static/images/"), put.path)
	assert.Equal(t, "image/jpeg", put.contentType)
	assert.Contains(t, put.body, "jpeg-bytes")
}

func TestS3Storage_Save_Error(t *testing.T) {
	store, _ := newTestS3Storage(t, http.StatusForbidden)

	path, err := store.Save(context.Background(), &UploadInput{
		Filename: "cake.jpg",
		Data:     strings.NewReader("jpeg-bytes"),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload image to s3")
	assert.Empty(t, path)
}
