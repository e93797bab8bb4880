package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	dest := filepath.Join(t.TempDir(), "nested", "a.png")

	require.NoError(t, f.Download(context.Background(), srv.URL+"/a.png", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	err = f.Download(context.Background(), srv.URL+"/missing.png", dest)
	var statusErr *ErrUnexpectedStatus
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestHTTPFetcherConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := NewHTTPFetcher(nil).Download(context.Background(), addr+"/x.png", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://media/avatars/42.png")
	require.NoError(t, err)
	assert.Equal(t, "media", bucket)
	assert.Equal(t, "avatars/42.png", key)

	for _, bad := range []string{"s3://media", "s3:///key", "https://media/key", "::"} {
		_, _, err := ParseS3URL(bad)
		var invalid *ErrInvalidS3URL
		assert.ErrorAs(t, err, &invalid, "url %q", bad)
	}
}

type fakeS3 struct {
	objects map[string]string
	calls   []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, k)
	body, ok := f.objects[k]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3FetcherDownload(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"media/a/b.png": "s3-bytes"}}
	f := NewS3Fetcher(client)
	dest := filepath.Join(t.TempDir(), "b.png")

	require.NoError(t, f.Download(context.Background(), "s3://media/a/b.png", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "s3-bytes", string(data))

	assert.Error(t, f.Download(context.Background(), "s3://media/nope.png", dest))
	assert.Equal(t, []string{"media/a/b.png", "media/nope.png"}, client.calls)
}

func TestMuxDispatchesByScheme(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"bucket/k.png": "from-s3"}}
	m := NewMux()
	m.Handle("S3", NewS3Fetcher(client))
	dest := filepath.Join(t.TempDir(), "k.png")

	require.NoError(t, m.Download(context.Background(), "s3://bucket/k.png", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "from-s3", string(data))

	err = m.Download(context.Background(), "ftp://host/k.png", dest)
	var unsupported *ErrUnsupportedScheme
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "ftp", unsupported.Scheme)
}
