package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	listErr error
	getErr  map[string]error
	gets    []string
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	if f.listErr != nil {
		return f.listErr
	}
	page := &s3.ListObjectsV2Output{}
	for key, body := range f.objects {
		page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key), Size: aws.Int64(int64(len(body)))})
	}
	page.Contents = append(page.Contents, &s3.Object{Key: aws.String(aws.StringValue(in.Prefix) + "/")})
	fn(page, true)
	return nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	key := aws.StringValue(in.Key)
	f.gets = append(f.gets, key)
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.objects[key]))}, nil
}

func TestS3SyncDownloadsSupportedObjects(t *testing.T) {
	dir := t.TempDir()
	client := &fakeS3{objects: map[string][]byte{
		"loops/a.mp4":     []byte("video-a"),
		"loops/b.png":     []byte("image-b"),
		"loops/notes.txt": []byte("ignored"),
	}}
	s := NewS3Sync(S3Config{Bucket: "vj", Prefix: "loops"}, dir, client)

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Listed)
	assert.Equal(t, 2, res.Downloaded)

	data, err := os.ReadFile(filepath.Join(dir, "a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "video-a", string(data))

	entries, err := ScanDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	client.gets = nil
	res, err = s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, client.gets, "unchanged objects are not fetched again")
}

func TestS3SyncPartialFailure(t *testing.T) {
	dir := t.TempDir()
	client := &fakeS3{
		objects: map[string][]byte{"a.mp4": []byte("a"), "b.mp4": []byte("b")},
		getErr:  map[string]error{"b.mp4": errors.New("access denied")},
	}
	s := NewS3Sync(S3Config{Bucket: "vj"}, dir, client)

	res, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Downloaded)
	assert.Equal(t, 1, res.Failed)

	_, err = os.Stat(filepath.Join(dir, "b.mp4.part"))
	assert.True(t, os.IsNotExist(err), "failed download leaves no partial file")
}

func TestS3SyncCircuitOpensAfterRepeatedFailures(t *testing.T) {
	client := &fakeS3{listErr: errors.New("no route to host")}
	s := NewS3Sync(S3Config{Bucket: "vj"}, t.TempDir(), client)

	for i := 0; i < 3; i++ {
		_, err := s.Sync(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	_, err := s.Sync(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
