package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deleted []string
	putErr  error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func testArchive(t *testing.T, storageClass string) (*ReportArchive, *fakeObjects) {
	t.Helper()
	cfg, err := Config{
		Endpoint:      "storage.example.com",
		Bucket:        "opsboard",
		PublicBaseURL: "https://files.example.com/",
		StorageClass:  storageClass,
	}.normalized()
	require.NoError(t, err)

	objects := &fakeObjects{}
	a := newReportArchive(cfg, objects)
	a.now = func() time.Time { return time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC) }
	return a, objects
}

func TestConfigNormalized(t *testing.T) {
	cfg, err := Config{Endpoint: " r2.example.com ", Bucket: "b", PublicBaseURL: "https://x/"}.normalized()
	require.NoError(t, err)
	assert.Equal(t, "https://r2.example.com", cfg.Endpoint)
	assert.Equal(t, "auto", cfg.Region)
	assert.Equal(t, "https://x", cfg.PublicBaseURL)

	_, err = Config{Bucket: "b", PublicBaseURL: "https://x"}.normalized()
	assert.ErrorContains(t, err, "endpoint")
	_, err = Config{Endpoint: "e", PublicBaseURL: "https://x"}.normalized()
	assert.ErrorContains(t, err, "bucket")
	_, err = Config{Endpoint: "e", Bucket: "b"}.normalized()
	assert.ErrorContains(t, err, "public base url")
}

func TestArchiveReport(t *testing.T) {
	a, objects := testArchive(t, "standard_ia")

	link, err := a.ArchiveReport(context.Background(), "../sales_2026.pdf", []byte("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)
	require.Len(t, objects.puts, 1)

	put := objects.puts[0]
	key := aws.ToString(put.Key)
	assert.True(t, strings.HasPrefix(key, "reports/2026/02/"), key)
	assert.True(t, strings.HasSuffix(key, "-sales_2026.pdf"), key)
	assert.Equal(t, "https://files.example.com/"+key, link)
	assert.Equal(t, "opsboard", aws.ToString(put.Bucket))
	assert.Equal(t, "application/pdf", aws.ToString(put.ContentType))
	assert.Equal(t, `inline; filename="sales_2026.pdf"`, aws.ToString(put.ContentDisposition))
	assert.Equal(t, int64(8), aws.ToInt64(put.ContentLength))
	assert.Equal(t, types.StorageClassStandardIa, put.StorageClass)
	assert.Equal(t, "%PDF-1.3", objects.bodies[0])
}

func TestArchiveReportUploadError(t *testing.T) {
	a, objects := testArchive(t, "")
	objects.putErr = errors.New("boom")

	_, err := a.ArchiveReport(context.Background(), "r.pdf", []byte("x"), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "archive report reports/2026/02/")
}

func TestDeleteURL(t *testing.T) {
	a, objects := testArchive(t, "")

	require.NoError(t, a.DeleteURL(context.Background(), "https://files.example.com/reports/2026/01/x.pdf"))
	require.NoError(t, a.DeleteURL(context.Background(), "https://acct.r2.cloudflarestorage.com/opsboard/reports/y.pdf"))
	assert.Equal(t, []string{"reports/2026/01/x.pdf", "reports/y.pdf"}, objects.deleted)

	for _, raw := range []string{"", "https://elsewhere.example.com/other/y.pdf", "https://files.example.com/"} {
		assert.ErrorIs(t, a.DeleteURL(context.Background(), raw), ErrUnmanagedURL, raw)
	}
}

func TestReportKey(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	assert.True(t, strings.HasSuffix(ReportKey(now, ""), "-report.pdf"))
	assert.NotEqual(t, ReportKey(now, "a.pdf"), ReportKey(now, "a.pdf"))
}
