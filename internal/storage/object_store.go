// Package storage archives generated documents in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	ReportsPrefix = "reports"

	reportCacheControl = "private, max-age=300"
	defaultReportName  = "report.pdf"
)

var ErrUnmanagedURL = errors.New("url does not belong to the report archive")

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	StorageClass    string
}

func (c Config) normalized() (Config, error) {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	c.Region = strings.TrimSpace(c.Region)
	c.StorageClass = strings.ToUpper(strings.TrimSpace(c.StorageClass))

	switch {
	case c.Endpoint == "":
		return c, errors.New("object store endpoint is required")
	case c.Bucket == "":
		return c, errors.New("object store bucket is required")
	case c.PublicBaseURL == "":
		return c, errors.New("object store public base url is required")
	}
	if !strings.Contains(c.Endpoint, "://") {
		c.Endpoint = "https://" + c.Endpoint
	}
	if c.Region == "" {
		c.Region = "auto"
	}
	return c, nil
}

// objectAPI is the slice of the S3 client the archive needs.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// ReportArchive stores rendered reports and hands back a public link for
// the notification email.
type ReportArchive struct {
	cfg    Config
	client objectAPI
	now    func() time.Time
}

func NewReportArchive(ctx context.Context, cfg Config) (*ReportArchive, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// R2 and MinIO need path-style addressing.
		o.UsePathStyle = true
	})
	return newReportArchive(cfg, client), nil
}

func newReportArchive(cfg Config, client objectAPI) *ReportArchive {
	return &ReportArchive{cfg: cfg, client: client, now: time.Now}
}

func (a *ReportArchive) PublicURL(key string) string {
	return a.cfg.PublicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// ArchiveReport uploads body under reports/<yyyy>/<mm>/ and returns its
// public URL.
func (a *ReportArchive) ArchiveReport(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	name := reportName(filename)
	key := ReportKey(a.now(), name)
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:             aws.String(a.cfg.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(body),
		ContentLength:      aws.Int64(int64(len(body))),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", name)),
		CacheControl:       aws.String(reportCacheControl),
		Metadata:           map[string]string{"report": name},
	}
	if a.cfg.StorageClass != "" {
		input.StorageClass = types.StorageClass(a.cfg.StorageClass)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("archive report %s: %w", key, err)
	}
	return a.PublicURL(key), nil
}

// DeleteURL removes an archived report by the link ArchiveReport returned.
func (a *ReportArchive) DeleteURL(ctx context.Context, raw string) error {
	key, ok := a.keyFromURL(raw)
	if !ok {
		return ErrUnmanagedURL
	}
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete report %s: %w", key, err)
	}
	return nil
}

// keyFromURL accepts both the public link and a path-style bucket URL.
func (a *ReportArchive) keyFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if rest, ok := strings.CutPrefix(raw, a.cfg.PublicBaseURL+"/"); ok {
		return rest, rest != ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	bucketPath, ok := strings.CutPrefix(strings.TrimLeft(parsed.Path, "/"), a.cfg.Bucket+"/")
	if !ok || bucketPath == "" {
		return "", false
	}
	return bucketPath, true
}

func reportName(filename string) string {
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		return defaultReportName
	}
	return name
}

func ReportKey(now time.Time, filename string) string {
	now = now.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s-%s", ReportsPrefix, now.Year(), int(now.Month()), uuid.NewString(), reportName(filename))
}
