package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	publicBase string
}

// New connects to MinIO (or any S3-compatible endpoint) and makes sure the
// bucket exists. publicBase overrides the host used in returned URLs, e.g. a CDN.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool, publicBase string) (*Store, error) {
	cli, err := minio.New(endpoint, clientOptions(region, accessKey, secretKey, useSSL))
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	if publicBase == "" {
		publicBase = cli.EndpointURL().String()
	}
	return &Store{client: cli, bucketName: bucket, region: region, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// clientOptions disables minio-go's internal retries; a failed upload is
// reported to the user as is.
func clientOptions(region, accessKey, secretKey string, useSSL bool) *minio.Options {
	return &minio.Options{
		Creds:      credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:     useSSL,
		Region:     region,
		MaxRetries: 1,
	}
}

// Put uploads body under a random name that keeps the original extension and
// returns the public URL. Names are never reused so nothing is deduplicated.
func (s *Store) Put(ctx context.Context, body io.Reader, size int64, filename, contentType string) (string, error) {
	key := RandomKey(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL is the fetchable URL of key; the bucket must allow anonymous reads.
func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + url.PathEscape(s.bucketName) + "/" + escapeKey(key)
}

// RandomKey builds "<uuid>.<ext>" from the uploaded file name.
func RandomKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 1 && !strings.ContainsAny(ext, "/\\ ") {
		return uuid.NewString() + ext
	}
	return uuid.NewString()
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
