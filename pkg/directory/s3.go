package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// Prefix is prepended to every file name, e.g. "indexes/people".
	Prefix string
}

// S3Directory stores index files as objects under a key prefix.
// PutObject is atomic per object, which satisfies the Directory contract.
type S3Directory struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewS3Directory(cfg S3Config) (*S3Directory, error) {
	// minio-go expects host:port, not a URL
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		secure = true
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &S3Directory{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (d *S3Directory) key(name string) string {
	if d.prefix == "" {
		return name
	}
	return path.Join(d.prefix, name)
}

func (d *S3Directory) listPrefix() string {
	if d.prefix == "" {
		return ""
	}
	return d.prefix + "/"
}

func (d *S3Directory) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	obj, err := d.client.GetObject(ctx, d.bucket, d.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, d.mapError(err, name)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, d.mapError(err, name)
	}
	return data, nil
}

func (d *S3Directory) Write(ctx context.Context, name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := d.client.PutObject(ctx, d.bucket, d.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return d.mapError(err, name)
	}
	return nil
}

func (d *S3Directory) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := d.client.RemoveObject(ctx, d.bucket, d.key(name), minio.RemoveObjectOptions{})
	if err != nil {
		mapped := d.mapError(err, name)
		if errors.Is(mapped, ErrNotFound) {
			return nil
		}
		return mapped
	}
	return nil
}

func (d *S3Directory) List(ctx context.Context) ([]FileInfo, error) {
	prefix := d.listPrefix()
	objCh := d.client.ListObjects(ctx, d.bucket, minio.ListObjectsOptions{Prefix: prefix})

	var files []FileInfo
	for obj := range objCh {
		if obj.Err != nil {
			return nil, d.mapError(obj.Err, "")
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		files = append(files, FileInfo{
			Name:         name,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (d *S3Directory) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	_, err := d.client.StatObject(ctx, d.bucket, d.key(name), minio.StatObjectOptions{})
	if err != nil {
		mapped := d.mapError(err, name)
		if errors.Is(mapped, ErrNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return true, nil
}

// Reset removes every object under the prefix.
func (d *S3Directory) Reset(ctx context.Context) error {
	files, err := d.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup index directory: %w", err)
	}
	for _, f := range files {
		if err := d.Delete(ctx, f.Name); err != nil {
			return fmt.Errorf("failed to cleanup index directory: %w", err)
		}
	}
	return nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (d *S3Directory) EnsureBucket(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := d.client.MakeBucket(ctx, d.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (d *S3Directory) mapError(err error, name string) error {
	if err == nil {
		return nil
	}
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
