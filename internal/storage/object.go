package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/home-manager/backend/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreConfig configures an S3-compatible bucket.
type ObjectStoreConfig struct {
	Endpoint      string
	Bucket        string
	Prefix        string
	Region        string
	AccessKey     string
	SecretKey     string
	AccessKeyFile string
	SecretKeyFile string
}

// ObjectStore implements Store on an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewObjectStore creates a client for the configured bucket. Credentials may
// be given inline or read from files.
func NewObjectStore(cfg ObjectStoreConfig) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	if endpoint == "" || bucket == "" {
		return nil, fmt.Errorf("missing object store endpoint or bucket")
	}

	accessKey, err := secret(cfg.AccessKey, cfg.AccessKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read access key: %w", err)
	}
	secretKey, err := secret(cfg.SecretKey, cfg.SecretKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read secret key: %w", err)
	}
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("missing object store credentials")
	}

	host, secure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = "uploads"
	}
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix, now: time.Now}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context, region string) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Save uploads r as <prefix>/<folder>/<unix-ms>-<name>.
func (s *ObjectStore) Save(ctx context.Context, folder, name string, r io.Reader) (*models.FileInfo, error) {
	if err := checkFolder(folder); err != nil {
		return nil, err
	}
	now := s.now()
	file := FileName(name, now)

	info, err := s.client.PutObject(ctx, s.bucket, s.key(folder, file), r, -1, minio.PutObjectOptions{
		ContentType: contentType(file),
	})
	if err != nil {
		return nil, s.wrapError(err)
	}
	return &models.FileInfo{
		Path:       Ref(folder, file),
		Folder:     folder,
		Name:       file,
		Size:       info.Size,
		UploadedAt: now,
	}, nil
}

// Open streams a stored object.
func (s *ObjectStore) Open(ctx context.Context, ref string) (io.ReadCloser, *models.FileInfo, error) {
	folder, file, err := ParseRef(ref)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(folder, file), minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.wrapError(err)
	}
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, s.wrapError(err)
	}
	return obj, fileInfo(folder, file, st.Size, st.LastModified), nil
}

// Exists reports whether ref names a stored object.
func (s *ObjectStore) Exists(ctx context.Context, ref string) bool {
	folder, file, err := ParseRef(ref)
	if err != nil {
		return false
	}
	_, err = s.client.StatObject(ctx, s.bucket, s.key(folder, file), minio.StatObjectOptions{})
	return err == nil
}

// Delete removes a stored object.
func (s *ObjectStore) Delete(ctx context.Context, ref string) error {
	folder, file, err := ParseRef(ref)
	if err != nil {
		return err
	}
	key := s.key(folder, file)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return s.wrapError(err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// List returns the most recent objects of a folder.
func (s *ObjectStore) List(ctx context.Context, folder string, limit int) ([]*models.FileInfo, error) {
	if err := checkFolder(folder); err != nil {
		return nil, err
	}
	prefix := path.Join(s.prefix, folder) + "/"

	list := make([]*models.FileInfo, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, s.wrapError(obj.Err)
		}
		file := strings.TrimPrefix(obj.Key, prefix)
		if file == "" || strings.Contains(file, "/") {
			continue
		}
		list = append(list, fileInfo(folder, file, obj.Size, obj.LastModified))
	}

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *ObjectStore) key(folder, file string) string {
	return path.Join(s.prefix, folder, file)
}

func (s *ObjectStore) wrapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return fmt.Errorf("%s: %w", resp.Key, ErrNotFound)
	}
	return err
}

func contentType(file string) string {
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func parseEndpoint(raw string) (string, bool, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint: %w", err)
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint: %q", raw)
		}
		return u.Host, u.Scheme == "https", nil
	}
	return raw, true, nil
}

func secret(inline, file string) (string, error) {
	if v := strings.TrimSpace(inline); v != "" {
		return v, nil
	}
	if strings.TrimSpace(file) == "" {
		return "", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
