package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

/*
Conn wraps a minio client pinned to one bucket. Any S3-compatible
endpoint works, including a local minio container.
*/
type Conn struct {
	client *minio.Client
	bucket string
}

type ConnOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewConn(options ConnOptions) (*Conn, error) {
	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: options.UseSSL,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &Conn{client: client, bucket: options.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (conn *Conn) EnsureBucket(ctx context.Context) error {
	exists, err := conn.client.BucketExists(ctx, conn.bucket)

	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", conn.bucket, err)
	}

	if exists {
		return nil
	}

	if err := conn.client.MakeBucket(ctx, conn.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", conn.bucket, err)
	}

	return nil
}

func (conn *Conn) Put(
	ctx context.Context, key string, payload []byte, contentType string,
) error {
	_, err := conn.client.PutObject(
		ctx, conn.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: contentType},
	)

	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	return nil
}

func (conn *Conn) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := conn.client.GetObject(
		ctx, conn.bucket, key, minio.GetObjectOptions{},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	defer object.Close()

	payload, err := io.ReadAll(object)

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return payload, nil
}
