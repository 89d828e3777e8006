package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/snaplog/internal/client/models"
	"github.com/dmitrijs2005/snaplog/internal/common"
)

const presignExpiry = 15 * time.Minute

// S3API is the part of *s3.Client used by S3Client.
type S3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Presigner signs content links for listed objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Options struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// S3Client implements Client on an S3 compatible bucket. Folders are key
// prefixes ending in "/" with an empty marker object; file keys are
// "<folder prefix><uuid>_<name>". Ids are full object keys and the root
// alias maps to the empty prefix.
type S3Client struct {
	api     S3API
	presign Presigner
	bucket  string
}

func NewS3Client(api S3API, presign Presigner, bucket string) *S3Client {
	return &S3Client{api: api, presign: presign, bucket: bucket}
}

// NewS3ClientFromOptions loads the AWS configuration and builds a client for
// the bucket. SDK level retries are disabled.
func NewS3ClientFromOptions(ctx context.Context, o S3Options) (*S3Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(o.Region),
		config.WithRetryMaxAttempts(1),
	}
	if o.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		so.UsePathStyle = true
	})

	return NewS3Client(api, s3.NewPresignClient(api), o.Bucket), nil
}

func folderPrefix(folderID string) string {
	if folderID == "" || folderID == common.RemoteRootID {
		return ""
	}
	if !strings.HasSuffix(folderID, "/") {
		return folderID + "/"
	}
	return folderID
}

func (c *S3Client) List(ctx context.Context, folderID string) ([]models.RemoteObject, error) {
	return c.list(ctx, "list", folderID, true)
}

func (c *S3Client) ListFolders(ctx context.Context, parentID string) ([]models.RemoteObject, error) {
	return c.list(ctx, "list folders", parentID, false)
}

func (c *S3Client) list(ctx context.Context, op, folderID string, withFiles bool) ([]models.RemoteObject, error) {
	prefix := folderPrefix(folderID)
	result := make([]models.RemoteObject, 0)

	in := &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}
	for {
		out, err := c.api.ListObjectsV2(ctx, in)
		if err != nil {
			return nil, classifyS3Error(op, err)
		}

		for _, p := range out.CommonPrefixes {
			key := aws.ToString(p.Prefix)
			result = append(result, models.RemoteObject{
				ID:       key,
				Name:     strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/"),
				MimeType: common.FolderMimeType,
			})
		}

		if withFiles {
			for _, obj := range out.Contents {
				key := aws.ToString(obj.Key)
				if key == prefix {
					// folder marker
					continue
				}
				o, err := c.object(ctx, prefix, key)
				if err != nil {
					return nil, classifyS3Error(op, err)
				}
				result = append(result, o)
			}
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return result, nil
		}
		in.ContinuationToken = out.NextContinuationToken
	}
}

func (c *S3Client) object(ctx context.Context, prefix, key string) (models.RemoteObject, error) {
	name := strings.TrimPrefix(key, prefix)
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return models.RemoteObject{}, err
	}

	return models.RemoteObject{
		ID:          key,
		Name:        name,
		MimeType:    mime.TypeByExtension(path.Ext(name)),
		ContentLink: req.URL,
	}, nil
}

func (c *S3Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := folderPrefix(parentID) + name + "/"
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(nil),
		ContentType: aws.String(common.FolderMimeType),
	})
	if err != nil {
		return "", classifyS3Error("create folder", err)
	}
	return key, nil
}

// Upload buffers r before sending because request signing needs a seekable
// body. A progress reader passed as r therefore reaches 1.0 once the content
// is buffered, before PutObject sends any bytes.
func (c *S3Client) Upload(ctx context.Context, r io.Reader, parentID, name, mimeType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("upload: read content: %w", err)
	}

	key := folderPrefix(parentID) + uuid.NewString() + "_" + name
	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimeType),
	})
	if err != nil {
		return "", classifyS3Error("upload", err)
	}
	return key, nil
}

func (c *S3Client) Delete(ctx context.Context, id string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return classifyS3Error("delete", err)
	}
	return nil
}

func (c *S3Client) Download(ctx context.Context, id string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, classifyS3Error("download", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, transientError("download", err)
	}
	return data, nil
}

func (c *S3Client) Ping(ctx context.Context) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return classifyS3Error("ping", err)
	}
	return nil
}

// classifyS3Error maps S3 failures onto ErrAuth, ErrNotFound and
// ErrNetwork. Only transport failures, 5xx responses and throttling are
// transient; other API errors are wrapped as they are.
func classifyS3Error(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		// no API response at all: the request never completed
		return transientError(op, err)
	}

	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return notFoundError(op, err)
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "ExpiredToken", "SignatureDoesNotMatch":
		return authError(op, err)
	case "InternalError", "ServiceUnavailable", "SlowDown", "Throttling", "ThrottlingException", "RequestTimeout":
		return transientError(op, err)
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code >= 500 || code == http.StatusTooManyRequests {
			return transientError(op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
