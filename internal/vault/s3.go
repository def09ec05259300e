package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"booru-go/internal/result"
)

// Environment variables holding static S3 credentials. When unset the
// default AWS credential chain is used.
const (
	EnvS3AccessKeyID     = "BOORU_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "BOORU_S3_SECRET_ACCESS_KEY"
)

type s3Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type s3Uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Options configures an S3Vault.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // non-empty for S3-compatible services; enables path-style addressing
}

// S3Vault stores snapshots as objects under <prefix>/<dbID>/<version>.snapshot.
type S3Vault struct {
	ctx      context.Context
	bucket   string
	prefix   string
	client   s3Client
	uploader s3Uploader
}

// NewS3Vault creates an S3Vault using the default AWS configuration chain,
// overridden by static credentials from the environment when present.
func NewS3Vault(ctx context.Context, opts S3Options) (*S3Vault, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if id, secret := os.Getenv(EnvS3AccessKeyID), os.Getenv(EnvS3SecretAccessKey); id != "" && secret != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Vault(ctx, opts, client, manager.NewUploader(client)), nil
}

func newS3Vault(ctx context.Context, opts S3Options, client s3Client, uploader s3Uploader) *S3Vault {
	return &S3Vault{
		ctx:      ctx,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		client:   client,
		uploader: uploader,
	}
}

func (v *S3Vault) dir(dbID string) string {
	return path.Join(v.prefix, dbID) + "/"
}

func (v *S3Vault) PutSnapshot(dbID string, version int64, r io.Reader, size int64) error {
	counted := &countingReader{r: r}
	_, err := v.uploader.Upload(v.ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.dir(dbID) + snapshotName(version)),
		Body:   counted,
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	if counted.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}
	return nil
}

func (v *S3Vault) GetSnapshot(dbID string, version int64, w io.Writer) error {
	out, err := v.client.GetObject(v.ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.dir(dbID) + snapshotName(version)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return fmt.Errorf("snapshot %d of %s: %w", version, dbID, result.NotFound)
		}
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	return nil
}

func (v *S3Vault) Versions(dbID string) ([]int64, error) {
	dir := v.dir(dbID)
	pages := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(dir),
	})

	var names []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(v.ctx)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if !strings.Contains(name, "/") {
				names = append(names, name)
			}
		}
	}
	return parseSnapshotNames(names), nil
}

// ValidateSetup checks the bucket exists and is accessible.
func (v *S3Vault) ValidateSetup() error {
	if _, err := v.client.HeadBucket(v.ctx, &s3.HeadBucketInput{Bucket: aws.String(v.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

// Compile-time check that S3Vault implements the Vault interface
var _ Vault = (*S3Vault)(nil)
