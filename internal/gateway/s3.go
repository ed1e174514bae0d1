package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tmx-go/internal/config"
	"tmx-go/internal/tmx"
)

// S3Gateway implements the StoreGateway against any S3-compatible server.
// The deployment target is MinIO, so the client is pinned to path-style
// addressing with an explicit base endpoint.
type S3Gateway struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Gateway creates a gateway from the store configuration.
func NewS3Gateway(ctx context.Context, cfg config.StoreConfig) (*S3Gateway, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 store requires an endpoint")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	endpoint := cfg.Endpoint
	if !strings.Contains(endpoint, "://") {
		scheme := "https"
		if cfg.Insecure {
			scheme = "http"
		}
		endpoint = scheme + "://" + endpoint
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // MinIO does not serve virtual-hosted buckets
	})

	return &S3Gateway{
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (g *S3Gateway) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head bucket %s: %w", bucket, err)
	}
	return true, nil
}

func (g *S3Gateway) MakeBucket(ctx context.Context, bucket string) error {
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func (g *S3Gateway) ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]tmx.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if !recursive {
		input.Delimiter = aws.String(tmx.KeySeparator)
	}

	var infos []tmx.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(g.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, tmx.ObjectInfo{
				Key:  aws.ToString(obj.Key),
				ETag: aws.ToString(obj.ETag),
				Size: aws.ToInt64(obj.Size),
			})
		}
		// Folder pseudo-entries under a delimited listing.
		for _, cp := range page.CommonPrefixes {
			infos = append(infos, tmx.ObjectInfo{Key: aws.ToString(cp.Prefix)})
		}
	}
	return infos, nil
}

func (g *S3Gateway) StatObject(ctx context.Context, bucket, key string) (*tmx.ObjectStat, error) {
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("head object %s/%s: %w", bucket, key, err)
	}
	return &tmx.ObjectStat{
		ETag:     aws.ToString(out.ETag),
		Size:     aws.ToInt64(out.ContentLength),
		Metadata: out.Metadata,
	}, nil
}

func (g *S3Gateway) GetObject(ctx context.Context, bucket, key, destPath string) error {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

func (g *S3Gateway) PutObject(ctx context.Context, bucket, key, srcPath string, metadata map[string]string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer f.Close()

	// The manager uploader switches to multipart above its part-size
	// threshold, which large assembly models routinely exceed.
	out, err := g.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Body:     f,
		Metadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return aws.ToString(out.ETag), nil
}

func (g *S3Gateway) RemoveObject(ctx context.Context, bucket, key string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}
