package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignGetAPI issues download URLs for private buckets.
type PresignGetAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Config describes an S3 compatible bucket. Endpoint is only needed for
// non-AWS providers (R2, MinIO) and implies path style addressing.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	PresignExpiry time.Duration
}

// S3Store uploads objects with PutObject. Objects are linked through
// PublicBaseURL when set, otherwise through a presigned GET URL.
type S3Store struct {
	client        PutObjectAPI
	presigner     PresignGetAPI
	bucket        string
	publicBaseURL string
	expiry        time.Duration
}

// NewS3Client builds an S3 client from static credentials.
func NewS3Client(cfg S3Config) *s3.Client {
	awsCfg := aws.Config{Region: cfg.Region}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewS3Store wires a store to client. presigner may be nil when the bucket
// is public.
func NewS3Store(client PutObjectAPI, presigner PresignGetAPI, cfg S3Config) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("store: s3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store: s3 bucket is required")
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Store{
		client:        client,
		presigner:     presigner,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		expiry:        expiry,
	}, nil
}

// NewS3StoreFromConfig builds the client and presigner from cfg.
func NewS3StoreFromConfig(cfg S3Config) (*S3Store, error) {
	client := NewS3Client(cfg)
	return NewS3Store(client, s3.NewPresignClient(client), cfg)
}

func (s *S3Store) Put(ctx context.Context, obj Object) (Stored, error) {
	if obj.Key == "" {
		return Stored{}, ErrEmptyKey
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.MediaType != "" {
		input.ContentType = aws.String(obj.MediaType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Stored{}, fmt.Errorf("store: put s3://%s/%s: %w", s.bucket, obj.Key, err)
	}

	stored := Stored{Key: obj.Key, URL: joinURL(s.publicBaseURL, obj.Key)}
	if stored.URL != "" || s.presigner == nil {
		return stored, nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return Stored{}, fmt.Errorf("store: presign s3://%s/%s: %w", s.bucket, obj.Key, err)
	}
	stored.URL = req.URL
	return stored, nil
}
