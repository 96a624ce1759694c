// Package archive uploads rendered session exports to S3-compatible object
// storage and hands out time-limited download links.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const DefaultLinkTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Settings describe the bucket and the credentials used to reach it.
type Settings struct {
	User     string
	Password string
	Bucket   string
	Region   string
	Endpoint string
	LinkTTL  time.Duration
}

type S3Store struct {
	settings Settings
	client   *s3.Client
	presign  *s3.PresignClient
}

func NewS3Store(ctx context.Context, s Settings) (*S3Store, error) {
	if s.LinkTTL <= 0 {
		s.LinkTTL = DefaultLinkTTL
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.User, s.Password, "")))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{settings: s, client: client, presign: s3.NewPresignClient(client)}, nil
}

// Key builds a unique object key for an owner's session export.
func Key(ownerID, sessionID, ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("archives/%s/%d/%02d/%02d/%s-%s.%s", ownerID, d.Year(), d.Month(), d.Day(), sessionID, uuid.NewString(), ext)
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	bucket := s.settings.Bucket
	err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	bucket := s.settings.Bucket
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.settings.LinkTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
