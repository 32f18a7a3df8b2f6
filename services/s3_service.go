package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appConfig "github.com/rp-tuning/rp-tuning-api/config"
)

// S3Interface defines the interface for object storage operations
type S3Interface interface {
	UploadFile(fileHeader *multipart.FileHeader, bucket, keyPrefix string) (string, error)
	UploadBytes(content []byte, bucket, key, contentType string) error
	DownloadFile(bucket, key string) ([]byte, error)
	PublicURL(bucket, key string) string
	DeleteFile(bucket, key string) error
}

// S3Service handles all S3-related operations
type S3Service struct {
	client *s3.Client
	region string
}

var s3ServiceInstance S3Interface

// InitS3Service initializes the S3 service with AWS credentials
func InitS3Service() (S3Interface, error) {
	cfg := appConfig.GetConfig()

	// Load AWS configuration with explicit options
	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3ServiceInstance = &S3Service{
		client: s3.NewFromConfig(awsConfig),
		region: cfg.AWSRegion,
	}

	return s3ServiceInstance, nil
}

// GetS3Service returns the initialized S3 service instance
func GetS3Service() S3Interface {
	return s3ServiceInstance
}

// SetS3Service sets the S3 service instance (primarily for testing)
func SetS3Service(service S3Interface) {
	s3ServiceInstance = service
}

// UploadFile uploads a multipart file to the given bucket under keyPrefix and
// returns the object key. Keys carry a random component so two customers
// uploading "read.bin" never collide.
func (s *S3Service) UploadFile(fileHeader *multipart.FileHeader, bucket, keyPrefix string) (string, error) {
	// Open the uploaded file
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	// Read file content
	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Generate unique key: {prefix}/{uuid}_{filename}
	filename := filepath.Base(fileHeader.Filename)
	key := fmt.Sprintf("%s/%s_%s", strings.Trim(keyPrefix, "/"), uuid.NewString()[:8], filename)

	if err := s.UploadBytes(content, bucket, key, "application/octet-stream"); err != nil {
		return "", err
	}

	return key, nil
}

// UploadBytes uploads raw content to the given bucket and key
func (s *S3Service) UploadBytes(content []byte, bucket, key, contentType string) error {
	_, err := s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// DownloadFile fetches an object's content from the given bucket
func (s *S3Service) DownloadFile(bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object from S3: %w", err)
	}
	defer func() {
		if closeErr := out.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close S3 object body: %v", closeErr)
		}
	}()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return content, nil
}

// PublicURL returns the public read URL for an object. Both buckets allow
// public-URL read access.
func (s *S3Service) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
}

// DeleteFile deletes an object from the given bucket
func (s *S3Service) DeleteFile(bucket, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// ParsePublicURL splits a public object URL of the form
// https://{bucket}.s3.{region}.amazonaws.com/{key} into bucket and key
func ParsePublicURL(publicURL string) (bucket, key string, err error) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid file URL: %w", err)
	}

	host := u.Hostname()
	idx := strings.Index(host, ".s3.")
	if idx <= 0 {
		return "", "", fmt.Errorf("not a recognized storage URL: %s", publicURL)
	}

	bucket = host[:idx]
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("storage URL has no object key: %s", publicURL)
	}
	return bucket, key, nil
}
