package services

import (
	"fmt"
	"mime/multipart"

	appConfig "github.com/rp-tuning/rp-tuning-api/config"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// FileService handles ECU file uploads and downloads across the two storage
// buckets: customer uploads land in the tunes bucket, admin results and
// generated invoices in the modified-files bucket.
type FileService interface {
	// UploadTune validates and uploads a customer ECU file, returns its public URL
	UploadTune(fileHeader *multipart.FileHeader) (string, error)

	// UploadResult uploads an admin-modified result file, returns its public URL
	UploadResult(fileHeader *multipart.FileHeader) (string, error)

	// UploadInvoicePDF stores a generated invoice PDF, returns its public URL
	UploadInvoicePDF(content []byte, filename string) (string, error)

	// Download fetches a stored file's content by its public URL
	Download(publicURL string) ([]byte, error)
}

// S3FileService implements FileService on top of the S3 storage layer
type S3FileService struct {
	s3Service      S3Interface
	tunesBucket    string
	modifiedBucket string
}

var fileServiceInstance FileService

// InitFileService initializes the file service with the S3 backend
func InitFileService(s3Service S3Interface, cfg *appConfig.Config) FileService {
	fileServiceInstance = &S3FileService{
		s3Service:      s3Service,
		tunesBucket:    cfg.TunesBucket,
		modifiedBucket: cfg.ModifiedBucket,
	}
	return fileServiceInstance
}

// GetFileService returns the initialized file service instance
func GetFileService() FileService {
	return fileServiceInstance
}

// SetFileService sets the file service instance (primarily for testing)
func SetFileService(service FileService) {
	fileServiceInstance = service
}

// UploadTune validates and uploads a customer ECU file to the tunes bucket
func (s *S3FileService) UploadTune(fileHeader *multipart.FileHeader) (string, error) {
	// Validate the ECU file
	if err := utils.ValidateTuneFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(fileHeader, s.tunesBucket, "uploads")
	if err != nil {
		return "", fmt.Errorf("failed to upload tune file: %w", err)
	}

	return s.s3Service.PublicURL(s.tunesBucket, key), nil
}

// UploadResult uploads an admin-modified result file to the modified-files bucket
func (s *S3FileService) UploadResult(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateTuneFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(fileHeader, s.modifiedBucket, "results")
	if err != nil {
		return "", fmt.Errorf("failed to upload result file: %w", err)
	}

	return s.s3Service.PublicURL(s.modifiedBucket, key), nil
}

// UploadInvoicePDF stores a generated invoice PDF in the modified-files bucket
func (s *S3FileService) UploadInvoicePDF(content []byte, filename string) (string, error) {
	key := "invoices/" + filename
	if err := s.s3Service.UploadBytes(content, s.modifiedBucket, key, "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to upload invoice PDF: %w", err)
	}
	return s.s3Service.PublicURL(s.modifiedBucket, key), nil
}

// Download fetches a stored file's content by its public URL
func (s *S3FileService) Download(publicURL string) ([]byte, error) {
	bucket, key, err := ParsePublicURL(publicURL)
	if err != nil {
		return nil, err
	}

	content, err := s.s3Service.DownloadFile(bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return content, nil
}
