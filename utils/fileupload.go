package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 50MB in bytes; ECU dumps rarely exceed 10MB but
	// customers occasionally send zipped full backups
	MaxFileSize = 50 * 1024 * 1024
)

// AllowedTuneExtensions lists the file extensions accepted for ECU uploads
var AllowedTuneExtensions = map[string]bool{
	".bin": true,
	".ori": true,
	".mod": true,
	".ecu": true,
	".fls": true,
	".zip": true,
	".rar": true,
	".7z":  true,
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateTuneFile validates an uploaded ECU file's extension and size
func ValidateTuneFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !AllowedTuneExtensions[ext] {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("File type %q is not supported for ECU uploads", ext),
		}
	}

	return nil
}
