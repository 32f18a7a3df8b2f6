package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync"
)

// MockS3Service is a mock implementation of S3Interface for testing
type MockS3Service struct {
	objects     map[string][]byte // "{bucket}/{key}" -> content
	mu          sync.RWMutex
	UploadErr   error // when set, upload calls fail with this error
	DownloadErr error // when set, download calls fail with this error
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

func (m *MockS3Service) objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// UploadFile simulates uploading a multipart file
func (m *MockS3Service) UploadFile(fileHeader *multipart.FileHeader, bucket, keyPrefix string) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("%s/mock_%s", keyPrefix, filepath.Base(fileHeader.Filename))

	m.mu.Lock()
	m.objects[m.objectKey(bucket, key)] = content
	m.mu.Unlock()

	return key, nil
}

// UploadBytes simulates uploading raw content
func (m *MockS3Service) UploadBytes(content []byte, bucket, key, contentType string) error {
	if m.UploadErr != nil {
		return m.UploadErr
	}

	m.mu.Lock()
	m.objects[m.objectKey(bucket, key)] = content
	m.mu.Unlock()
	return nil
}

// DownloadFile simulates fetching an object's content
func (m *MockS3Service) DownloadFile(bucket, key string) ([]byte, error) {
	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}

	m.mu.RLock()
	content, exists := m.objects[m.objectKey(bucket, key)]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("file not found in mock S3: %s/%s", bucket, key)
	}
	return content, nil
}

// PublicURL returns a mock public URL in the real URL shape so that
// ParsePublicURL round-trips
func (m *MockS3Service) PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.eu-central-1.amazonaws.com/%s", bucket, key)
}

// DeleteFile simulates deleting an object
func (m *MockS3Service) DeleteFile(bucket, key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.objects, m.objectKey(bucket, key))
	m.mu.Unlock()

	return nil
}

// FileExists checks if an object exists in mock storage
func (m *MockS3Service) FileExists(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[m.objectKey(bucket, key)]
	return exists
}

// StoredObjects returns a copy of all stored objects (for testing assertions)
func (m *MockS3Service) StoredObjects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}

// Clear removes all objects from mock storage
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.objects = make(map[string][]byte)
	m.mu.Unlock()
}
