package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/youssefabdellah10/craftopia-sub000/utils"
)

// ErrMockUploadFailed is returned by MockImageService when Fail is set
var ErrMockUploadFailed = errors.New("mock image store unavailable")

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	mu      sync.Mutex
	uploads []string

	// Fail makes every upload return ErrMockUploadFailed
	Fail bool
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadImage records the upload and returns a fake URL
func (m *MockImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	if m.Fail {
		return "", ErrMockUploadFailed
	}

	url := fmt.Sprintf("https://images.test/%s/%s", folder, fileHeader.Filename)

	m.mu.Lock()
	m.uploads = append(m.uploads, url)
	m.mu.Unlock()

	return url, nil
}

// Uploads returns the URLs handed out so far
func (m *MockImageService) Uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploads...)
}
