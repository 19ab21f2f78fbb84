package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/youssefabdellah10/craftopia-sub000/utils"
)

// Upload folders
const (
	FolderCustomizationRequests  = "customization-requests"
	FolderCustomizationResponses = "customization-responses"
)

// ImageService stores uploaded images and returns the URL they are served from
type ImageService interface {
	// UploadImage validates and stores an image under folder, returning its URL
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// LocalImageService implements ImageService on the local filesystem.
// Files are served by the uploads endpoint.
type LocalImageService struct {
	dir string
}

var imageServiceInstance ImageService

// NewS3ImageService creates an ImageService backed by S3
func NewS3ImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// NewLocalImageService creates an ImageService writing into dir
func NewLocalImageService(dir string) *LocalImageService {
	return &LocalImageService{dir: dir}
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	name := utils.ObjectName("", fileHeader.Filename)
	key := path.Join(strings.Trim(folder, "/"), name)
	if err := s.s3Service.UploadFile(ctx, fileHeader, key); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.s3Service.ObjectURL(key), nil
}

// UploadImage validates and saves an image file to disk
func (s *LocalImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	filename, err := utils.SaveUploadedFile(fileHeader, s.dir, folder)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return utils.GetImageURL(filename), nil
}
