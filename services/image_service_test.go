package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefabdellah10/craftopia-sub000/utils"
)

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	require.NotEmpty(t, form.File["image"])
	return form.File["image"][0]
}

func TestS3ImageService_UploadImage(t *testing.T) {
	mockS3 := NewMockS3Service()
	svc := NewS3ImageService(mockS3)

	url, err := svc.UploadImage(context.Background(), newFileHeader(t, "my sketch.png", []byte("png bytes")), FolderCustomizationRequests)
	require.NoError(t, err)

	keys := mockS3.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], FolderCustomizationRequests+"/"), "key %q should live in the folder", keys[0])
	assert.True(t, strings.HasSuffix(keys[0], "my_sketch.png"))
	assert.Equal(t, mockS3.ObjectURL(keys[0]), url)
}

func TestS3ImageService_RejectsBeforeUploading(t *testing.T) {
	mockS3 := NewMockS3Service()
	svc := NewS3ImageService(mockS3)

	_, err := svc.UploadImage(context.Background(), newFileHeader(t, "notes.pdf", []byte("%PDF")), FolderCustomizationResponses)
	var uploadErr *utils.FileUploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
	assert.Empty(t, mockS3.Keys())
}

func TestS3ImageService_StorageFailure(t *testing.T) {
	mockS3 := NewMockS3Service()
	mockS3.UploadErr = errors.New("access denied")
	svc := NewS3ImageService(mockS3)

	_, err := svc.UploadImage(context.Background(), newFileHeader(t, "ring.jpg", []byte("jpg")), FolderCustomizationResponses)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestLocalImageService_UploadImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewLocalImageService(dir)

	url, err := svc.UploadImage(context.Background(), newFileHeader(t, "vase.webp", []byte("webp bytes")), FolderCustomizationResponses)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/api/v1/uploads/"))

	content, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/api/v1/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("webp bytes"), content)
}

func TestMockImageService(t *testing.T) {
	mock := NewMockImageService()
	url, err := mock.UploadImage(context.Background(), newFileHeader(t, "a.png", []byte("x")), FolderCustomizationRequests)
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/customization-requests/a.png", url)
	assert.Equal(t, []string{url}, mock.Uploads())

	mock.Fail = true
	_, err = mock.UploadImage(context.Background(), newFileHeader(t, "b.png", []byte("x")), FolderCustomizationRequests)
	assert.ErrorIs(t, err, ErrMockUploadFailed)
}
