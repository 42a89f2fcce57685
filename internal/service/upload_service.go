package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/transport"
)

const (
	uploadField        = "image"
	defaultImageName   = "image.jpg"
	defaultContentType = "image/jpeg"
)

var (
	ErrUploadFailed = errors.New("image upload failed")

	extensionPattern = regexp.MustCompile(`\.(\w+)$`)
)

type UploadService struct {
	api Requester
}

func NewUploadService(api Requester) *UploadService {
	return &UploadService{api: api}
}

// UploadImage sends the local file behind uri and returns the permanent
// URL the backend assigned to it.
func (s *UploadService) UploadImage(ctx context.Context, uri string) (string, error) {
	name, contentType := DescribeImage(uri)

	path, err := localPath(uri)
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	var resp models.UploadResponse
	err = s.api.PostMultipart(ctx, "/upload/image", transport.Multipart{
		Field:       uploadField,
		FileName:    name,
		ContentType: contentType,
		Content:     file,
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.ImageURL == "" {
		return "", ErrUploadFailed
	}
	return resp.ImageURL, nil
}

// DescribeImage derives the multipart filename and content type from the
// last segment of uri.
func DescribeImage(uri string) (name string, contentType string) {
	name = uri[strings.LastIndex(uri, "/")+1:]
	if name == "" {
		name = defaultImageName
	}

	contentType = defaultContentType
	if m := extensionPattern.FindStringSubmatch(name); m != nil {
		contentType = "image/" + m[1]
	}
	return name, contentType
}

func localPath(uri string) (string, error) {
	if !strings.HasPrefix(uri, "file://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse image uri: %w", err)
	}
	return u.Path, nil
}
