package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"sisterhood-backend/logger"
)

var ErrNoStorage = errors.New("media storage is not configured")

// Store сохраняет загруженный файл и возвращает ссылку на него
type Store interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// DriveStore загружает файлы в папку Google Drive сервисного аккаунта
type DriveStore struct {
	service  *drive.Service
	folderID string
}

func NewDriveStore(ctx context.Context, credentialsFile, folderID string) (*DriveStore, error) {
	service, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &DriveStore{service: service, folderID: folderID}, nil
}

func (s *DriveStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	driveFile := &drive.File{
		Name:     StoredName(name),
		MimeType: contentType,
	}
	if s.folderID != "" {
		driveFile.Parents = []string{s.folderID}
	}

	uploaded, err := s.service.Files.Create(driveFile).
		Media(r).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	logger.Logger.WithField("file_id", uploaded.Id).Debug("media uploaded")
	return uploaded.WebViewLink, nil
}

// NoopStore - хранилище не настроено, загрузки отклоняются
type NoopStore struct{}

func (NoopStore) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNoStorage
}

// StoredName - уникальное имя файла с исходным расширением
func StoredName(original string) string {
	ext := strings.ToLower(path.Ext(original))
	return uuid.NewString() + ext
}

// KindOf - тип медиа по content type: image, video или пустая строка
func KindOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	}
	return ""
}
