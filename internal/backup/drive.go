package backup

import (
	"bytes"
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	RootBackupsFolderName = "gymbuddy-backup"
	folderMimeType        = "application/vnd.google-apps.folder"
	jsonMimeType          = "application/json"
)

// DriveUploader stores backup files in a single Google Drive folder.
type DriveUploader struct {
	service  *drive.Service
	folderID string
}

// NewDriveUploader finds the backups folder, creating it when missing.
// Credentials are passed as client options, e.g. option.WithCredentialsJSON.
func NewDriveUploader(ctx context.Context, opts ...option.ClientOption) (*DriveUploader, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	u := &DriveUploader{service: driveService}

	rootFolderQuery := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", folderMimeType, RootBackupsFolderName)
	folders, err := driveService.Files.List().
		Q(rootFolderQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	switch len(folders.Files) {
	case 0:
		log.Println("root backups folder not found, creating ...")
		folder, err := driveService.Files.
			Create(&drive.File{Name: RootBackupsFolderName, MimeType: folderMimeType}).
			Fields("id").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to create root backups folder: %w", err)
		}
		u.folderID = folder.Id
		log.Printf("new root backups folder created: %s", u.folderID)
	case 1:
		u.folderID = folders.Files[0].Id
		log.Printf("found backups folder ID: %s", u.folderID)
	default:
		u.folderID = folders.Files[0].Id
		log.Warnf("attention: found %d root backups folders, will take the first one: %s", len(folders.Files), u.folderID)
	}

	return u, nil
}

func (u *DriveUploader) FolderID() string {
	return u.folderID
}

// Upload writes content under name, replacing the file if one with that name already exists.
func (u *DriveUploader) Upload(ctx context.Context, name string, content []byte) (string, error) {
	existingQuery := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false", u.folderID, name)
	existing, err := u.service.Files.List().
		Q(existingQuery).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", name, err)
	}

	if len(existing.Files) > 0 {
		fileID := existing.Files[0].Id
		if _, err := u.service.Files.
			Update(fileID, &drive.File{}).
			Media(bytes.NewReader(content)).
			Context(ctx).
			Do(); err != nil {
			return "", fmt.Errorf("update %s: %w", name, err)
		}
		return fileID, nil
	}

	created, err := u.service.Files.
		Create(&drive.File{
			Name:     name,
			MimeType: jsonMimeType,
			Parents:  []string{u.folderID},
		}).
		Fields("id, parents").
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	return created.Id, nil
}
