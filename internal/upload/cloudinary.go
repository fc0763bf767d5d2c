package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Domenick1991/resortbooking/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sirupsen/logrus"
)

var ErrEmptyFile = errors.New("empty identity document")

// CloudinaryUploader stores identity documents attached to bookings.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *logrus.Logger
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig, logger *logrus.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: cfg.Folder, logger: logger}, nil
}

// UploadIDDocument returns the secure URL of the stored file.
func (u *CloudinaryUploader) UploadIDDocument(ctx context.Context, filename string, file io.Reader) (string, error) {
	if file == nil {
		return "", ErrEmptyFile
	}

	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     PublicID(filename),
		ResourceType: "auto",
		Tags:         []string{"id-document"},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", filename, result.Error.Message)
	}

	u.logger.WithFields(logrus.Fields{"file": filename, "public_id": result.PublicID}).Info("identity document uploaded")
	return result.SecureURL, nil
}

// PublicID derives a storage name from the client file name, without extension.
func PublicID(filename string) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
