package services

import (
	"path/filepath"
	"strings"

	"bgmi-arena/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxImageSize = 5 * 1024 * 1024

var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func checkImage(filename string, size int64) error {
	if !imageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return utils.Validation("only image files are allowed (jpeg, jpg, png, gif, webp)")
	}
	if size > maxImageSize {
		return utils.Validation("image must be 5MB or smaller")
	}
	return nil
}

// UploadService stores payment screenshots.
type UploadService struct {
	Storage utils.Storage
}

func NewUploadService(storage utils.Storage) *UploadService {
	return &UploadService{Storage: storage}
}

// UploadScreenshot accepts a multipart "image" and returns its URL, which
// clients then send as paymentScreenshot.
func (s *UploadService) UploadScreenshot(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return utils.JSONError(c, utils.Validation("image file is required"))
	}
	if err := checkImage(file.Filename, file.Size); err != nil {
		return utils.JSONError(c, err)
	}

	key := "screenshots/" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	url, err := s.Storage.Save(c.UserContext(), file, key)
	if err != nil {
		return utils.JSONError(c, err)
	}
	return utils.JSONCreated(c, "screenshot uploaded", fiber.Map{"url": url})
}
