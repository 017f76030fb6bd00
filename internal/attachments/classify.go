package attachments

import (
	"path/filepath"
	"strings"

	"attachments-api/internal/models"
)

// extensionMap mirrors the buckets consumers key off: images render in a
// gallery, pdfs and videos get their own viewers, everything else is a
// plain download link.
var extensionMap = map[string]models.AttachmentType{
	".jpg":  models.AttachmentTypeImage,
	".jpeg": models.AttachmentTypeImage,
	".png":  models.AttachmentTypeImage,
	".gif":  models.AttachmentTypeImage,
	".bmp":  models.AttachmentTypeImage,
	".webp": models.AttachmentTypeImage,
	".pdf":  models.AttachmentTypePDF,
	".mp4":  models.AttachmentTypeVideo,
	".mov":  models.AttachmentTypeVideo,
}

// Classify buckets a filename by extension, case-insensitively. Unknown
// and missing extensions classify as "oth"; it never fails.
func Classify(fileName string) models.AttachmentType {
	ext := strings.ToLower(filepath.Ext(fileName))
	if t, ok := extensionMap[ext]; ok {
		return t
	}
	return models.AttachmentTypeOther
}
