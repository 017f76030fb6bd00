package attachments

import (
	"testing"

	"attachments-api/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		fileName string
		want     models.AttachmentType
	}{
		{"photo.jpg", models.AttachmentTypeImage},
		{"photo.JPG", models.AttachmentTypeImage},
		{"scan.jpeg", models.AttachmentTypeImage},
		{"diagram.png", models.AttachmentTypeImage},
		{"anim.gif", models.AttachmentTypeImage},
		{"old.bmp", models.AttachmentTypeImage},
		{"modern.webp", models.AttachmentTypeImage},
		{"INVOICE-Signed.PDF", models.AttachmentTypePDF},
		{"quote.pdf", models.AttachmentTypePDF},
		{"walkthrough.mp4", models.AttachmentTypeVideo},
		{"site.MOV", models.AttachmentTypeVideo},
		{"notes.txt", models.AttachmentTypeOther},
		{"report.xlsx", models.AttachmentTypeOther},
		{"noext", models.AttachmentTypeOther},
		{"", models.AttachmentTypeOther},
		{".pdf", models.AttachmentTypePDF},
		{"archive.tar.gz", models.AttachmentTypeOther},
		{"double.dot.png", models.AttachmentTypeImage},
		{"trailing.", models.AttachmentTypeOther},
	}

	for _, tc := range cases {
		if got := Classify(tc.fileName); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.fileName, got, tc.want)
		}
	}
}
