package repositories

import "attachments-api/pkg/postgres"

// Repositories holds all repository instances
type Repositories struct {
	Status     *StatusRepository
	Attachment *AttachmentRepository
}

func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Status:     NewStatusRepository(db),
		Attachment: NewAttachmentRepository(db),
	}
}
