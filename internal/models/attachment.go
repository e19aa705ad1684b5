package models

import "time"

// Attachment is a file artifact bound to exactly one task. StorageKey is the
// generated on-disk name; Filename keeps the name the client uploaded under.
type Attachment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;index" json:"task_id"`
	Filename   string    `gorm:"type:varchar(255);not null" json:"filename"`
	StorageKey string    `gorm:"type:varchar(255);not null" json:"-"`
	MimeType   string    `gorm:"type:varchar(100);not null" json:"mimetype"`
	Size       int64     `gorm:"not null" json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}
