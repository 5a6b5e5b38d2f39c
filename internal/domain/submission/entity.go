package submission

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record represents user_resumes. One row per successful upload; rows are
// never updated or deleted.
type Record struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	MobileNumber   string    `gorm:"not null" json:"mobile_number"`
	ResumeFilename string    `gorm:"not null" json:"resume_filename"`
	ResumePath     string    `gorm:"not null;uniqueIndex" json:"resume_path"`
	ResumeURL      string    `gorm:"not null" json:"resume_url"`
	CreatedAt      time.Time `gorm:"not null;index:idx_user_resumes_created_at,sort:desc" json:"created_at"`
}

func (Record) TableName() string {
	return "user_resumes"
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
