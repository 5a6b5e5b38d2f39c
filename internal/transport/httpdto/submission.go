package httpdto

import (
	"time"

	"resume-intake/internal/domain/submission"
)

// UploadForm is bound from the multipart body of POST /api/upload. The file
// part is read separately.
type UploadForm struct {
	Name         string `form:"name"`
	MobileNumber string `form:"mobile_number"`
}

// SubmissionDTO represents a stored submission in API responses
type SubmissionDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MobileNumber   string `json:"mobile_number"`
	ResumeFilename string `json:"resume_filename"`
	ResumePath     string `json:"resume_path"`
	ResumeURL      string `json:"resume_url"`
	CreatedAt      string `json:"created_at"`
}

// UploadResultDTO is returned after a successful upload
type UploadResultDTO struct {
	Name           string `json:"name"`
	MobileNumber   string `json:"mobile_number"`
	ResumeFilename string `json:"resume_filename"`
	ResumePath     string `json:"resume_path"`
	ResumeURL      string `json:"resume_url"`
	CreatedAt      string `json:"created_at"`
	OriginalSize   int    `json:"original_size"`
	UploadedSize   int    `json:"uploaded_size"`
	Compressed     bool   `json:"compressed"`
}

type HealthDTO struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func NewSubmissionDTO(rec submission.Record) SubmissionDTO {
	return SubmissionDTO{
		ID:             rec.ID.String(),
		Name:           rec.Name,
		MobileNumber:   rec.MobileNumber,
		ResumeFilename: rec.ResumeFilename,
		ResumePath:     rec.ResumePath,
		ResumeURL:      rec.ResumeURL,
		CreatedAt:      formatTime(rec.CreatedAt),
	}
}

func NewSubmissionDTOs(records []submission.Record) []SubmissionDTO {
	out := make([]SubmissionDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, NewSubmissionDTO(rec))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
