// Package api contains the versioned request and response contracts
// for the class report service. Version v1 is the current stable
// surface; handlers render these types directly.
package api

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UploadResponse acknowledges an accepted workbook upload. StatusURL
// points at the job created for the batch.
type UploadResponse struct {
	JobID        string `json:"job_id"`
	WorkbookName string `json:"workbook_name"`
	Status       string `json:"status"`
	StatusURL    string `json:"status_url"`
}

// ReportFile describes one generated document available for download.
type ReportFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	URL      string    `json:"url"`
}

// JobListRequest carries the query parameters the job listing endpoint
// accepts. Since must be RFC 3339 when present.
type JobListRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Since  string `json:"since" query:"since" validate:"omitempty"`
	Limit  int    `json:"limit" query:"limit" validate:"min=0,max=500"`
}

// Validate checks the request against its declared constraints.
func (r JobListRequest) Validate() error {
	return validate.Struct(r)
}
