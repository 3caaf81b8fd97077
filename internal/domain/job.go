package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionJob tracks one paper extraction request through the pipeline.
type ExtractionJob struct {
	ID           uuid.UUID              `json:"id"`
	PaperPath    string                 `json:"paper_path"`
	Reader       string                 `json:"reader"`
	Model        string                 `json:"model,omitempty"`
	ColumnSchema string                 `json:"column_schema,omitempty"`
	Status       string                 `json:"status"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
