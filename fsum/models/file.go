package models

import (
	"time"
)

// FileRecord is one stored row: the metadata and digest of a fully hashed file
type FileRecord struct {
	ID          int64     `json:"id"`
	FileName    string    `json:"file_name"`    // Base name of the file
	FilePath    string    `json:"file_path"`    // Full path, unique key
	FileSize    int64     `json:"file_size"`    // Size in bytes at processing time
	MD5Hash     string    `json:"md5_hash"`     // Lowercase hex digest of the content
	Status      string    `json:"status"`       // Always "processed" for stored rows
	ProcessedAt time.Time `json:"processed_at"` // Set by the store on insert or replace
}
