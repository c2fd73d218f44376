package models

import "time"

// RevisionRecord is one supplemental-upload event for a session. Records are
// append-only; they are never mutated after creation.
type RevisionRecord struct {
	ID             int64     `json:"id,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	RequirementIDs []string  `json:"requirement_ids"`
	Note           string    `json:"note,omitempty"`
	Filenames      []string  `json:"filenames"`
	StoredPaths    []string  `json:"file_paths,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
