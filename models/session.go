package models

import "time"

// SessionProgress is the ephemeral state of a running analysis, polled by
// the frontend. Step and Percentage are monotonically non-decreasing within
// one run; Completed flips exactly once, with Error set only on failure.
type SessionProgress struct {
	Step       int    `json:"step"`
	TotalSteps int    `json:"total_steps"`
	Message    string `json:"message"`
	Percentage int    `json:"percentage"`
	Completed  bool   `json:"completed,omitempty"`
	Error      bool   `json:"error,omitempty"`
}

// SessionData is the accumulated evidence for a session: extracted project
// text (extended by revisions), paths of stored evidence images, project
// metadata, and the municipality the session is scoped to.
type SessionData struct {
	ProjectText      string            `json:"project_text"`
	ImagePaths       []string          `json:"image_paths,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	SourceFiles      []SourceFile      `json:"source_files,omitempty"`
	MunicipalitySlug string            `json:"municipality_slug,omitempty"`
	RevisionHistory  []RevisionRecord  `json:"revision_history,omitempty"`
}

// SourceFile records provenance of an uploaded document.
type SourceFile struct {
	Filename string `json:"filename"`
	Pages    string `json:"pages,omitempty"`
	Size     int    `json:"size"`
}

// AnalysisResult is the payload stored for a completed run and returned to
// the polling client.
type AnalysisResult struct {
	Status               string                      `json:"status"`
	Requirements         []Requirement               `json:"zahteve"`
	Results              map[string]ResultEntry      `json:"results_map"`
	NonCompliantIDs      []string                    `json:"non_compliant_ids"`
	RequirementRevisions map[string][]RevisionRecord `json:"requirement_revisions,omitempty"`
}

// SavedSession is one persisted analysis listed on the start page.
type SavedSession struct {
	SessionID   string    `json:"session_id"`
	ProjectName string    `json:"project_name"`
	Summary     string    `json:"summary"`
	UpdatedAt   time.Time `json:"updated_at"`
}
