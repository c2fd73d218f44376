package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"opncheck-backend/cache"
	"opncheck-backend/models"
	"opncheck-backend/storage"
)

var ErrEmptyRevision = errors.New("revision carries no files and no note")

// RevisionUpload is one supplemental file handed in with a revision.
type RevisionUpload struct {
	Filename string
	Content  []byte
	// ExtractedText is the text pulled out of the document by the caller.
	// Image uploads may leave it empty.
	ExtractedText string
	// IsImage marks graphic attachments that should also be sent to the
	// judge as visual evidence.
	IsImage bool
}

// RevisionService records supplemental documentation for a session:
// uploaded files go to storage, the revision itself is appended to the
// session history, and the extracted text extends the session's evidence.
// Nothing previously uploaded is ever discarded.
type RevisionService struct {
	cache *cache.SessionCache
	files storage.Storage
	repo  RevisionRepository
}

// RevisionRepository persists revision records.
type RevisionRepository interface {
	Insert(ctx context.Context, rec *models.RevisionRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]models.RevisionRecord, error)
}

// RevisionServiceOption is a functional option for RevisionService
type RevisionServiceOption func(*RevisionService)

// WithRevisionCache sets the session cache
func WithRevisionCache(c *cache.SessionCache) RevisionServiceOption {
	return func(s *RevisionService) {
		s.cache = c
	}
}

// WithRevisionStorage sets the file storage
func WithRevisionStorage(st storage.Storage) RevisionServiceOption {
	return func(s *RevisionService) {
		s.files = st
	}
}

// WithRevisionRepository sets the revision repository
func WithRevisionRepository(repo RevisionRepository) RevisionServiceOption {
	return func(s *RevisionService) {
		s.repo = repo
	}
}

// NewRevisionService creates a new revision service
func NewRevisionService(opts ...RevisionServiceOption) *RevisionService {
	s := &RevisionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRevisionRequest carries one revision event.
type AddRevisionRequest struct {
	SessionID      string
	RequirementIDs []string
	Note           string
	Uploads        []RevisionUpload
}

// AddRevision stores the uploaded files, appends the revision to the session
// history and extends the session's evidence text with a demarcated block.
// The updated session is written back under the same id, so a subsequent
// (re-)analysis sees all evidence accumulated so far.
func (s *RevisionService) AddRevision(ctx context.Context, req AddRevisionRequest) (*models.RevisionRecord, error) {
	if s.cache == nil {
		return nil, errors.New("session cache not set")
	}
	if len(req.Uploads) == 0 && strings.TrimSpace(req.Note) == "" {
		return nil, ErrEmptyRevision
	}

	var data models.SessionData
	found, err := s.cache.Get(req.SessionID, &data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}

	rec := models.RevisionRecord{
		SessionID:      req.SessionID,
		RequirementIDs: req.RequirementIDs,
		Note:           req.Note,
		UploadedAt:     time.Now().UTC(),
	}

	var texts []string
	for _, up := range req.Uploads {
		rec.Filenames = append(rec.Filenames, up.Filename)

		if s.files != nil {
			stored, err := s.files.Save(ctx, req.SessionID, up.Filename, bytes.NewReader(up.Content))
			if err != nil {
				return nil, fmt.Errorf("store revision file %s: %w", up.Filename, err)
			}
			rec.StoredPaths = append(rec.StoredPaths, stored)
			if up.IsImage {
				data.ImagePaths = append(data.ImagePaths, stored)
			}
		}

		if t := strings.TrimSpace(up.ExtractedText); t != "" {
			texts = append(texts, fmt.Sprintf("[Datoteka: %s]\n%s", up.Filename, t))
		}
		data.SourceFiles = append(data.SourceFiles, models.SourceFile{
			Filename: up.Filename,
			Size:     len(up.Content),
		})
	}

	if s.repo != nil {
		if err := s.repo.Insert(ctx, &rec); err != nil {
			// The session still carries the revision; persistence catches up
			// on the next insert.
			log.Printf("Warning: Failed to persist revision for session %s: %v", req.SessionID, err)
		}
	}

	data.ProjectText += revisionBlock(rec, req.Note, texts)
	data.RevisionHistory = append(data.RevisionHistory, rec)

	if err := s.cache.Put(req.SessionID, data); err != nil {
		return nil, err
	}
	return &rec, nil
}

// History returns all revisions recorded for a session, oldest first. The
// session cache is authoritative for live sessions; the repository backfills
// when the cache has expired.
func (s *RevisionService) History(ctx context.Context, sessionID string) ([]models.RevisionRecord, error) {
	var data models.SessionData
	found, err := s.cache.Get(sessionID, &data)
	if err != nil {
		return nil, err
	}
	if found {
		return data.RevisionHistory, nil
	}
	if s.repo != nil {
		return s.repo.ListBySession(ctx, sessionID)
	}
	return nil, ErrSessionNotFound
}

// revisionBlock renders the demarcated evidence block appended to the
// session's project text for one revision.
func revisionBlock(rec models.RevisionRecord, note string, texts []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n--- REVIZIJA DOKUMENTACIJE (%s) ---\n", rec.UploadedAt.Format("2006-01-02 15:04"))
	if len(rec.RequirementIDs) > 0 {
		fmt.Fprintf(&b, "Naslovljene zahteve: %s\n", strings.Join(rec.RequirementIDs, ", "))
	}
	if strings.TrimSpace(note) != "" {
		fmt.Fprintf(&b, "Opomba vlagatelja: %s\n", note)
	}
	for _, t := range texts {
		b.WriteString("\n")
		b.WriteString(t)
		b.WriteString("\n")
	}
	b.WriteString("--- KONEC REVIZIJE ---")
	return b.String()
}
