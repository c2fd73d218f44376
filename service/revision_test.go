package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"opncheck-backend/cache"
	"opncheck-backend/models"
)

// memoryStorage keeps stored files in a map, for tests.
type memoryStorage struct {
	files map[string][]byte
	seq   int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (m *memoryStorage) Save(ctx context.Context, sessionID, filename string, data io.Reader) (string, error) {
	blob, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.seq++
	path := fmt.Sprintf("sessions/%s/%d_%s", sessionID, m.seq, filename)
	m.files[path] = blob
	return path, nil
}

func (m *memoryStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	blob, ok := m.files[storagePath]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

func (m *memoryStorage) Delete(ctx context.Context, storagePath string) error {
	delete(m.files, storagePath)
	return nil
}

// memoryRevisions is an in-memory RevisionRepository.
type memoryRevisions struct {
	records []models.RevisionRecord
	failing bool
}

func (r *memoryRevisions) Insert(ctx context.Context, rec *models.RevisionRecord) error {
	if r.failing {
		return errors.New("database down")
	}
	rec.ID = int64(len(r.records) + 1)
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRevisions) ListBySession(ctx context.Context, sessionID string) ([]models.RevisionRecord, error) {
	var out []models.RevisionRecord
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestRevisionService() (*RevisionService, *cache.SessionCache, *memoryStorage, *memoryRevisions) {
	c := cache.NewSessionCache(time.Minute)
	st := newMemoryStorage()
	repo := &memoryRevisions{}
	svc := NewRevisionService(
		WithRevisionCache(c),
		WithRevisionStorage(st),
		WithRevisionRepository(repo),
	)
	return svc, c, st, repo
}

func TestAddRevisionExtendsEvidence(t *testing.T) {
	svc, c, st, repo := newTestRevisionService()
	seedSession(t, c, "s1")

	var before models.SessionData
	if _, err := c.Get("s1", &before); err != nil {
		t.Fatal(err)
	}

	rec, err := svc.AddRevision(context.Background(), AddRevisionRequest{
		SessionID:      "s1",
		RequirementIDs: []string{"Z_2", "Z_5"},
		Note:           "Dopolnjen odmik od parcelne meje.",
		Uploads: []RevisionUpload{
			{Filename: "dopolnitev.txt", Content: []byte("Odmik znaša 4,0 m."), ExtractedText: "Odmik znaša 4,0 m."},
			{Filename: "situacija.png", Content: []byte{0x89, 0x50}, IsImage: true},
		},
	})
	if err != nil {
		t.Fatalf("AddRevision: %v", err)
	}
	if len(rec.StoredPaths) != 2 || len(st.files) != 2 {
		t.Errorf("expected 2 stored files, got record %v, storage %d", rec.StoredPaths, len(st.files))
	}
	if len(repo.records) != 1 {
		t.Errorf("expected 1 persisted record, got %d", len(repo.records))
	}

	var after models.SessionData
	if _, err := c.Get("s1", &after); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(after.ProjectText, before.ProjectText) {
		t.Error("revision must extend the evidence, never replace it")
	}
	appended := after.ProjectText[len(before.ProjectText):]
	for _, want := range []string{
		"--- REVIZIJA DOKUMENTACIJE (",
		"Naslovljene zahteve: Z_2, Z_5",
		"Dopolnjen odmik od parcelne meje.",
		"Odmik znaša 4,0 m.",
		"--- KONEC REVIZIJE ---",
	} {
		if !strings.Contains(appended, want) {
			t.Errorf("appended evidence missing %q:\n%s", want, appended)
		}
	}

	if len(after.RevisionHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(after.RevisionHistory))
	}
	if len(after.ImagePaths) != 1 {
		t.Errorf("image upload not registered as visual evidence: %v", after.ImagePaths)
	}
}

func TestAddRevisionHistoryIsAppendOnly(t *testing.T) {
	svc, c, _, _ := newTestRevisionService()
	seedSession(t, c, "s1")

	for i := 0; i < 3; i++ {
		_, err := svc.AddRevision(context.Background(), AddRevisionRequest{
			SessionID: "s1",
			Note:      fmt.Sprintf("revizija %d", i),
		})
		if err != nil {
			t.Fatalf("AddRevision %d: %v", i, err)
		}
	}

	history, err := svc.History(context.Background(), "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(history))
	}
	for i, rec := range history {
		if rec.Note != fmt.Sprintf("revizija %d", i) {
			t.Errorf("revision %d out of order: %q", i, rec.Note)
		}
	}
}

func TestAddRevisionUnknownSession(t *testing.T) {
	svc, _, _, _ := newTestRevisionService()

	_, err := svc.AddRevision(context.Background(), AddRevisionRequest{
		SessionID: "neznana",
		Note:      "dopolnitev",
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAddRevisionEmpty(t *testing.T) {
	svc, c, _, _ := newTestRevisionService()
	seedSession(t, c, "s1")

	_, err := svc.AddRevision(context.Background(), AddRevisionRequest{SessionID: "s1"})
	if !errors.Is(err, ErrEmptyRevision) {
		t.Fatalf("expected ErrEmptyRevision, got %v", err)
	}
}

func TestAddRevisionSurvivesRepositoryOutage(t *testing.T) {
	svc, c, _, repo := newTestRevisionService()
	repo.failing = true
	seedSession(t, c, "s1")

	rec, err := svc.AddRevision(context.Background(), AddRevisionRequest{
		SessionID: "s1",
		Note:      "dopolnitev",
	})
	if err != nil {
		t.Fatalf("AddRevision with failing repository: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a revision record despite persistence failure")
	}

	var data models.SessionData
	if _, err := c.Get("s1", &data); err != nil {
		t.Fatal(err)
	}
	if len(data.RevisionHistory) != 1 {
		t.Error("revision not recorded in session history")
	}
}
