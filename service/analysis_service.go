package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"opncheck-backend/cache"
	"opncheck-backend/config"
	"opncheck-backend/knowledge"
	"opncheck-backend/models"
	"opncheck-backend/storage"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoRequirements  = errors.New("no requirements derived for session")
)

const analysisTotalSteps = 7

// CatalogProvider resolves a municipality knowledge slug to its rule catalog.
type CatalogProvider interface {
	Catalog(slug string) (*knowledge.Catalog, error)
}

// AnalysisService derives the applicable requirements for a session and runs
// the compliance judgment over them in chunks.
type AnalysisService struct {
	cache     *cache.SessionCache
	catalogs  CatalogProvider
	judge     Judge
	progress  *ProgressTracker
	files     storage.Storage
	chunkSize int
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithSessionCache sets the session cache
func WithSessionCache(c *cache.SessionCache) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.cache = c
	}
}

// WithCatalogProvider sets the knowledge catalog provider
func WithCatalogProvider(p CatalogProvider) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.catalogs = p
	}
}

// WithJudge sets the compliance judge
func WithJudge(j Judge) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.judge = j
	}
}

// WithProgressTracker sets the progress tracker
func WithProgressTracker(t *ProgressTracker) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.progress = t
	}
}

// WithFileStorage sets the evidence file storage
func WithFileStorage(st storage.Storage) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.files = st
	}
}

// WithChunkSize sets how many requirements go into one judgment batch
func WithChunkSize(n int) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.chunkSize = n
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{chunkSize: 15}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartAnalysisRequest carries the confirmed project parameters for a run.
// SelectedIDs limits a re-run to a subset of requirement ids; empty means all.
type StartAnalysisRequest struct {
	SessionID    string
	EUPList      []string
	LandUseCodes []string
	SelectedIDs  []string
	KeyData      map[string]string
}

// StartAnalysis validates that the session exists and records the initial
// progress snapshot. The caller launches Run in the background afterwards.
func (s *AnalysisService) StartAnalysis(ctx context.Context, req StartAnalysisRequest) error {
	if s.cache == nil {
		return errors.New("session cache not set")
	}
	var data models.SessionData
	found, err := s.cache.Get(req.SessionID, &data)
	if err != nil {
		return err
	}
	if !found {
		return ErrSessionNotFound
	}
	s.progress.Reset(req.SessionID)
	s.progress.Update(req.SessionID, 1, analysisTotalSteps, "Zagon analize ...", 0)
	return nil
}

// Run executes the full analysis for a session: requirement derivation,
// chunked judgment with bounded concurrency, placeholder synthesis for ids
// the judge never answered, and a field-level merge into the session's
// canonical report. A failed chunk never aborts the run; a fatal error marks
// the progress as failed and leaves any previous report untouched.
func (s *AnalysisService) Run(ctx context.Context, req StartAnalysisRequest) error {
	fail := func(msg string, err error) error {
		log.Printf("Analysis %s failed: %v", req.SessionID, err)
		s.progress.Fail(req.SessionID, msg)
		return err
	}

	// A previous run's terminal snapshot would swallow this run's updates.
	if p, ok := s.progress.Status(req.SessionID); ok && (p.Completed || p.Error) {
		s.progress.Reset(req.SessionID)
	}
	s.progress.Update(req.SessionID, 1, analysisTotalSteps, "Nalaganje podatkov seje ...", 5)

	var data models.SessionData
	found, err := s.cache.Get(req.SessionID, &data)
	if err != nil {
		return fail("Napaka pri branju podatkov seje.", err)
	}
	if !found {
		return fail("Seja ne obstaja ali je potekla.", ErrSessionNotFound)
	}

	profile := config.Municipality(data.MunicipalitySlug)
	cat, err := s.catalogs.Catalog(profile.KnowledgeSlug)
	if err != nil {
		return fail("Prostorski akt občine ni na voljo.", err)
	}

	s.progress.Update(req.SessionID, 2, analysisTotalSteps, "Priprava zahtev iz prostorskega akta ...", 15)

	allReqs := knowledge.BuildRequirements(cat, req.EUPList, req.LandUseCodes, data.ProjectText)
	if len(allReqs) == 0 {
		return fail("Za navedene podatke ni bilo mogoče izpeljati nobene zahteve.", ErrNoRequirements)
	}

	reqs := selectRequirements(allReqs, req.SelectedIDs)
	if len(reqs) == 0 {
		return fail("Nobena od izbranih zahtev ne obstaja.", ErrNoRequirements)
	}
	want := make([]string, len(reqs))
	for i, z := range reqs {
		want[i] = z.ID
	}

	s.progress.Update(req.SessionID, 3, analysisTotalSteps, "Priprava dokazov in grafičnih prilog ...", 25)

	evidence := buildEvidenceText(data, req.KeyData)
	images := s.loadImages(ctx, data.ImagePaths)

	s.progress.Update(req.SessionID, 4, analysisTotalSteps,
		fmt.Sprintf("Analiza skladnosti (%d zahtev) ...", len(reqs)), 30)

	collected := s.judgeChunks(ctx, req.SessionID, evidence, reqs, images, cat, profile)

	if filled := fillMissing(collected, want); len(filled) > 0 {
		log.Printf("Warning: analysis %s: %d requirements got no verdict, filled with placeholders", req.SessionID, len(filled))
	}

	s.progress.Update(req.SessionID, 6, analysisTotalSteps, "Združevanje rezultatov ...", 90)

	var prev models.AnalysisResult
	hasPrev, err := s.cache.Get(cache.ReportKey(req.SessionID), &prev)
	if err != nil {
		return fail("Napaka pri branju obstoječega poročila.", err)
	}

	reportReqs := allReqs
	if hasPrev && len(prev.Requirements) > 0 {
		reportReqs = prev.Requirements
	}
	merged := mergeResults(prev.Results, collected)

	report := models.AnalysisResult{
		Requirements: reportReqs,
		Results:      merged,
	}
	if err := s.cache.Put(cache.ReportKey(req.SessionID), report); err != nil {
		return fail("Napaka pri shranjevanju poročila.", err)
	}

	final := models.AnalysisResult{
		Status:               "completed",
		Requirements:         reportReqs,
		Results:              merged,
		NonCompliantIDs:      nonCompliantIDs(reportReqs, merged),
		RequirementRevisions: revisionIndex(data.RevisionHistory),
	}
	if err := s.cache.Put(cache.ResultKey(req.SessionID), final); err != nil {
		return fail("Napaka pri shranjevanju rezultatov.", err)
	}

	s.progress.Complete(req.SessionID, analysisTotalSteps, "Analiza zaključena.")
	return nil
}

// Result returns the completed-run payload for a session, if present.
func (s *AnalysisService) Result(sessionID string) (models.AnalysisResult, bool, error) {
	var res models.AnalysisResult
	found, err := s.cache.Get(cache.ResultKey(sessionID), &res)
	return res, found, err
}

// Progress returns the tracker, for handlers that poll status.
func (s *AnalysisService) Progress() *ProgressTracker { return s.progress }

// judgeChunks fans the requirement batches out to the judge and collects the
// parsed verdicts. Each chunk fails in isolation: a judge error or an
// unparseable answer drops that chunk's verdicts and nothing else.
func (s *AnalysisService) judgeChunks(
	ctx context.Context,
	sessionID, evidence string,
	reqs []models.Requirement,
	images [][]byte,
	cat *knowledge.Catalog,
	profile config.MunicipalityProfile,
) map[string]models.ResultEntry {
	chunks := chunkRequirements(reqs, s.chunkSize)
	collected := make(map[string]models.ResultEntry, len(reqs))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, batch []models.Requirement) {
			defer wg.Done()

			prompt := buildPrompt(evidence, batch, cat.TermsText(), cat.UredbaText(), profile)
			raw, err := s.judge.Judge(ctx, prompt, images)
			if err != nil {
				log.Printf("Warning: analysis %s chunk %d/%d failed: %v", sessionID, idx+1, len(chunks), err)
				return
			}
			parsed, err := parseJudgment(raw)
			if err != nil {
				log.Printf("Warning: analysis %s chunk %d/%d returned unusable output: %v", sessionID, idx+1, len(chunks), err)
				return
			}

			mu.Lock()
			for id, entry := range parsed {
				collected[id] = entry
			}
			done++
			pct := 30 + 55*done/len(chunks)
			mu.Unlock()

			s.progress.Update(sessionID, 5, analysisTotalSteps,
				fmt.Sprintf("Analiza skladnosti (%d/%d sklopov) ...", done, len(chunks)), pct)
		}(i, chunk)
	}
	wg.Wait()
	return collected
}

func (s *AnalysisService) loadImages(ctx context.Context, paths []string) [][]byte {
	if s.files == nil || len(paths) == 0 {
		return nil
	}
	var images [][]byte
	for _, p := range paths {
		r, err := s.files.Open(ctx, p)
		if err != nil {
			log.Printf("Warning: Failed to open evidence image %s: %v. Continuing without it.", p, err)
			continue
		}
		blob, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			log.Printf("Warning: Failed to read evidence image %s: %v. Continuing without it.", p, err)
			continue
		}
		images = append(images, blob)
	}
	return images
}

// selectRequirements keeps only the requirements whose id is in selected,
// preserving derivation order. Empty selected means all.
func selectRequirements(reqs []models.Requirement, selected []string) []models.Requirement {
	if len(selected) == 0 {
		return reqs
	}
	wanted := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}
	var out []models.Requirement
	for _, z := range reqs {
		if _, ok := wanted[z.ID]; ok {
			out = append(out, z)
		}
	}
	return out
}

// revisionIndex maps requirement id to the revisions that touched it, in
// upload order.
func revisionIndex(history []models.RevisionRecord) map[string][]models.RevisionRecord {
	if len(history) == 0 {
		return nil
	}
	idx := make(map[string][]models.RevisionRecord)
	for _, rec := range history {
		for _, id := range rec.RequirementIDs {
			idx[id] = append(idx[id], rec)
		}
	}
	return idx
}
