package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"opncheck-backend/cache"
	"opncheck-backend/knowledge"
	"opncheck-backend/models"
)

var promptIDPattern = regexp.MustCompile(`ID: (Z_\d+)\n`)

// fakeJudge answers every requirement id it finds in the prompt. A chunk
// whose prompt mentions failOn errors out instead, simulating an upstream
// outage for that batch only.
type fakeJudge struct {
	mu     sync.Mutex
	calls  int
	failOn string
	status models.ComplianceStatus
	note   string
}

func (j *fakeJudge) Judge(ctx context.Context, prompt string, images [][]byte) (string, error) {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()

	if j.failOn != "" && strings.Contains(prompt, "ID: "+j.failOn+"\n") {
		return "", errors.New("model unavailable")
	}

	var entries []string
	for _, m := range promptIDPattern.FindAllStringSubmatch(prompt, -1) {
		entries = append(entries, fmt.Sprintf(
			`{"id": %q, "obrazlozitev": %q, "evidence": "str. 1", "skladnost": %q, "predlagani_ukrep": "—"}`,
			m[1], j.note, string(j.status),
		))
	}
	return "```json\n[" + strings.Join(entries, ",") + "]\n```", nil
}

type stubCatalogs struct {
	cat *knowledge.Catalog
	err error
}

func (s *stubCatalogs) Catalog(slug string) (*knowledge.Catalog, error) {
	return s.cat, s.err
}

// analysisCatalog yields 16 requirements: clauses 52-66 plus one land use.
func analysisCatalog() *knowledge.Catalog {
	general := make(map[int]string)
	for n := 52; n <= 66; n++ {
		general[n] = fmt.Sprintf("Besedilo %d. člena.", n)
	}
	landUse := map[string]knowledge.ClauseEntry{
		"SK": {
			ClauseNumber: 110,
			AreaName:     "Površine podeželskega naselja",
			Content:      map[string]any{"visina": "do 10 m"},
		},
	}
	return knowledge.NewCatalog("litija", general, landUse, nil, nil)
}

func newTestAnalysis(judge Judge, cat *knowledge.Catalog) (*AnalysisService, *cache.SessionCache) {
	c := cache.NewSessionCache(time.Minute)
	svc := NewAnalysisService(
		WithSessionCache(c),
		WithCatalogProvider(&stubCatalogs{cat: cat}),
		WithJudge(judge),
		WithProgressTracker(NewProgressTracker(c)),
		WithChunkSize(5),
	)
	return svc, c
}

func seedSession(t *testing.T, c *cache.SessionCache, id string) {
	t.Helper()
	err := c.Put(id, models.SessionData{
		ProjectText:      "Novogradnja stanovanjske stavbe.",
		MunicipalitySlug: "litija",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRunCoversEveryRequirementDespiteFailedChunk(t *testing.T) {
	// Chunk 2 holds Z_5..Z_9 and fails; the rest must still be judged and
	// the failed ids must come back as placeholders.
	judge := &fakeJudge{failOn: "Z_5", status: models.StatusCompliant, note: "ustreza"}
	svc, c := newTestAnalysis(judge, analysisCatalog())
	seedSession(t, c, "s1")

	req := StartAnalysisRequest{SessionID: "s1", LandUseCodes: []string{"SK"}}
	if err := svc.Run(context.Background(), req); err != nil {
		t.Fatalf("Run: %v", err)
	}

	result, found, err := svc.Result("s1")
	if err != nil || !found {
		t.Fatalf("Result: found=%v err=%v", found, err)
	}
	if len(result.Requirements) != 16 {
		t.Fatalf("expected 16 requirements, got %d", len(result.Requirements))
	}
	if len(result.Results) != 16 {
		t.Fatalf("expected a verdict for every requirement, got %d", len(result.Results))
	}

	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("Z_%d", i)
		e, ok := result.Results[id]
		if !ok {
			t.Fatalf("missing verdict for %s", id)
		}
		if i >= 5 && i <= 9 {
			if e.Status != models.StatusUnknown {
				t.Errorf("%s: expected placeholder, got %q", id, e.Status)
			}
			if e.Evidence != "—" {
				t.Errorf("%s: placeholder evidence = %q", id, e.Evidence)
			}
		} else if e.Status != models.StatusCompliant {
			t.Errorf("%s: expected compliant, got %q", id, e.Status)
		}
	}

	progress, ok := svc.Progress().Status("s1")
	if !ok || !progress.Completed || progress.Percentage != 100 {
		t.Errorf("expected completed progress, got %+v", progress)
	}
	if judge.calls != 4 {
		t.Errorf("expected 4 judged chunks, got %d", judge.calls)
	}
}

func TestRunScopedReRunLeavesOtherResultsUntouched(t *testing.T) {
	judge := &fakeJudge{status: models.StatusNonCompliant, note: "prva analiza"}
	svc, c := newTestAnalysis(judge, analysisCatalog())
	seedSession(t, c, "s1")

	full := StartAnalysisRequest{SessionID: "s1", LandUseCodes: []string{"SK"}}
	if err := svc.Run(context.Background(), full); err != nil {
		t.Fatalf("full run: %v", err)
	}

	// Re-run only two requirements, now judged compliant.
	judge.status = models.StatusCompliant
	judge.note = "po reviziji"
	scoped := StartAnalysisRequest{
		SessionID:    "s1",
		LandUseCodes: []string{"SK"},
		SelectedIDs:  []string{"Z_1", "Z_3"},
	}
	if err := svc.Run(context.Background(), scoped); err != nil {
		t.Fatalf("scoped run: %v", err)
	}

	result, found, err := svc.Result("s1")
	if err != nil || !found {
		t.Fatalf("Result: found=%v err=%v", found, err)
	}
	if len(result.Requirements) != 16 || len(result.Results) != 16 {
		t.Fatalf("scoped run changed report shape: %d reqs, %d results",
			len(result.Requirements), len(result.Results))
	}

	for id, e := range result.Results {
		if id == "Z_1" || id == "Z_3" {
			if e.Status != models.StatusCompliant || e.Explanation != "po reviziji" {
				t.Errorf("%s: re-run verdict not applied: %+v", id, e)
			}
			continue
		}
		if e.Status != models.StatusNonCompliant || e.Explanation != "prva analiza" {
			t.Errorf("%s: untouched verdict changed: %+v", id, e)
		}
	}

	for _, id := range result.NonCompliantIDs {
		if id == "Z_1" || id == "Z_3" {
			t.Errorf("re-judged requirement %s still listed as non-compliant", id)
		}
	}
}

func TestStartAnalysisUnknownSession(t *testing.T) {
	svc, _ := newTestAnalysis(&fakeJudge{status: models.StatusCompliant}, analysisCatalog())

	err := svc.StartAnalysis(context.Background(), StartAnalysisRequest{SessionID: "neznana"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRunFatalErrorPreservesPreviousReport(t *testing.T) {
	// Empty catalog: derivation yields nothing, which is fatal.
	empty := knowledge.NewCatalog("litija", nil, nil, nil, nil)
	svc, c := newTestAnalysis(&fakeJudge{status: models.StatusCompliant}, empty)
	seedSession(t, c, "s1")

	previous := models.AnalysisResult{
		Requirements: makeRequirements(2),
		Results: map[string]models.ResultEntry{
			"Z_0": entry("Z_0", models.StatusCompliant, "staro"),
		},
	}
	if err := c.Put(cache.ReportKey("s1"), previous); err != nil {
		t.Fatal(err)
	}

	err := svc.Run(context.Background(), StartAnalysisRequest{SessionID: "s1"})
	if !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("expected ErrNoRequirements, got %v", err)
	}

	progress, ok := svc.Progress().Status("s1")
	if !ok || !progress.Error {
		t.Errorf("expected failed progress, got %+v", progress)
	}

	var report models.AnalysisResult
	found, err := c.Get(cache.ReportKey("s1"), &report)
	if err != nil || !found {
		t.Fatalf("report read: found=%v err=%v", found, err)
	}
	if report.Results["Z_0"].Explanation != "staro" {
		t.Error("fatal run modified the previous report")
	}
}

func TestRunSelectedIDsUnknown(t *testing.T) {
	svc, c := newTestAnalysis(&fakeJudge{status: models.StatusCompliant}, analysisCatalog())
	seedSession(t, c, "s1")

	err := svc.Run(context.Background(), StartAnalysisRequest{
		SessionID:   "s1",
		SelectedIDs: []string{"Z_999"},
	})
	if !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("expected ErrNoRequirements for unknown selection, got %v", err)
	}
}
