package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"opncheck-backend/cache"
	"opncheck-backend/models"
)

func TestCreateSessionAndData(t *testing.T) {
	c := cache.NewSessionCache(time.Minute)
	svc := NewSessionService(WithSessionServiceCache(c))

	id, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		ProjectText: "Tehnično poročilo.",
		Metadata:    map[string]string{"investitor": "Novak"},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}

	data, err := svc.Data(id)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data.ProjectText != "Tehnično poročilo." {
		t.Errorf("unexpected project text %q", data.ProjectText)
	}
	if data.MunicipalitySlug == "" {
		t.Error("expected default municipality slug")
	}
}

func TestCreateSessionRejectsEmptyText(t *testing.T) {
	c := cache.NewSessionCache(time.Minute)
	svc := NewSessionService(WithSessionServiceCache(c))

	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{ProjectText: "   "}); err == nil {
		t.Fatal("expected error for empty project text")
	}
}

func TestDataUnknownSession(t *testing.T) {
	c := cache.NewSessionCache(time.Minute)
	svc := NewSessionService(WithSessionServiceCache(c))

	if _, err := svc.Data("neznana"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteClearsAllSessionKeys(t *testing.T) {
	c := cache.NewSessionCache(time.Minute)
	svc := NewSessionService(WithSessionServiceCache(c))

	id, err := svc.CreateSession(context.Background(), CreateSessionRequest{ProjectText: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(cache.ResultKey(id), models.AnalysisResult{Status: "completed"}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Data(id); !errors.Is(err, ErrSessionNotFound) {
		t.Error("session data still present after delete")
	}
	var res models.AnalysisResult
	if found, _ := c.Get(cache.ResultKey(id), &res); found {
		t.Error("result still present after delete")
	}
}

func TestComputeSummary(t *testing.T) {
	if got := ComputeSummary(nil); got != "Analiza še ni bila izvedena." {
		t.Errorf("nil result: %q", got)
	}
	if got := ComputeSummary(&models.AnalysisResult{}); got != "Analiza še ni bila izvedena." {
		t.Errorf("empty result: %q", got)
	}

	allCompliant := &models.AnalysisResult{
		Results: map[string]models.ResultEntry{
			"Z_0": entry("Z_0", models.StatusCompliant, ""),
			"Z_1": entry("Z_1", models.StatusNotApplicable, ""),
		},
	}
	if got := ComputeSummary(allCompliant); got != "Vseh 2 zahtev je skladnih." {
		t.Errorf("all compliant: %q", got)
	}

	mixed := &models.AnalysisResult{
		Results: map[string]models.ResultEntry{
			"Z_0": entry("Z_0", models.StatusCompliant, ""),
			"Z_1": entry("Z_1", models.StatusNonCompliant, ""),
			"Z_2": entry("Z_2", models.StatusNonCompliant, ""),
		},
	}
	if got := ComputeSummary(mixed); got != "Ugotovljenih 2 od 3 neskladnih zahtev." {
		t.Errorf("mixed: %q", got)
	}
}
