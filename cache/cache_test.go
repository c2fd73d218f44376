package cache

import (
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSessionCacheRoundTrip(t *testing.T) {
	c := NewSessionCache(time.Minute)

	if err := c.Put("abc", payload{Name: "projekt", Count: 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got payload
	found, err := c.Get("abc", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if got.Name != "projekt" || got.Count != 3 {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestSessionCacheMissing(t *testing.T) {
	c := NewSessionCache(time.Minute)

	var got payload
	found, err := c.Get("neobstoj", &got)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("expected miss for unknown key")
	}
}

func TestSessionCacheDelete(t *testing.T) {
	c := NewSessionCache(time.Minute)

	if err := c.Put("abc", payload{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	c.Delete("abc")
	c.Delete("abc") // deleting twice is a no-op

	var got payload
	if found, _ := c.Get("abc", &got); found {
		t.Error("expected key to be gone after delete")
	}
}

func TestSessionCacheExpiry(t *testing.T) {
	c := NewSessionCache(10 * time.Millisecond)
	if err := c.Put("abc", payload{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	var got payload
	if found, _ := c.Get("abc", &got); found {
		t.Error("expected key to expire")
	}
}

func TestKeyNamespaces(t *testing.T) {
	id := "123"
	if ProgressKey(id) != "progress:123" {
		t.Errorf("unexpected progress key %q", ProgressKey(id))
	}
	if ReportKey(id) != "report:123" {
		t.Errorf("unexpected report key %q", ReportKey(id))
	}
	if ResultKey(id) != "analysis_result:123" {
		t.Errorf("unexpected result key %q", ResultKey(id))
	}
}
