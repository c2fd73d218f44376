package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	dir := filepath.Join(base, "litija")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestLoadCatalog(t *testing.T) {
	base := fixtureDir(t)
	dir := filepath.Join(base, "litija")

	writeFixture(t, dir, "opn.json", `{
		"splosni_prostorski_izvedbeni_pogoji": {
			"52_clen": "(Vrste gradenj) Dopustne so novogradnje.",
			"94_clen": "(Poplavna območja) Gradnja je omejena.",
			"neveljaven": "ignorirano"
		},
		"podrobni_pogoji": [
			{
				"clen": 110,
				"naslov": "Podrobni PIP",
				"podrocja": {
					"SK": {"naziv": "Površine podeželskega naselja", "visina": "do 10 m"}
				}
			}
		]
	}`)
	writeFixture(t, dir, "priloga2.json", `{
		"table_entries": [
			{"enota_urejanja": "LI-01", "posebni_pip": "Posebni pogoj.", "clen": "120. člen"},
			{"enota_urejanja": "LI-02", "posebni_pip": "—", "clen": "120. člen"}
		]
	}`)
	writeFixture(t, dir, "priloga1.json", `{
		"land_uses": ["SK"],
		"objects": [
			{"title": "Majhna stavba", "subtypes": [{"name": "lopa", "permissions": ["●"]}],
			 "nrp_conditions": {"3": "Največ 20 m2."}}
		]
	}`)
	writeFixture(t, dir, "izrazi.json", `{
		"terms": [{"term": "frčada", "definition": "Strešna odprtina."}]
	}`)
	writeFixture(t, dir, "uredba-objekti.json", `{"skupina": "enostavni objekti"}`)

	cat, err := LoadCatalog(base, "litija")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if text, ok := cat.LookupGeneralClause(52); !ok || text == "" {
		t.Error("clause 52 missing")
	}
	if _, ok := cat.LookupGeneralClause(53); ok {
		t.Error("clause 53 should be absent")
	}

	entry, ok := cat.LookupLandUse("sk")
	if !ok {
		t.Fatal("land use SK missing (lookup must normalize case)")
	}
	if entry.ClauseNumber != 110 || entry.AreaName != "Površine podeželskega naselja" {
		t.Errorf("unexpected land-use entry: %+v", entry)
	}

	if _, ok := cat.LookupPlanningUnit("LI-01"); !ok {
		t.Error("planning unit LI-01 missing")
	}
	if _, ok := cat.LookupPlanningUnit("LI-02"); ok {
		t.Error("placeholder provision must count as absent")
	}

	if cat.Matrix() == nil {
		t.Error("permission matrix missing")
	}
	if cat.TermsText() == "" {
		t.Error("terms text missing")
	}
	if cat.UredbaText() == "" {
		t.Error("uredba text missing")
	}
}

func TestLoadCatalogMissingDirectory(t *testing.T) {
	if _, err := LoadCatalog(t.TempDir(), "neobstoj"); err == nil {
		t.Fatal("expected error for missing municipality directory")
	}
}

func TestLoadCatalogMissingDocumentsDegrade(t *testing.T) {
	base := fixtureDir(t)
	// Directory exists, but no documents at all.
	cat, err := LoadCatalog(base, "litija")
	if err != nil {
		t.Fatalf("LoadCatalog with empty directory: %v", err)
	}
	if _, ok := cat.LookupGeneralClause(52); ok {
		t.Error("no clauses should be loaded")
	}
	if cat.Matrix() != nil {
		t.Error("no matrix should be loaded")
	}
	// Derivation must still work, just with an empty result.
	if reqs := BuildRequirements(cat, []string{"LI-01"}, []string{"SK"}, "gradnja"); len(reqs) != 0 {
		t.Errorf("expected no requirements from empty catalog, got %d", len(reqs))
	}
}

func TestStoreCachesCatalogs(t *testing.T) {
	base := fixtureDir(t)
	dir := filepath.Join(base, "litija")
	writeFixture(t, dir, "opn.json", `{"splosni_prostorski_izvedbeni_pogoji": {"52_clen": "Besedilo."}}`)

	store := NewStore(base)
	first, err := store.Catalog("litija")
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	again, err := store.Catalog("litija")
	if err != nil {
		t.Fatalf("Catalog (cached): %v", err)
	}
	if first != again {
		t.Error("expected the same catalog instance on second load")
	}

	if _, err := store.Catalog("neobstoj"); err == nil {
		t.Error("expected error for unknown municipality")
	}
}

func TestClauseNumber(t *testing.T) {
	cases := []struct {
		key  string
		want int
		ok   bool
	}{
		{"52_clen", 52, true},
		{"103", 103, true},
		{" 60_clen ", 60, true},
		{"uvod", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := clauseNumber(tc.key)
		if got != tc.want || ok != tc.ok {
			t.Errorf("clauseNumber(%q) = %d,%v; want %d,%v", tc.key, got, ok, tc.want, tc.ok)
		}
	}
}
