package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Document filenames expected under <baseDir>/<slug>/. Missing documents are
// not an error: the corresponding catalog section stays empty and derivation
// skips it.
const (
	opnDocument      = "opn.json"
	priloga1Document = "priloga1.json"
	priloga2Document = "priloga2.json"
	izraziDocument   = "izrazi.json"
	uredbaDocument   = "uredba-objekti.json"
)

type opnFile struct {
	GeneralClauses map[string]string `json:"splosni_prostorski_izvedbeni_pogoji"`
	DetailedBlocks []struct {
		Clause int                       `json:"clen"`
		Title  string                    `json:"naslov"`
		Areas  map[string]map[string]any `json:"podrocja"`
	} `json:"podrobni_pogoji"`
}

type priloga1File struct {
	LandUses []string `json:"land_uses"`
	Objects  []struct {
		Title         string             `json:"title"`
		Description   string             `json:"description"`
		Subtypes      []StructureSubtype `json:"subtypes"`
		NRPConditions map[string]string  `json:"nrp_conditions"`
	} `json:"objects"`
}

type priloga2File struct {
	TableEntries []struct {
		EnotaUrejanja string `json:"enota_urejanja"`
		PosebniPIP    string `json:"posebni_pip"`
		Clen          string `json:"clen"`
	} `json:"table_entries"`
}

type izraziFile struct {
	Terms []struct {
		Term       string `json:"term"`
		Definition string `json:"definition"`
	} `json:"terms"`
}

// Store loads and caches catalogs per municipality slug.
type Store struct {
	baseDir string

	mu       sync.Mutex
	catalogs map[string]*Catalog
}

// NewStore creates a catalog store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{
		baseDir:  baseDir,
		catalogs: make(map[string]*Catalog),
	}
}

// Catalog returns the catalog for a municipality, loading it on first use.
func (s *Store) Catalog(slug string) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cat, ok := s.catalogs[slug]; ok {
		return cat, nil
	}
	cat, err := LoadCatalog(s.baseDir, slug)
	if err != nil {
		return nil, err
	}
	s.catalogs[slug] = cat
	return cat, nil
}

// LoadCatalog reads the knowledge documents of one municipality from disk.
// Only the directory itself is required; each document degrades gracefully
// when absent or malformed in a non-structural way.
func LoadCatalog(baseDir, slug string) (*Catalog, error) {
	dir := filepath.Join(baseDir, slug)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("knowledge base for %q not found: %w", slug, err)
	}

	cat := &Catalog{
		municipality:  slug,
		general:       make(map[int]string),
		landUse:       make(map[string]ClauseEntry),
		planningUnits: make(map[string]SpecialProvision),
	}

	var opn opnFile
	if err := readJSON(filepath.Join(dir, opnDocument), &opn); err == nil {
		for key, text := range opn.GeneralClauses {
			if n, ok := clauseNumber(key); ok && strings.TrimSpace(text) != "" {
				cat.general[n] = text
			}
		}
		for _, block := range opn.DetailedBlocks {
			for code, area := range block.Areas {
				name, _ := area["naziv"].(string)
				cat.landUse[NormalizeCode(code)] = ClauseEntry{
					ClauseNumber: block.Clause,
					Title:        block.Title,
					AreaName:     name,
					Content:      area,
				}
			}
		}
	}

	var p2 priloga2File
	if err := readJSON(filepath.Join(dir, priloga2Document), &p2); err == nil {
		for _, entry := range p2.TableEntries {
			unit := NormalizeCode(entry.EnotaUrejanja)
			if unit == "" {
				continue
			}
			cat.planningUnits[unit] = SpecialProvision{
				Unit:   entry.EnotaUrejanja,
				Text:   entry.PosebniPIP,
				Clause: entry.Clen,
			}
		}
	}

	var p1 priloga1File
	if err := readJSON(filepath.Join(dir, priloga1Document), &p1); err == nil && len(p1.LandUses) > 0 {
		matrix := &PermissionMatrix{
			LandUses:   p1.LandUses,
			Conditions: make(map[string]string),
		}
		for _, obj := range p1.Objects {
			matrix.Structures = append(matrix.Structures, StructureType{
				Title:       obj.Title,
				Description: obj.Description,
				Subtypes:    obj.Subtypes,
			})
			for num, text := range obj.NRPConditions {
				matrix.Conditions[num] = text
			}
		}
		cat.matrix = matrix
	}

	var izrazi izraziFile
	if err := readJSON(filepath.Join(dir, izraziDocument), &izrazi); err == nil {
		var b strings.Builder
		for _, t := range izrazi.Terms {
			fmt.Fprintf(&b, "- **%s**: %s\n", t.Term, t.Definition)
		}
		cat.termsText = strings.TrimRight(b.String(), "\n")
	}

	if raw, err := os.ReadFile(filepath.Join(dir, uredbaDocument)); err == nil {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				cat.uredbaText = string(pretty)
			}
		}
	}

	return cat, nil
}

// NewCatalog builds a catalog from already-decoded sections. Used by tests
// and by callers that assemble catalogs from another source.
func NewCatalog(
	slug string,
	general map[int]string,
	landUse map[string]ClauseEntry,
	units map[string]SpecialProvision,
	matrix *PermissionMatrix,
) *Catalog {
	cat := &Catalog{
		municipality:  slug,
		general:       make(map[int]string),
		landUse:       make(map[string]ClauseEntry),
		planningUnits: make(map[string]SpecialProvision),
		matrix:        matrix,
	}
	for n, text := range general {
		cat.general[n] = text
	}
	for code, entry := range landUse {
		cat.landUse[NormalizeCode(code)] = entry
	}
	for code, sp := range units {
		cat.planningUnits[NormalizeCode(code)] = sp
	}
	return cat
}

func readJSON(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// clauseNumber parses keys like "52_clen" or plain "52".
func clauseNumber(key string) (int, bool) {
	key = strings.TrimSuffix(strings.TrimSpace(key), "_clen")
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}
