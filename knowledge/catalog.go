// Package knowledge holds the municipal spatial-plan catalog (OPN) and the
// engine that derives the applicable compliance requirements for a project
// from it.
package knowledge

import "strings"

// ClauseEntry is one detailed land-use clause from the OPN catalog: the
// parent clause number, its heading, the name of the land-use area and the
// structured attribute tree with the actual provisions.
type ClauseEntry struct {
	ClauseNumber int
	Title        string
	AreaName     string
	Content      map[string]any
}

// SpecialProvision is the extra text a planning unit (EUP) carries in the
// plan's annex table.
type SpecialProvision struct {
	Unit   string
	Text   string
	Clause string
}

// StructureSubtype is one row of the simple/minor-structure permission
// matrix: a structure subtype with one permission symbol per land-use column.
type StructureSubtype struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// StructureType groups subtypes under a structure heading.
type StructureType struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Subtypes    []StructureSubtype `json:"subtypes"`
}

// PermissionMatrix is the annex-1 table of structure types against land-use
// columns. Conditions holds the legend for numbered special conditions.
type PermissionMatrix struct {
	LandUses   []string
	Structures []StructureType
	Conditions map[string]string
}

// Catalog is the read-only rule store for one municipality. All lookups
// normalize their key; a miss is never an error, it just means the catalog
// has nothing for that code.
type Catalog struct {
	municipality  string
	general       map[int]string
	landUse       map[string]ClauseEntry
	planningUnits map[string]SpecialProvision
	matrix        *PermissionMatrix
	termsText     string
	uredbaText    string
}

// Municipality returns the knowledge slug this catalog was loaded for.
func (c *Catalog) Municipality() string { return c.municipality }

// LookupGeneralClause returns the text of a numbered general clause.
func (c *Catalog) LookupGeneralClause(number int) (string, bool) {
	text, ok := c.general[number]
	return text, ok
}

// LookupLandUse returns the detailed clause for a land-use code.
func (c *Catalog) LookupLandUse(code string) (ClauseEntry, bool) {
	entry, ok := c.landUse[NormalizeCode(code)]
	return entry, ok
}

// LookupPlanningUnit returns the special provision for a planning-unit code.
// Entries whose provision text is empty or the em-dash placeholder count as
// absent: the table uses that to mean "no special provisions here".
func (c *Catalog) LookupPlanningUnit(code string) (SpecialProvision, bool) {
	sp, ok := c.planningUnits[NormalizeCode(code)]
	if !ok || isBlankProvision(sp.Text) {
		return SpecialProvision{}, false
	}
	return sp, true
}

// Matrix returns the simple-structure permission matrix, or nil if the
// municipality catalog ships none.
func (c *Catalog) Matrix() *PermissionMatrix { return c.matrix }

// MatrixColumn resolves a land-use code to its column index in the
// permission matrix. Column headers may carry spacing ("SS e"), so headers
// are compared with spaces stripped.
func (c *Catalog) MatrixColumn(code string) (int, bool) {
	if c.matrix == nil {
		return 0, false
	}
	needle := NormalizeCode(code)
	for i, header := range c.matrix.LandUses {
		h := strings.ToUpper(strings.ReplaceAll(header, " ", ""))
		if strings.Contains(h, needle) {
			return i, true
		}
	}
	return 0, false
}

// TermsText returns the rendered glossary of plan terms for prompt building.
func (c *Catalog) TermsText() string { return c.termsText }

// UredbaText returns the state structure-classification regulation summary.
func (c *Catalog) UredbaText() string { return c.uredbaText }

// NormalizeCode trims and upper-cases a land-use or planning-unit code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isBlankProvision(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || t == "—" || t == "-"
}
