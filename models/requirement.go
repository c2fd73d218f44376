package models

// RequirementCategory classifies where a derived requirement comes from
// within the municipal spatial plan (OPN).
type RequirementCategory string

const (
	// CategoryGeneral covers the general spatial implementation clauses
	// that apply to every project (52.-66. clen plus keyword-triggered ones).
	CategoryGeneral RequirementCategory = "Splošni prostorski izvedbeni pogoji (PIP)"
	// CategoryLandUse covers detailed clauses bound to a land-use code the
	// project itself declares.
	CategoryLandUse RequirementCategory = "Podrobni prostorski izvedbeni pogoji (PIP NRP)"
	// CategoryLandUseReferred marks land-use clauses pulled in because
	// another clause cross-references them ("veljajo določila za ...").
	CategoryLandUseReferred RequirementCategory = "Podrobni prostorski izvedbeni pogoji (PIP NRP) - Napotilo"
	// CategoryPlanningUnit covers special provisions attached to a planning
	// unit (EUP) in the plan's annex table.
	CategoryPlanningUnit RequirementCategory = "Posebni prostorski izvedbeni pogoji (PIP EUP)"
	// CategorySimpleStructures is the synthesized permissibility summary for
	// simple and minor structures (annex 1 permission matrix).
	CategorySimpleStructures RequirementCategory = "Skladnost z Prilogo 1 (Enostavni/Nezahtevni objekti)"
)

// Requirement is one regulatory clause instance bound to the project's
// applicability context. IDs are assigned sequentially after derivation so
// they are stable for the lifetime of a session and usable as merge keys.
type Requirement struct {
	ID          string              `json:"id"`
	Category    RequirementCategory `json:"kategorija"`
	Title       string              `json:"naslov"`
	Text        string              `json:"besedilo"`
	ClauseLabel string              `json:"clen"`
}
