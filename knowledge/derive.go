package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"opncheck-backend/models"
)

const (
	mandatoryClauseMin = 52
	mandatoryClauseMax = 66
	generalClauseMax   = 103
)

// referencePatterns match the phrasings the plan uses to make one land-use
// clause inherit another's provisions ("veljajo določila za SK" and
// friends). Each pattern captures the referenced land-use code.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pogoj[ie]?\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)kot\s+pri\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)velja?j?o?\s+določila\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)smiselno\s+velja?j?o?\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)upošteva?j?o?\s+se\s+pogoj[ie]?\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)skladno\s+s\s+pogoj[ie]?\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)prevzema?j?o?\s+določila\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
	regexp.MustCompile(`(?i)določila\s+za\s+([A-Z]{1,3}[a-z]?)\b`),
}

var clauseHeadingPattern = regexp.MustCompile(`^\s*\(([^)]+)\)`)

// ExtractReferencedCodes scans clause text for cross-reference phrases and
// returns the referenced land-use codes that actually exist in the catalog,
// sorted and de-duplicated.
func ExtractReferencedCodes(cat *Catalog, text string) []string {
	seen := make(map[string]struct{})
	for _, pattern := range referencePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			code := NormalizeCode(match[1])
			if _, ok := cat.LookupLandUse(code); ok {
				seen[code] = struct{}{}
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// BuildRequirements derives the full, ordered, de-duplicated requirement
// list for a project:
//
//  1. mandatory general clauses (52-66), ascending,
//  2. keyword-triggered general clauses above the mandatory range,
//  3. detailed clauses for the supplied land-use codes, each followed
//     recursively by the clauses it cross-references (visited-set traversal,
//     so reference cycles terminate and no code is emitted twice),
//  4. planning-unit special provisions,
//  5. one consolidated simple/minor-structure permissibility requirement.
//
// IDs are assigned sequentially afterwards, so output is deterministic for
// identical catalog contents and inputs. Codes missing from the catalog are
// silently skipped.
func BuildRequirements(cat *Catalog, eupList, landUseCodes []string, projectText string) []models.Requirement {
	var requirements []models.Requirement
	addedClauses := make(map[int]struct{})
	addedLandUses := make(map[string]struct{})

	inputCodes := make(map[string]struct{})
	for _, code := range landUseCodes {
		if normalized := NormalizeCode(code); normalized != "" {
			inputCodes[normalized] = struct{}{}
		}
	}

	triggered := triggeredClauses(projectText)

	for number := mandatoryClauseMin; number <= generalClauseMax; number++ {
		mandatory := number <= mandatoryClauseMax
		if !mandatory {
			if _, ok := triggered[number]; !ok {
				continue
			}
		}
		if _, ok := addedClauses[number]; ok {
			continue
		}
		text, ok := cat.LookupGeneralClause(number)
		if !ok {
			continue
		}
		title := fmt.Sprintf("%d. člen", number)
		if m := clauseHeadingPattern.FindStringSubmatch(text); m != nil {
			title = fmt.Sprintf("%d. člen (%s)", number, m[1])
		}
		requirements = append(requirements, models.Requirement{
			Category:    models.CategoryGeneral,
			Title:       title,
			Text:        text,
			ClauseLabel: fmt.Sprintf("%d. člen", number),
		})
		addedClauses[number] = struct{}{}
	}

	// Sorted before iterating: map iteration order must not leak into the
	// emitted requirement order.
	directCodes := make([]string, 0, len(inputCodes))
	for code := range inputCodes {
		if _, ok := cat.LookupLandUse(code); ok {
			directCodes = append(directCodes, code)
		}
	}
	sort.Strings(directCodes)

	var addLandUse func(code string, category models.RequirementCategory)
	addLandUse = func(code string, category models.RequirementCategory) {
		code = NormalizeCode(code)
		if _, done := addedLandUses[code]; done {
			return
		}
		entry, ok := cat.LookupLandUse(code)
		if !ok {
			return
		}
		content := FormatStructured(entry.Content)
		requirements = append(requirements, models.Requirement{
			Category:    category,
			Title:       fmt.Sprintf("%d. člen - %s (%s)", entry.ClauseNumber, entry.AreaName, code),
			Text:        content,
			ClauseLabel: fmt.Sprintf("%d. člen", entry.ClauseNumber),
		})
		addedLandUses[code] = struct{}{}
		addedClauses[entry.ClauseNumber] = struct{}{}

		for _, referenced := range ExtractReferencedCodes(cat, content) {
			if _, direct := inputCodes[referenced]; direct {
				continue
			}
			addLandUse(referenced, models.CategoryLandUseReferred)
		}
	}
	for _, code := range directCodes {
		addLandUse(code, models.CategoryLandUse)
	}

	processedUnits := make(map[string]struct{})
	for _, eup := range eupList {
		normalized := NormalizeCode(eup)
		if normalized == "" {
			continue
		}
		if _, done := processedUnits[normalized]; done {
			continue
		}
		provision, ok := cat.LookupPlanningUnit(normalized)
		if !ok {
			continue
		}
		requirements = append(requirements, models.Requirement{
			Category:    models.CategoryPlanningUnit,
			Title:       fmt.Sprintf("Posebni PIP za EUP: %s", provision.Unit),
			Text:        provision.Text,
			ClauseLabel: provision.Clause,
		})
		processedUnits[normalized] = struct{}{}
	}

	var matrixSections []string
	var matchedCodes []string
	for _, code := range directCodes {
		if section, ok := BuildPermissionText(cat, code); ok {
			matrixSections = append(matrixSections, fmt.Sprintf("--- Določila za %s --- \n%s", code, section))
			matchedCodes = append(matchedCodes, code)
		}
	}
	if len(matrixSections) > 0 {
		separator := "\n\n" + strings.Repeat("=", 50) + "\n\n"
		requirements = append(requirements, models.Requirement{
			Category: models.CategorySimpleStructures,
			Title: fmt.Sprintf(
				"Preverjanje dopustnosti enostavnih in nezahtevnih objektov za namenske rabe: %s",
				strings.Join(matchedCodes, ", "),
			),
			Text: separator + strings.Join(matrixSections, separator),
		})
	}

	for i := range requirements {
		requirements[i].ID = fmt.Sprintf("Z_%d", i)
	}
	return requirements
}

// triggeredClauses returns the clause numbers whose keywords occur in the
// project text as case-insensitive literal matches.
func triggeredClauses(projectText string) map[int]struct{} {
	triggered := make(map[int]struct{})
	if projectText == "" {
		return triggered
	}
	lowered := strings.ToLower(projectText)
	for keyword, clause := range keywordClauses {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			triggered[clause] = struct{}{}
		}
	}
	return triggered
}
