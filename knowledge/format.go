package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// FormatStructured renders a clause's nested attribute tree as a flat
// bulleted text block: nested maps become indented sub-bullets, lists become
// bullets, scalars become "key: value" lines. Keys are iterated in sorted
// order so output is deterministic.
func FormatStructured(data map[string]any) string {
	var lines []string
	for _, key := range sortedKeys(data) {
		label := humanizeKey(key)
		switch value := data[key].(type) {
		case map[string]any:
			lines = append(lines, fmt.Sprintf("\n- %s:", label))
			for _, subKey := range sortedKeys(value) {
				lines = append(lines, fmt.Sprintf("  - %s: %v", strings.ReplaceAll(subKey, "_", " "), formatScalar(value[subKey])))
			}
		case []any:
			lines = append(lines, fmt.Sprintf("\n- %s:", label))
			for _, item := range value {
				lines = append(lines, fmt.Sprintf("  - %v", formatScalar(item)))
			}
		default:
			lines = append(lines, fmt.Sprintf("- %s: %v", label, formatScalar(value)))
		}
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// humanizeKey turns "visina_objektov" into "Visina objektov".
func humanizeKey(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	runes := []rune(strings.ToLower(key))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// formatScalar avoids the ".0" suffix JSON decoding gives whole numbers.
func formatScalar(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

// Permission symbols used by the annex-1 matrix.
const (
	permissionAllowed    = "●"
	permissionNotAllowed = "x"
)

// BuildPermissionText renders, for one land-use code, which simple/minor
// structures are allowed, forbidden, or conditionally allowed, plus a legend
// for the special conditions actually referenced. The second return value is
// false when the code has no column in the matrix.
func BuildPermissionText(cat *Catalog, code string) (string, bool) {
	matrix := cat.Matrix()
	if matrix == nil {
		return "", false
	}
	column, ok := cat.MatrixColumn(code)
	if !ok {
		return "", false
	}

	normalized := NormalizeCode(code)
	lines := []string{fmt.Sprintf("Za namensko rabo '%s' so dovoljeni naslednji enostavni/nezahtevni objekti:\n", normalized)}
	referenced := make(map[string]struct{})

	for _, structure := range matrix.Structures {
		lines = append(lines, fmt.Sprintf("**%s**", structure.Title))
		for _, subtype := range structure.Subtypes {
			if column >= len(subtype.Permissions) {
				continue
			}
			symbol := subtype.Permissions[column]
			var verdict string
			switch symbol {
			case permissionAllowed:
				verdict = "Dovoljeno po splošnih določilih."
			case permissionNotAllowed:
				verdict = "Ni dovoljeno."
			default:
				verdict = fmt.Sprintf("Dovoljeno pod posebnim pogojem št. %s.", symbol)
				referenced[symbol] = struct{}{}
			}
			name := subtype.Name
			if name == "" {
				name = structure.Description
			}
			lines = append(lines, fmt.Sprintf("- *%s*: %s", name, verdict))
		}
	}

	if len(referenced) > 0 {
		lines = append(lines, "\n**Legenda navedenih posebnih pogojev (NRP):**")
		nums := make([]string, 0, len(referenced))
		for num := range referenced {
			nums = append(nums, num)
		}
		sort.Strings(nums)
		for _, num := range nums {
			legend, ok := matrix.Conditions[num]
			if !ok {
				legend = "Opis ni na voljo."
			}
			lines = append(lines, fmt.Sprintf("- **Pogoj %s**: %s", num, legend))
		}
	}

	return strings.Join(lines, "\n"), true
}
