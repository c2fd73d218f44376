package service

import (
	"encoding/json"
	"errors"
	"strings"

	"opncheck-backend/models"
)

var ErrInvalidJudgment = errors.New("judgment is not a JSON array")

// chunkRequirements splits reqs into consecutive batches of at most size
// elements, preserving order. The last batch may be smaller.
func chunkRequirements(reqs []models.Requirement, size int) [][]models.Requirement {
	if size <= 0 {
		size = 1
	}
	var chunks [][]models.Requirement
	for start := 0; start < len(reqs); start += size {
		end := start + size
		if end > len(reqs) {
			end = len(reqs)
		}
		chunks = append(chunks, reqs[start:end])
	}
	return chunks
}

// parseJudgment extracts the JSON array from a model response, tolerating
// markdown code fences and surrounding prose, and maps entries by
// requirement id. Entries without an id are dropped.
func parseJudgment(raw string) (map[string]models.ResultEntry, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, ErrInvalidJudgment
	}

	var entries []models.ResultEntry
	if err := json.Unmarshal([]byte(text[start:end+1]), &entries); err != nil {
		return nil, err
	}

	out := make(map[string]models.ResultEntry, len(entries))
	for _, e := range entries {
		if e.RequirementID == "" {
			continue
		}
		out[e.RequirementID] = e
	}
	return out, nil
}

// mergeResults merges incoming entries into base, field by field: an
// incoming field overwrites only when non-empty, so a partial update never
// erases previously stored fields. Ids absent from incoming are untouched.
// The returned map is a fresh copy; base is not modified.
func mergeResults(base, incoming map[string]models.ResultEntry) map[string]models.ResultEntry {
	merged := make(map[string]models.ResultEntry, len(base)+len(incoming))
	for id, e := range base {
		merged[id] = e
	}
	for id, in := range incoming {
		cur, ok := merged[id]
		if !ok {
			merged[id] = in
			continue
		}
		if in.Explanation != "" {
			cur.Explanation = in.Explanation
		}
		if in.Evidence != "" {
			cur.Evidence = in.Evidence
		}
		if in.Status != "" {
			cur.Status = in.Status
		}
		if in.SuggestedAction != "" {
			cur.SuggestedAction = in.SuggestedAction
		}
		merged[id] = cur
	}
	return merged
}

// placeholderEntry marks a requirement the model returned no verdict for,
// so the final report still covers every requested id.
func placeholderEntry(id string) models.ResultEntry {
	return models.ResultEntry{
		RequirementID:   id,
		Explanation:     "AI ni uspel generirati odgovora za to zahtevo.",
		Evidence:        "—",
		Status:          models.StatusUnknown,
		SuggestedAction: "Ročno preverjanje.",
	}
}

// fillMissing adds a placeholder for every id in want that results does not
// cover. Returns the ids that were filled.
func fillMissing(results map[string]models.ResultEntry, want []string) []string {
	var filled []string
	for _, id := range want {
		if _, ok := results[id]; !ok {
			results[id] = placeholderEntry(id)
			filled = append(filled, id)
		}
	}
	return filled
}

// nonCompliantIDs lists ids judged non-compliant, in the order of reqs.
func nonCompliantIDs(reqs []models.Requirement, results map[string]models.ResultEntry) []string {
	var ids []string
	for _, z := range reqs {
		if e, ok := results[z.ID]; ok && e.Status == models.StatusNonCompliant {
			ids = append(ids, z.ID)
		}
	}
	return ids
}
