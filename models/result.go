package models

import (
	"encoding/json"
	"strings"
)

// ComplianceStatus is the judgment for one requirement. Values follow the
// wire contract of the judgment service (Slovenian terms).
type ComplianceStatus string

const (
	StatusCompliant     ComplianceStatus = "Skladno"
	StatusNonCompliant  ComplianceStatus = "Neskladno"
	StatusNotApplicable ComplianceStatus = "Ni relevantno"
	StatusUnknown       ComplianceStatus = "Neznano"
)

// NormalizeStatus maps free-form status text from the judgment service onto
// the fixed taxonomy. Unrecognized text maps to StatusUnknown.
func NormalizeStatus(raw string) ComplianceStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "nesklad"), s == "noncompliant", s == "non-compliant":
		return StatusNonCompliant
	case strings.Contains(s, "sklad"), s == "compliant":
		return StatusCompliant
	case strings.Contains(s, "relevant"), s == "notapplicable", s == "not applicable":
		return StatusNotApplicable
	default:
		return StatusUnknown
	}
}

// IsNonCompliant reports whether the status records a violation.
func (s ComplianceStatus) IsNonCompliant() bool {
	return strings.Contains(strings.ToLower(string(s)), "nesklad")
}

// ResultEntry is the judgment recorded for one requirement id. The judgment
// service may answer with either Slovenian or English field names; the
// custom unmarshaller accepts both.
type ResultEntry struct {
	RequirementID   string           `json:"id"`
	Explanation     string           `json:"obrazlozitev"`
	Evidence        string           `json:"evidence"`
	Status          ComplianceStatus `json:"skladnost"`
	SuggestedAction string           `json:"predlagani_ukrep"`
}

type resultEntryWire struct {
	ID              json.RawMessage `json:"id"`
	Obrazlozitev    string          `json:"obrazlozitev"`
	Explanation     string          `json:"explanation"`
	Evidence        string          `json:"evidence"`
	Skladnost       string          `json:"skladnost"`
	Compliance      string          `json:"complianceStatus"`
	PredlaganiUkrep string          `json:"predlagani_ukrep"`
	SuggestedAction string          `json:"suggestedAction"`
}

// UnmarshalJSON normalizes heterogeneous payloads: ids arrive as strings or
// bare numbers and are stored in string form, and English aliases fill the
// Slovenian fields when those are absent.
func (r *ResultEntry) UnmarshalJSON(data []byte) error {
	var w resultEntryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.RequirementID = stringifyID(w.ID)
	r.Explanation = firstNonEmpty(w.Obrazlozitev, w.Explanation)
	r.Evidence = w.Evidence
	r.SuggestedAction = firstNonEmpty(w.PredlaganiUkrep, w.SuggestedAction)
	if raw := firstNonEmpty(w.Skladnost, w.Compliance); raw != "" {
		r.Status = NormalizeStatus(raw)
	}
	return nil
}

// stringifyID returns the canonical string form of a judgment id, whether
// the service sent it as a JSON string or as a bare number.
func stringifyID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
