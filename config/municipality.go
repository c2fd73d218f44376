package config

// MunicipalityProfile is the static configuration of one supported
// municipality: which knowledge base to load and what extra context the
// judgment prompt gets.
type MunicipalityProfile struct {
	Slug          string
	Name          string
	KnowledgeSlug string
	PromptContext string
	SpecialRules  []string
}

const DefaultMunicipalitySlug = "litija"

var municipalities = map[string]MunicipalityProfile{
	"litija": {
		Slug:          "litija",
		Name:          "Občina Litija",
		KnowledgeSlug: "litija",
		PromptContext: "Vsi podatki o prostorskih aktih se nanašajo na Občino Litija. " +
			"Uporabi katalog OPN Občine Litija in njegove priloge kot izvor zahtev.",
		SpecialRules: []string{
			"Če se v dokumentaciji pojavi navedba OPN ali njegovih prilog, predpostavi, da gre za OPN Občine Litija.",
			"Odlok o določitvi podrobnejše namenske rabe prostora (Uradni list RS, št. 48/16 – popr.) je primarni vir za posebne pogoje.",
			"Uredba o razvrščanju objektov je državna in velja za vse občine; združi jo z lokalnimi pravili Občine Litija.",
		},
	},
}

// Municipality resolves a slug to a profile, falling back to the default
// municipality for unknown or empty slugs.
func Municipality(slug string) MunicipalityProfile {
	if profile, ok := municipalities[slug]; ok {
		return profile
	}
	return municipalities[DefaultMunicipalitySlug]
}
