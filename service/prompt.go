package service

import (
	"fmt"
	"sort"
	"strings"

	"opncheck-backend/config"
	"opncheck-backend/models"
)

const maxPromptEvidenceChars = 300000

// buildPrompt assembles the judgment instructions for one batch of
// requirements: role, rules, the plan's glossary and the state structure
// regulation, the batch itself, the accumulated project evidence, and a
// strict JSON-array output contract.
func buildPrompt(
	projectText string,
	batch []models.Requirement,
	termsText, uredbaText string,
	profile config.MunicipalityProfile,
) string {
	var reqs strings.Builder
	for _, z := range batch {
		fmt.Fprintf(&reqs, "\nID: %s\nZahteva: %s\nBesedilo zahteve: %s\n---", z.ID, z.Title, z.Text)
	}

	municipality := []string{fmt.Sprintf("Občina: %s (oznaka: %s)", profile.Name, profile.Slug)}
	if profile.PromptContext != "" {
		municipality = append(municipality, profile.PromptContext)
	}
	for _, rule := range profile.SpecialRules {
		municipality = append(municipality, "- "+rule)
	}

	if termsText == "" {
		termsText = "Ni dodatnih izrazov."
	}
	if uredbaText == "" {
		uredbaText = "Podatki niso na voljo."
	}
	if len(projectText) > maxPromptEvidenceChars {
		projectText = projectText[:maxPromptEvidenceChars]
	}

	return strings.TrimSpace(fmt.Sprintf(`
# VLOGA IN CILJ
Deluješ kot **nepristranski prostorski strokovnjak** za preverjanje skladnosti projektne dokumentacije
z lokalnim prostorskim aktom (OPN/OP ipd.), v skladu s slovensko zakonodajo in prakso. Za vsako zahtevo
natančno pridobi ustrezne podatke, presodi skladnost, navedi **dokaze** (kjer si podatek našel) in podaj
**jasen ukrep**, če je prisotno neskladje ali manjkajoč podatek.

# KLJUČNA PRAVILA
- **Brez ugibanja**: če podatka ni v besedilu *niti* na grafičnih prilogah, obravnavaj kot **"Neskladno"**
  in v "predlagani_ukrep" zahtevaj dopolnitev dokumentacije (povej točno kaj).
- **En zaključek na zahtevo**: "Skladno", "Neskladno" ali "Ni relevantno".
- **Dokazi (evidence)**: navedi konkretna mesta (npr. "Tehnično poročilo, str. 12" ali "G2 – Situacija").
- **Natančnost pred kratkostjo**: obrazložitev naj bo kvantitativna; vedno primerjaj zahtevane vrednosti
  iz prostorskega akta s projektiranimi vrednostmi iz dokumentacije.
- **Konflikt med viri**: podatki na grafičnih prilogah imajo prednost pred besedilom; navedi obe vrednosti.
- **Format izhoda**: izpiši **izključno** JSON array brez dodatnega besedila ali markdown oznak.

# KONTEKST OBČINE
%s

# POSEBNA PRAVILA (jih ne razkrivaš v odgovoru)
- Če zahteva govori o potrebi po soglasju/mnenju za poseg na varovanih območjih ali pri odmikih,
  nastavi "skladnost" = "Skladno" in v "predlagani_ukrep" navedi, katero soglasje je treba pridobiti.
- Pri odmikih v obrazložitvi navedi vse citirane odmike iz dokumentacije.
- Če podrobni pogoji navajajo samo določen faktor, presojaj samo tega, četudi splošna določila naštevajo več.
- Pri različnih podatkih v projektu uporabi za presojo višjo vrednost.

# DEFINICIJE IN PRAVNI OKVIR
**Razlaga izrazov (OPN):**
%s

**Uredba o razvrščanju objektov (ključne informacije):**
%s

# ZAHTEVE (vsaka mora biti obravnavana natanko enkrat)
%s

# VHODNI PODATKI
**Projektna dokumentacija – BESEDILO:**
%s

**Projektna dokumentacija – GRAFIČNE PRILOGE:**
[Grafike so priložene. Uporabi jih za manjkajoče podatke in preverjanje neskladij.]

# IZPIS (STROGO) – JSON array objektov
Za **vsako** zahtevo vrni en JSON objekt z natančno temi polji:
- "id": string — ID zahteve (npr. "Z_0").
- "obrazlozitev": string — podrobna obrazložitev s primerjavo zahtevanih in projektiranih vrednosti.
- "evidence": string — natančna navedba virov.
- "skladnost": string — ena od vrednosti: "Skladno" | "Neskladno" | "Ni relevantno".
- "predlagani_ukrep": string — konkreten ukrep pri neskladju, sicer "—".

# SAMOPREGLED (pred oddajo)
Preveri, da so zajeti vsi id iz seznama zahtev in noben dodatni, da je "skladnost" povsod ena izmed
dovoljenih vrednosti in da je "predlagani_ukrep" = "—" kadar ni neskladja.

# KONČNI IZPIS
Vrni IZKLJUČNO JSON array (brez uvodnega ali zaključnega besedila, brez markdown oznak).`,
		strings.Join(municipality, "\n"),
		termsText,
		uredbaText,
		reqs.String(),
		projectText,
	))
}

// buildEvidenceText prepends confirmed metadata and key project data to the
// accumulated documentation text so every batch judges against the same
// evidence block.
func buildEvidenceText(data models.SessionData, keyData map[string]string) string {
	var b strings.Builder
	b.WriteString("--- METAPODATKI PROJEKTA ---\n")
	writeSortedPairs(&b, data.Metadata)
	if len(keyData) > 0 {
		b.WriteString("--- KLJUČNI GABARITNI IN LOKACIJSKI PODATKI PROJEKTA (Ekstrahirano in POTRJENO) ---\n")
		writeSortedPairs(&b, keyData)
	}
	b.WriteString("--- DOKUMENTACIJA (Besedilo in grafike) ---\n")
	b.WriteString(data.ProjectText)
	return b.String()
}

func writeSortedPairs(b *strings.Builder, pairs map[string]string) {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %s\n", k, pairs[k])
	}
}
