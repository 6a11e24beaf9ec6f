package coding

import "sort"

// ReferencedCodes lists every diagnosis and procedure code the rule tables
// and E&M ladders can emit, each sorted.
func ReferencedCodes() (diagnoses, procedures []string) {
	dx := make(map[string]bool)
	for _, rows := range icd10Rules {
		collectCodes(dx, rows)
	}
	collectCodes(dx, comorbidityRules)

	px := make(map[string]bool)
	for _, rows := range cptRules {
		collectCodes(px, rows)
	}
	for _, ladder := range [][]emRung{newPatientLadder, establishedLadder} {
		for _, r := range ladder {
			px[r.code] = true
		}
	}
	return sortedKeys(dx), sortedKeys(px)
}

func collectCodes(into map[string]bool, rows []rule) {
	for _, r := range rows {
		for _, code := range r.codes.all() {
			into[code] = true
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MissingCodes reports the referenced codes that c does not contain.
// Suggestions for such codes still appear, described as "Unknown".
func (c *Catalog) MissingCodes() (diagnoses, procedures []string) {
	dx, px := ReferencedCodes()
	for _, code := range dx {
		if _, ok := c.diagnoses[code]; !ok {
			diagnoses = append(diagnoses, code)
		}
	}
	for _, code := range px {
		if _, ok := c.procedures[code]; !ok {
			procedures = append(procedures, code)
		}
	}
	return diagnoses, procedures
}
