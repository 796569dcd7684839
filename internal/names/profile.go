package names

import "strings"

// Profile holds the locale-specific expansion rules.
type Profile struct {
	Code string `yaml:"code"`
	// Prefixes are prepended to the full name and initials forms.
	Prefixes []string `yaml:"prefixes"`
	// Honorifics are recognized (and stripped) when a base form already starts with one.
	Honorifics []string `yaml:"honorifics"`
	Initials   bool     `yaml:"initials"`
	// FoldAccents strips combining marks before matching (e.g. "José" matches "Jose").
	FoldAccents bool `yaml:"foldAccents"`
	// RegionAliases maps short region codes to full names for location agreement.
	RegionAliases map[string]string `yaml:"regionAliases"`
	// RegulatoryTerms and LegalTerms seed context queries for search providers.
	RegulatoryTerms []string `yaml:"regulatoryTerms"`
	LegalTerms      []string `yaml:"legalTerms"`
}

var indiaProfile = Profile{
	Code:     "IN",
	Prefixes: []string{"Shri", "Dr.", "Mr."},
	Honorifics: []string{
		"Shri", "Shrimati", "Smt", "Smt.", "Dr", "Dr.", "Prof", "Prof.", "Mr", "Mr.", "Mrs", "Mrs.",
		"Ms", "Ms.", "Sir", "Madam", "Justice", "Hon'ble", "Honorable",
	},
	Initials: true,
	RegionAliases: map[string]string{
		"AP": "Andhra Pradesh", "AR": "Arunachal Pradesh", "AS": "Assam", "BR": "Bihar",
		"CT": "Chhattisgarh", "GA": "Goa", "GJ": "Gujarat", "HR": "Haryana",
		"HP": "Himachal Pradesh", "JK": "Jammu and Kashmir", "JH": "Jharkhand", "KA": "Karnataka",
		"KL": "Kerala", "MP": "Madhya Pradesh", "MH": "Maharashtra", "MN": "Manipur",
		"ML": "Meghalaya", "MZ": "Mizoram", "NL": "Nagaland", "OR": "Odisha", "PB": "Punjab",
		"RJ": "Rajasthan", "SK": "Sikkim", "TN": "Tamil Nadu", "TG": "Telangana", "TR": "Tripura",
		"UP": "Uttar Pradesh", "UK": "Uttarakhand", "WB": "West Bengal",
		"AN": "Andaman and Nicobar Islands", "CH": "Chandigarh",
		"DN": "Dadra and Nagar Haveli and Daman and Diu", "DL": "Delhi", "LD": "Ladakh",
		"LA": "Lakshadweep", "PY": "Puducherry",
	},
	RegulatoryTerms: []string{
		"SEBI", "RBI", "ED", "CBI", "SFIO", "NCLT", "NCLAT", "MCA",
		"Enforcement Directorate", "Income Tax",
	},
	LegalTerms: []string{
		"Supreme Court", "High Court", "FIR registered", "charge sheet",
		"show-cause notice", "arrest warrant", "bail", "writ petition",
	},
}

var defaultProfile = Profile{
	Code:        "DEFAULT",
	Prefixes:    []string{"Mr.", "Ms.", "Dr."},
	Honorifics:  []string{"Mr", "Mr.", "Mrs", "Mrs.", "Ms", "Ms.", "Dr", "Dr.", "Prof", "Prof.", "Sir"},
	Initials:    true,
	FoldAccents: true,
	RegulatoryTerms: []string{
		"SEC", "regulator", "enforcement action", "fine", "penalty",
	},
	LegalTerms: []string{
		"court", "lawsuit", "indicted", "charged", "verdict",
	},
}

// ProfileFor returns a built-in profile by code, falling back to the default one.
func ProfileFor(code string) Profile {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "IN", "INDIA":
		return indiaProfile
	default:
		return defaultProfile
	}
}

// Override is a partial Profile as written in configuration. Nil switches
// and empty lists keep the base profile's value.
type Override struct {
	Code            string            `yaml:"code"`
	Prefixes        []string          `yaml:"prefixes"`
	Honorifics      []string          `yaml:"honorifics"`
	Initials        *bool             `yaml:"initials"`
	FoldAccents     *bool             `yaml:"foldAccents"`
	RegionAliases   map[string]string `yaml:"regionAliases"`
	RegulatoryTerms []string          `yaml:"regulatoryTerms"`
	LegalTerms      []string          `yaml:"legalTerms"`
}

// Merge overlays the set fields of o onto p.
func (p Profile) Merge(o Override) Profile {
	if o.Code != "" {
		p.Code = o.Code
	}
	if len(o.Prefixes) > 0 {
		p.Prefixes = o.Prefixes
	}
	if len(o.Honorifics) > 0 {
		p.Honorifics = o.Honorifics
	}
	if o.Initials != nil {
		p.Initials = *o.Initials
	}
	if o.FoldAccents != nil {
		p.FoldAccents = *o.FoldAccents
	}
	if len(o.RegionAliases) > 0 {
		p.RegionAliases = o.RegionAliases
	}
	if len(o.RegulatoryTerms) > 0 {
		p.RegulatoryTerms = o.RegulatoryTerms
	}
	if len(o.LegalTerms) > 0 {
		p.LegalTerms = o.LegalTerms
	}
	return p
}

// CanonicalRegion expands a region code through the profile aliases.
func (p Profile) CanonicalRegion(region string) string {
	region = strings.TrimSpace(region)
	if full, ok := p.RegionAliases[strings.ToUpper(region)]; ok {
		return full
	}
	return region
}

func (p Profile) stripHonorific(name string) (string, bool) {
	for _, h := range p.Honorifics {
		prefix := h + " "
		if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			return strings.TrimSpace(name[len(prefix):]), true
		}
	}
	return name, false
}
