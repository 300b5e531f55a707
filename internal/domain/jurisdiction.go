package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Jurisdiction identifies a taxing authority: "US" for federal, USPS codes for states and DC.
type Jurisdiction string

// Federal is the jurisdiction code for the federal rule sets.
const Federal Jurisdiction = "US"

var stateNames = map[Jurisdiction]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

// ParseJurisdiction normalizes a code and rejects anything that is not federal, a state or DC.
func ParseJurisdiction(code string) (Jurisdiction, error) {
	j := Jurisdiction(strings.ToUpper(strings.TrimSpace(code)))
	if !j.Valid() {
		return "", fmt.Errorf("unrecognized jurisdiction code %q", code)
	}
	return j, nil
}

// Valid reports whether j is a known jurisdiction code.
func (j Jurisdiction) Valid() bool {
	if j == Federal {
		return true
	}
	_, ok := stateNames[j]
	return ok
}

// IsState reports whether j is a state-level jurisdiction (DC included).
func (j Jurisdiction) IsState() bool {
	_, ok := stateNames[j]
	return ok
}

// Name returns the display name of the jurisdiction.
func (j Jurisdiction) Name() string {
	if j == Federal {
		return "Federal"
	}
	if name, ok := stateNames[j]; ok {
		return name
	}
	return string(j)
}

// States returns every state-level jurisdiction code in sorted order.
func States() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(stateNames))
	for j := range stateNames {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
