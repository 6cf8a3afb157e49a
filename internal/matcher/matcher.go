// Package matcher maps regulatory document text to training courses using a
// deterministic keyword rule table. It is the fallback path when no model is
// available and the baseline the model-assisted matcher is compared against.
package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule binds a keyword pattern to a course ID.
type Rule struct {
	Pattern  *regexp.Regexp
	CourseID string
}

// Candidate is a proposed document-to-course mapping.
type Candidate struct {
	CourseID   string  `json:"course_id"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence"` // excerpt around the first match
}

// DefaultRules returns the built-in keyword rule table covering the OSHA and
// Cal/OSHA topics the course catalog is organized around.
func DefaultRules() []Rule {
	return []Rule{
		{regexp.MustCompile(`(?i)bloodborne\s+pathogens?|1910\.1030`), "BBP-1910.1030"},
		{regexp.MustCompile(`(?i)hazard\s+communication|hazcom|ghs|1910\.1200`), "HAZCOM-1910.1200"},
		{regexp.MustCompile(`(?i)laboratory\s+safety|lab\s+safety`), "LAB-SAFETY-101"},
		{regexp.MustCompile(`(?i)chemical\s+spill|spill\s+response`), "CHEM-SPILL-110"},
		{regexp.MustCompile(`(?i)personal\s+protective\s+equipment|\bppe\b`), "PPE-201"},
		{regexp.MustCompile(`(?i)respiratory\s+protection|respirator|fit\s+test|1910\.134`), "RESPIRATOR-QUAL-130"},
		{regexp.MustCompile(`(?i)forklift|powered\s+industrial\s+trucks?|1910\.178`), "FORKLIFT-OP-120"},
		{regexp.MustCompile(`(?i)lockout[\s/]*tagout|\bloto\b|1910\.147`), "LOTO-1910.147"},
		{regexp.MustCompile(`(?i)ladder\s+safety|portable\s+ladders?`), "LADDER-101"},
		{regexp.MustCompile(`(?i)heat\s+illness|outdoor\s+heat|\b3395\b`), "HEAT-ILLNESS-CA-3395"},
		{regexp.MustCompile(`(?i)radiation\s+safety|ionizing\s+radiation|\balara\b`), "RADIATION-ALARA-101"},
		{regexp.MustCompile(`(?i)laser\s+safety|class\s+(?:2|3r)\s+lasers?`), "LASER-CLASS-2-3R"},
		{regexp.MustCompile(`(?i)osha\s*-?\s*10`), "OSHA-10-GEN"},
		{regexp.MustCompile(`(?i)biosafety\s+level\s+1|\bbsl-?1\b`), "BIOSAFETY-BSL1"},
		{regexp.MustCompile(`(?i)biosafety\s+level\s+2|\bbsl-?2\b`), "BIOSAFETY-BSL2"},
		{regexp.MustCompile(`(?i)fire\s+(?:safety|extinguisher|prevention)`), "FIRE-101"},
		{regexp.MustCompile(`(?i)ergonomics?|repetitive\s+strain`), "ERG-101"},
	}
}

const (
	excerptRadius = 120
	excerptMax    = 500
)

// Match applies the rule table to text and returns one candidate per matched
// course. Confidence grows with the number of hits: 0.5 for a single hit plus
// 0.25 per additional hit, capped at 1.0. When several rules map to the same
// course the highest-confidence candidate wins.
func Match(text string, rules []Rule) []Candidate {
	byCourse := make(map[string]Candidate)
	var order []string

	for _, rule := range rules {
		locs := rule.Pattern.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		confidence := 0.5 + 0.25*float64(len(locs)-1)
		if confidence > 1.0 {
			confidence = 1.0
		}

		cand := Candidate{
			CourseID:   rule.CourseID,
			Confidence: confidence,
			Evidence:   excerpt(text, locs[0][0], locs[0][1]),
		}

		if prev, ok := byCourse[rule.CourseID]; ok {
			if cand.Confidence > prev.Confidence {
				byCourse[rule.CourseID] = cand
			}
			continue
		}
		byCourse[rule.CourseID] = cand
		order = append(order, rule.CourseID)
	}

	candidates := make([]Candidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, byCourse[id])
	}
	return candidates
}

// excerpt returns the text surrounding a match, flattened to one line. Window
// and cap boundaries are moved onto rune starts so regulatory symbols near the
// edges are never cut in half.
func excerpt(text string, start, end int) string {
	lo := start - excerptRadius
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + excerptRadius
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}

	snippet := strings.Join(strings.Fields(text[lo:hi]), " ")
	if len(snippet) > excerptMax {
		cut := excerptMax
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	return strings.TrimSpace(snippet)
}
