package analysis

import (
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"time"
)

// severityRank orders severities for the max-wins merge rule.
var severityRank = map[string]int{"low": 0, "medium": 1, "high": 2}

// normalizeSeverity maps unknown or empty severities to "medium".
func normalizeSeverity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := severityRank[s]; !ok {
		return "medium"
	}
	return s
}

// unrankedPage sorts requirements without a page after every real page when
// choosing the canonical title.
const unrankedPage = int(^uint(0) >> 1)

// Deduplicate merges requirements that share a title (case-insensitive,
// trimmed). The merged requirement keeps the earliest page, the highest
// severity, and the union of tags. The canonical title casing comes from the
// variant on the lowest page, ties broken lexicographically, and IDs derive
// from the normalized title and the given date, so the same input always
// yields the same output regardless of input order.
func Deduplicate(reqs []Requirement, now time.Time) []Requirement {
	type group struct {
		first     Requirement
		titlePage int
		tags      map[string]bool
	}

	groups := make(map[string]*group)
	for _, r := range reqs {
		title := strings.TrimSpace(r.Title)
		key := strings.ToLower(title)
		if key == "" {
			continue
		}

		titlePage := r.Page
		if titlePage <= 0 {
			titlePage = unrankedPage
		}

		g, ok := groups[key]
		if !ok {
			g = &group{first: r, titlePage: titlePage, tags: make(map[string]bool)}
			g.first.Title = title
			g.first.Severity = normalizeSeverity(r.Severity)
			g.first.Tags = nil
			groups[key] = g
		} else {
			if r.Page > 0 && (g.first.Page == 0 || r.Page < g.first.Page) {
				g.first.Page = r.Page
			}
			if titlePage < g.titlePage || (titlePage == g.titlePage && title < g.first.Title) {
				g.first.Title = title
				g.titlePage = titlePage
			}
			sev := normalizeSeverity(r.Severity)
			if severityRank[sev] > severityRank[g.first.Severity] {
				g.first.Severity = sev
			}
		}
		for _, tag := range r.Tags {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				g.tags[tag] = true
			}
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make([]Requirement, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		r := g.first

		r.Tags = make([]string, 0, len(g.tags))
		for tag := range g.tags {
			r.Tags = append(r.Tags, tag)
		}
		sort.Strings(r.Tags)

		r.ID = requirementID(key, now)
		merged = append(merged, r)
	}
	return merged
}

// requirementID builds a stable ID from the normalized title and date,
// e.g. "R-20260828-3f2a9c01".
func requirementID(normalizedTitle string, now time.Time) string {
	sum := md5.Sum([]byte(normalizedTitle))
	return fmt.Sprintf("R-%s-%x", now.Format("20060102"), sum[:4])
}
