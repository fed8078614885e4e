package jobs

import (
	"fmt"
	"strings"

	"github.com/joelfuller2016/job-applier-sub002/profile"
)

// Match scores a listing against a profile on a 0-100 scale and writes the
// score and a short analysis back onto the listing. This is the only mutation
// a Listing sees after discovery.
//
// Scoring is deterministic: title keyword overlap (up to 40), skills found in
// the description (up to 40), location/remote preference (up to 20).
func Match(l *Listing, p *profile.Profile) {
	var reasons []string
	score := 0

	title := strings.ToLower(l.Title)
	matched := 0
	for _, want := range p.Preferences.Titles {
		if want == "" {
			continue
		}
		if containsAllWords(title, strings.ToLower(want)) {
			matched++
		}
	}
	if len(p.Preferences.Titles) == 0 {
		// No preference means any title is acceptable.
		score += 40
	} else if matched > 0 {
		score += 40
		reasons = append(reasons, fmt.Sprintf("title matches %d preferred role(s)", matched))
	} else {
		reasons = append(reasons, "title does not match preferred roles")
	}

	desc := strings.ToLower(l.Description + " " + l.Title)
	found := 0
	for _, skill := range p.Skills {
		if skill != "" && strings.Contains(desc, strings.ToLower(skill)) {
			found++
		}
	}
	if len(p.Skills) > 0 {
		score += 40 * found / len(p.Skills)
		reasons = append(reasons, fmt.Sprintf("%d/%d skills mentioned", found, len(p.Skills)))
	} else {
		score += 20
	}

	switch {
	case l.Remote && p.Preferences.Remote:
		score += 20
		reasons = append(reasons, "remote role matches preference")
	case locationMatches(l.Location, p.Preferences.Locations):
		score += 20
		reasons = append(reasons, "location matches preference")
	case len(p.Preferences.Locations) == 0 && !p.Preferences.Remote:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	l.MatchScore = score
	l.MatchAnalysis = strings.Join(reasons, "; ")
}

// containsAllWords reports whether every word of want appears in s.
func containsAllWords(s, want string) bool {
	for _, w := range strings.Fields(want) {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}

func locationMatches(loc string, prefs []string) bool {
	loc = strings.ToLower(loc)
	if loc == "" {
		return false
	}
	for _, p := range prefs {
		if p != "" && strings.Contains(loc, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
