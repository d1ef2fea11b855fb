package discovery

import (
	"regexp"
	"strings"
)

// ParseOutcome says how much of a generated line could be understood.
type ParseOutcome int

const (
	ParseUnusable ParseOutcome = iota
	ParseTitleOnly
	ParseTitleYear
)

func (o ParseOutcome) String() string {
	switch o {
	case ParseTitleYear:
		return "title+year"
	case ParseTitleOnly:
		return "title-only"
	default:
		return "unusable"
	}
}

// Candidate is a movie named by the model.
type Candidate struct {
	Title string
	Year  string
}

const maxCandidateLength = 200

var (
	titleYearPattern = regexp.MustCompile(`^(?:\d+[.)]\s*)?(.+?)\s*\((\d{4})\)`)
	yearPattern      = regexp.MustCompile(`\(\d{4}\)`)
	bulletPattern    = regexp.MustCompile(`^(?:[-*•]\s+)+`)
)

// ParseCandidate reads one "Title (Year)" line. Numbered and bulleted lines
// and markdown emphasis are accepted. A line without a year yields
// ParseTitleOnly with the year-free remainder as the title.
func ParseCandidate(line string) (Candidate, ParseOutcome) {
	value := cleanLine(line)
	if value == "" || len(value) > maxCandidateLength {
		return Candidate{}, ParseUnusable
	}
	if match := titleYearPattern.FindStringSubmatch(value); match != nil {
		title := trimTitle(match[1])
		if title != "" {
			return Candidate{Title: title, Year: match[2]}, ParseTitleYear
		}
	}
	title := trimTitle(yearPattern.ReplaceAllString(value, ""))
	if title == "" {
		return Candidate{}, ParseUnusable
	}
	return Candidate{Title: title}, ParseTitleOnly
}

// ParseCandidateList keeps every line of text that parses with a year,
// dropping repeats, up to limit entries.
func ParseCandidateList(text string, limit int) []Candidate {
	lines := strings.Split(text, "\n")
	out := make([]Candidate, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		candidate, outcome := ParseCandidate(line)
		if outcome != ParseTitleYear {
			continue
		}
		key := strings.ToLower(candidate.Title) + "|" + candidate.Year
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ParseSuggestion reads the first non-empty line of a single-title answer.
func ParseSuggestion(text string) (Candidate, ParseOutcome) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return ParseCandidate(line)
	}
	return Candidate{}, ParseUnusable
}

func cleanLine(line string) string {
	value := strings.TrimSpace(line)
	value = bulletPattern.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, "**", "")
	value = strings.ReplaceAll(value, "__", "")
	return strings.TrimSpace(value)
}

func trimTitle(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), ` "'“”.,;:-`)
}
