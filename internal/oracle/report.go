package oracle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Evaluation is the parsed grading outcome handed to the ledger.
type Evaluation struct {
	Score         int      `json:"score"`
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Corrected     string   `json:"corrected"`
	Report        string   `json:"report"`
	Graded        bool     `json:"graded"`
}

// DefaultEvaluation is returned when every grading attempt failed. Grading
// failure must degrade, never crash the submission.
func DefaultEvaluation() Evaluation {
	return Evaluation{
		Score:  0,
		Report: "The translation could not be graded automatically. Please submit this sentence again later.",
	}
}

const (
	labelScore         = "Score:"
	labelCategories    = "Mistake Categories:"
	labelSubcategories = "Subcategories:"
	labelCorrect       = "Correct Translation:"
)

var (
	scorePattern = regexp.MustCompile(`(\d{1,3})\s*/\s*100`)
	// Category lists keep only letters, digits, spaces, commas, '+' and '-'.
	labelNoise = regexp.MustCompile(`[^0-9a-zA-Z\s,+\-]`)
)

// ParseReport reads the oracle's fixed-format report line by line. A report
// missing the Score or the Correct Translation line is malformed; the caller
// treats that as a retryable failure.
func ParseReport(raw string) (Evaluation, error) {
	eval := Evaluation{Report: strings.TrimSpace(raw)}
	haveScore := false

	for _, line := range strings.Split(raw, "\n") {
		line = trimDecoration(line)
		switch {
		case hasLabel(line, labelScore):
			score, ok := parseScore(labelValue(line, labelScore))
			if !ok {
				return Evaluation{}, fmt.Errorf("unparsable score line %q", line)
			}
			eval.Score = score
			haveScore = true
		case hasLabel(line, labelCategories):
			eval.Categories = SanitizeLabels(labelValue(line, labelCategories))
		case hasLabel(line, labelSubcategories):
			eval.Subcategories = SanitizeLabels(labelValue(line, labelSubcategories))
		case hasLabel(line, labelCorrect):
			eval.Corrected = labelValue(line, labelCorrect)
		}
	}

	if !haveScore {
		return Evaluation{}, fmt.Errorf("report missing %q line", labelScore)
	}
	if eval.Corrected == "" {
		return Evaluation{}, fmt.Errorf("report missing %q line", labelCorrect)
	}
	eval.Graded = true
	return eval, nil
}

// ParseScoreOnly reads the narrow re-score reply, which carries just the
// Score line.
func ParseScoreOnly(raw string) (int, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = trimDecoration(line)
		if !hasLabel(line, labelScore) {
			continue
		}
		if score, ok := parseScore(labelValue(line, labelScore)); ok {
			return score, nil
		}
	}
	// Tolerate a bare "X/100" with no label.
	if score, ok := parseScore(raw); ok {
		return score, nil
	}
	return 0, fmt.Errorf("re-score reply missing score")
}

// SanitizeLabels strips formatting noise from a comma-separated label list.
func SanitizeLabels(raw string) []string {
	cleaned := labelNoise.ReplaceAllString(raw, "")
	parts := strings.Split(cleaned, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		labels = append(labels, part)
	}
	return labels
}

// trimDecoration removes markdown emphasis and list bullets the oracle
// sometimes wraps labels in.
func trimDecoration(line string) string {
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "*_#")
	line = strings.TrimPrefix(line, "- ")
	return strings.TrimSpace(line)
}

func hasLabel(line, label string) bool {
	if len(line) < len(label) {
		return false
	}
	return strings.EqualFold(line[:len(label)], label)
}

func labelValue(line, label string) string {
	return strings.TrimSpace(strings.Trim(line[len(label):], "*_"))
}

func parseScore(raw string) (int, bool) {
	match := scorePattern.FindStringSubmatch(raw)
	if match == nil {
		return 0, false
	}
	score, err := strconv.Atoi(match[1])
	if err != nil || score < 0 || score > 100 {
		return 0, false
	}
	return score, true
}
