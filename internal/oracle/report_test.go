package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportFullTemplate(t *testing.T) {
	raw := "Score: 72/100\n" +
		"Mistake Categories: Verbs, Cases\n" +
		"Subcategories: Modal Verbs, Dative\n" +
		"Correct Translation: Ich muss heute zum Arzt gehen."

	eval, err := ParseReport(raw)
	require.NoError(t, err)

	assert.Equal(t, 72, eval.Score)
	assert.Equal(t, []string{"Verbs", "Cases"}, eval.Categories)
	assert.Equal(t, []string{"Modal Verbs", "Dative"}, eval.Subcategories)
	assert.Equal(t, "Ich muss heute zum Arzt gehen.", eval.Corrected)
	assert.True(t, eval.Graded)
}

func TestParseReportToleratesMarkdownDecoration(t *testing.T) {
	raw := "**Score: 95/100**\n" +
		"- Mistake Categories: \n" +
		"- Subcategories: \n" +
		"**Correct Translation:** Das Wetter ist heute schön."

	eval, err := ParseReport(raw)
	require.NoError(t, err)

	assert.Equal(t, 95, eval.Score)
	assert.Empty(t, eval.Categories)
	assert.Equal(t, "Das Wetter ist heute schön.", eval.Corrected)
}

func TestParseReportMissingScoreIsMalformed(t *testing.T) {
	_, err := ParseReport("Mistake Categories: Verbs\nCorrect Translation: Etwas.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Score:")
}

func TestParseReportMissingCorrectTranslationIsMalformed(t *testing.T) {
	_, err := ParseReport("Score: 40/100\nMistake Categories: Verbs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Correct Translation:")
}

func TestParseReportRejectsUnparsableScore(t *testing.T) {
	_, err := ParseReport("Score: excellent\nCorrect Translation: Doch.")
	assert.Error(t, err)
}

func TestSanitizeLabels(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Verbs**, Cases,,", []string{"Verbs", "Cases"}},
		{"Word Order", []string{"Word Order"}},
		{"Akkusativ + Preposition, Two-way", []string{"Akkusativ + Preposition", "Two-way"}},
		{"  ", nil},
		{"***", nil},
	}

	for _, tt := range tests {
		got := SanitizeLabels(tt.in)
		if tt.want == nil {
			assert.Empty(t, got, "input %q", tt.in)
			continue
		}
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseScoreOnly(t *testing.T) {
	score, err := ParseScoreOnly("Score: 45/100")
	require.NoError(t, err)
	assert.Equal(t, 45, score)

	score, err = ParseScoreOnly("The result is 88/100 overall.")
	require.NoError(t, err)
	assert.Equal(t, 88, score)

	_, err = ParseScoreOnly("no numbers here")
	assert.Error(t, err)
}

func TestDefaultEvaluation(t *testing.T) {
	eval := DefaultEvaluation()
	assert.Zero(t, eval.Score)
	assert.False(t, eval.Graded)
	assert.NotEmpty(t, eval.Report)
	assert.Empty(t, eval.Categories)
}
