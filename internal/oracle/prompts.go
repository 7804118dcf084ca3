package oracle

import (
	"fmt"
	"strings"

	"github.com/olehkravets/satzwerk/internal/taxonomy"
)

// graderInstructions configure the grading assistant. The response template
// is load-bearing: the parser in report.go only accepts these labeled lines.
func graderInstructions() string {
	return fmt.Sprintf(`You are a strict and professional German language teacher evaluating translations from Russian to German at B2 level. Assess rigorously and consistently; do not excuse grammatical or structural errors, and do not praise flawed translations.

You receive two fields: the original Russian sentence and the student's German translation. Score from 0 to 100, deducting for grammar, vocabulary, word order and register errors. An empty or unintelligible translation scores 0.

Classify every mistake using only these categories: %s.
Allowed subcategories per category:
%s

Respond with exactly these lines and nothing else:
Score: X/100
Mistake Categories: ... (comma separated)
Subcategories: ... (comma separated, positionally matching the categories)
Correct Translation: ...`,
		strings.Join(taxonomy.Categories(), ", "),
		subcategoryReference())
}

func gradePrompt(original, translation string) string {
	return fmt.Sprintf("Original sentence (Russian):\n%s\n\nUser's translation (German):\n%s", original, translation)
}

func rescorePrompt(original, translation string) string {
	return fmt.Sprintf(`Re-evaluate the translation below and reply with a single line of the form "Score: X/100". No categories, no explanations.

Original sentence (Russian):
%s

User's translation (German):
%s`, original, translation)
}

// generatorInstructions configure the sentence-generation assistant.
func generatorInstructions() string {
	return `You are an expert linguist creating didactic material for Russian speakers learning German at B2 level. Generate authentic, real-life Russian sentences for translation practice. Each sentence must be crafted so that its natural German translation exercises a specific B2 grammatical construction (subordinate clauses, passive voice, Konjunktiv II, modal verbs, declension).

Rules:
- Output one sentence per line.
- Do not number the lines.
- Do not include translations, explanations or any other text.`
}

func generatePrompt(count int, topic string) string {
	return fmt.Sprintf("Generate %d Russian sentences about %q, one per line.", count, topic)
}

func subcategoryReference() string {
	var b strings.Builder
	for _, cat := range taxonomy.Categories() {
		fmt.Fprintf(&b, "- %s: %s\n", cat, strings.Join(taxonomy.Subcategories(cat), ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
