// Package taxonomy holds the closed set of mistake categories the grading
// oracle is allowed to report. Lookups are case-insensitive and always return
// the canonical labels.
package taxonomy

import "strings"

// Sentinel pair used when the oracle's labels cannot be matched.
const (
	SentinelCategory    = "Other mistake"
	SentinelSubcategory = "Unclassified mistake"
)

// Pair is a validated (category, subcategory) combination.
type Pair struct {
	Main string
	Sub  string
}

// SentinelPair returns the fallback pair for unclassifiable mistakes.
func SentinelPair() Pair {
	return Pair{Main: SentinelCategory, Sub: SentinelSubcategory}
}

var categories = []string{
	"Nouns", "Cases", "Verbs", "Tenses", "Adjectives", "Adverbs",
	"Conjunctions", "Prepositions", "Moods", "Word Order", SentinelCategory,
}

var subcategories = map[string][]string{
	"Nouns": {"Gendered Articles", "Pluralization", "Compound Nouns", "Declension Errors"},
	"Cases": {"Nominative", "Accusative", "Dative", "Genitive", "Akkusativ + Preposition", "Dative + Preposition", "Genitive + Preposition"},
	"Verbs": {"Placement", "Conjugation", "Weak Verbs", "Strong Verbs", "Mixed Verbs", "Separable Verbs", "Reflexive Verbs", "Auxiliary Verbs", "Modal Verbs", "Verb Placement in Subordinate Clause"},
	"Tenses": {"Present", "Past", "Simple Past", "Present Perfect", "Past Perfect", "Future", "Future 1", "Future 2", "Plusquamperfekt Passive", "Futur 1 Passive", "Futur 2 Passive"},
	"Adjectives": {"Endings", "Weak Declension", "Strong Declension", "Mixed Declension", "Placement", "Comparative", "Superlative", "Incorrect Adjective Case Agreement"},
	"Adverbs":      {"Placement", "Multiple Adverbs", "Incorrect Adverb Usage"},
	"Conjunctions": {"Coordinating", "Subordinating", "Incorrect Use of Conjunctions"},
	"Prepositions": {"Accusative", "Dative", "Genitive", "Two-way", "Incorrect Preposition Usage"},
	"Moods":        {"Indicative", "Declarative", "Interrogative", "Imperative", "Subjunctive 1", "Subjunctive 2"},
	"Word Order": {"Standard", "Inverted", "Verb-Second Rule", "Position of Negation", "Incorrect Order in Subordinate Clause", "Incorrect Order with Modal Verb"},
	SentinelCategory: {SentinelSubcategory},
}

// lookup indexes canonical labels by their normalized form.
var (
	categoryIndex    = make(map[string]string, len(categories))
	subcategoryIndex = make(map[string]map[string]string, len(subcategories))
)

func init() {
	for _, cat := range categories {
		categoryIndex[normalize(cat)] = cat
	}
	for cat, subs := range subcategories {
		index := make(map[string]string, len(subs))
		for _, sub := range subs {
			index[normalize(sub)] = sub
		}
		subcategoryIndex[normalize(cat)] = index
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Categories returns the canonical category labels in declaration order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Subcategories returns the canonical subcategory labels for a category.
func Subcategories(category string) []string {
	canonical, ok := CanonicalCategory(category)
	if !ok {
		return nil
	}
	subs := subcategories[canonical]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// CanonicalCategory resolves a free-form label to its canonical category.
func CanonicalCategory(s string) (string, bool) {
	canonical, ok := categoryIndex[normalize(s)]
	return canonical, ok
}

// CanonicalPair resolves a (category, subcategory) combination. The pair is
// valid only when the subcategory belongs to that category's fixed list.
func CanonicalPair(category, subcategory string) (Pair, bool) {
	cat, ok := categoryIndex[normalize(category)]
	if !ok {
		return Pair{}, false
	}
	subs, ok := subcategoryIndex[normalize(cat)]
	if !ok {
		return Pair{}, false
	}
	sub, ok := subs[normalize(subcategory)]
	if !ok {
		return Pair{}, false
	}
	return Pair{Main: cat, Sub: sub}, true
}

// MatchPairs tries every reported category against every reported
// subcategory and keeps the combinations the taxonomy recognizes, without
// duplicates. The oracle is asked for aligned lists, but matching must not
// depend on it honoring the alignment. An empty result means the caller
// should fall back to the sentinel pair.
func MatchPairs(cats, subs []string) []Pair {
	pairs := make([]Pair, 0, len(cats))
	seen := make(map[Pair]struct{}, len(cats))
	for _, cat := range cats {
		for _, sub := range subs {
			pair, ok := CanonicalPair(cat, sub)
			if !ok {
				continue
			}
			if _, dup := seen[pair]; dup {
				continue
			}
			seen[pair] = struct{}{}
			pairs = append(pairs, pair)
		}
	}
	return pairs
}
