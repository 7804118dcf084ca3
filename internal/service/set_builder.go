package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
)

type recurringSource interface {
	TopRecurring(ctx context.Context, userID int64, limit int) ([]models.RecurringMistake, error)
}

type sentenceSource interface {
	RandomFromPool(ctx context.Context, n int) ([]models.Sentence, error)
	RandomSpare(ctx context.Context, n int) ([]models.Sentence, error)
}

type sentenceGenerator interface {
	Generate(ctx context.Context, count int, topic string) ([]string, error)
}

// SetItem is one slot of a daily set before persistence. SentenceID is zero
// for texts not yet stored.
type SetItem struct {
	SentenceID int64
	Text       string
	Source     models.SentenceSource
}

// numberedPrefix matches list decorations generators tend to prepend,
// like "1. ", "2) " or "3 - ".
var numberedPrefix = regexp.MustCompile(`^\s*\d+\s*[.)\-]\s*`)

// SetBuilder composes one day's practice set: one curated pool sentence,
// the learner's most urgent recurring mistakes, and generated sentences to
// fill the remaining slots. Exact duplicate texts never appear twice.
type SetBuilder struct {
	ledger    recurringSource
	sentences sentenceSource
	generator sentenceGenerator
	cfg       config.PracticeConfig
	logger    *zap.Logger
}

// NewSetBuilder builds the set builder.
func NewSetBuilder(ledger recurringSource, sentences sentenceSource, generator sentenceGenerator, cfg config.PracticeConfig, logger *zap.Logger) *SetBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SetBuilder{
		ledger:    ledger,
		sentences: sentences,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Build assembles the full set for one user. The returned slice always has
// exactly cfg.SetSize items; when generation and the spare pool together
// cannot fill it, Build fails with ErrPoolExhausted and no partial set.
func (b *SetBuilder) Build(ctx context.Context, userID int64, topic string) ([]SetItem, error) {
	if topic == "" {
		topic = b.cfg.DefaultTopic
	}
	seen := make(map[string]struct{}, b.cfg.SetSize)
	items := make([]SetItem, 0, b.cfg.SetSize)

	add := func(item SetItem) bool {
		item.Text = normalizeSentence(item.Text)
		if item.Text == "" {
			return false
		}
		if _, dup := seen[item.Text]; dup {
			return false
		}
		seen[item.Text] = struct{}{}
		items = append(items, item)
		return true
	}

	pool, err := b.sentences.RandomFromPool(ctx, 1)
	if err != nil {
		return nil, err
	}
	for _, s := range pool {
		add(SetItem{SentenceID: s.ID, Text: s.Text, Source: s.Source})
	}

	recurring, err := b.ledger.TopRecurring(ctx, userID, b.cfg.MaxRecurringMistakes)
	if err != nil {
		return nil, err
	}
	for _, m := range recurring {
		add(SetItem{SentenceID: m.SentenceID, Text: m.Sentence, Source: models.SourcePool})
	}

	// One initial generation call plus a bounded number of top-up rounds
	// when the generator repeats itself or comes up short.
	for round := 0; round <= b.cfg.GenerationRounds && len(items) < b.cfg.SetSize; round++ {
		missing := b.cfg.SetSize - len(items)
		candidates, err := b.generator.Generate(ctx, missing, topic)
		if err != nil {
			b.logger.Warn("sentence generation failed, falling back to spare pool",
				zap.Int64("user_id", userID),
				zap.Int("round", round),
				zap.Error(err))
			break
		}
		accepted := 0
		for _, text := range candidates {
			if len(items) >= b.cfg.SetSize {
				break
			}
			if add(SetItem{Text: text, Source: models.SourceGenerated}) {
				accepted++
			}
		}
		if accepted == 0 && round > 0 {
			// A top-up round that added nothing means the generator is
			// repeating itself; let the spare pool fill the rest.
			break
		}
	}

	if len(items) < b.cfg.SetSize {
		missing := b.cfg.SetSize - len(items)
		b.logger.Info("backfilling daily set from spare pool",
			zap.Int64("user_id", userID),
			zap.Int("missing", missing))
		spares, err := b.sentences.RandomSpare(ctx, missing+len(items))
		if err != nil {
			return nil, err
		}
		for _, s := range spares {
			if len(items) >= b.cfg.SetSize {
				break
			}
			add(SetItem{SentenceID: s.ID, Text: s.Text, Source: s.Source})
		}
	}

	if len(items) < b.cfg.SetSize {
		return nil, appErrors.Clone(appErrors.ErrPoolExhausted, "not enough sentences to build today's set")
	}
	return items, nil
}

// normalizeSentence strips generator list decorations and surrounding
// whitespace so the same sentence always compares equal.
func normalizeSentence(text string) string {
	text = strings.TrimSpace(text)
	text = numberedPrefix.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
