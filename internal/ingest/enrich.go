package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/sequence"
	"github.com/dmitrymomot/outreach/pkg/summarize"
)

// Merge tag keys read and written by Enrich.
const (
	TagArticleURL      = "article_url"
	TagArticleSummary  = "article_summary"
	TagProbingQuestion = "probing_question"
)

const defaultEnrichBatch = 100

// Summarizer produces the first-email hooks for an article.
// *summarize.Summarizer satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, articleURL string) (summarize.Summary, error)
}

// EnrichStore is the slice of contact.Store Enrich needs.
type EnrichStore interface {
	List(ctx context.Context, f contact.Filter) ([]contact.Contact, error)
	SetMergeTags(ctx context.Context, id string, tags map[string]string) error
}

// EnrichResult counts what Enrich did.
type EnrichResult struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Enrich fills article_summary and probing_question for NEW contacts that
// have an article_url and no summary yet. A failing contact is logged and
// left for the next run; only the listing query fails the whole call.
func Enrich(ctx context.Context, store EnrichStore, s Summarizer, limit int, log *slog.Logger) (EnrichResult, error) {
	if log == nil {
		log = logger.NewNope()
	}
	if limit <= 0 {
		limit = defaultEnrichBatch
	}

	fresh, err := store.List(ctx, contact.Filter{
		State:      sequence.StateNew,
		WithTag:    TagArticleURL,
		WithoutTag: TagArticleSummary,
		Limit:      limit,
	})
	if err != nil {
		return EnrichResult{}, err
	}

	var res EnrichResult
	for _, c := range fresh {
		url := strings.TrimSpace(c.MergeTags[TagArticleURL])
		if url == "" || c.MergeTags[TagArticleSummary] != "" {
			res.Skipped++
			continue
		}

		cctx := logger.WithContactID(ctx, c.ID)
		sum, err := s.Summarize(cctx, url)
		if err != nil {
			res.Failed++
			log.WarnContext(cctx, "summarize failed", slog.String("url", url), slog.String("error", err.Error()))
			continue
		}

		if err := store.SetMergeTags(cctx, c.ID, map[string]string{
			TagArticleSummary:  sum.Sentence,
			TagProbingQuestion: sum.Question,
		}); err != nil {
			res.Failed++
			log.WarnContext(cctx, "save summary failed", slog.String("error", err.Error()))
			continue
		}
		res.Enriched++
	}

	log.InfoContext(ctx, "enrich finished",
		slog.Int("enriched", res.Enriched),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}
