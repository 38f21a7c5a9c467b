package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/katakuxiko/faqbot/internal/model"
	"github.com/katakuxiko/faqbot/internal/store"
	"github.com/katakuxiko/faqbot/internal/util"
)

// Options tune the Orchestrator. Zero values keep the baseline behavior:
// whole document in the system turn, no history, no timeout.
type Options struct {
	Instruction   string
	HistoryWindow int
	Timeout       time.Duration
	// Index, when set, replaces the whole document with its TopK passages.
	Index store.PassageIndex
	TopK  int
}

// Orchestrator answers questions grounded in the DocumentStore text.
type Orchestrator struct {
	docs *store.DocumentStore
	llm  Provider
	opts Options
}

func NewOrchestrator(docs *store.DocumentStore, llm Provider, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Orchestrator{docs: docs, llm: llm, opts: opts}
}

// Answer validates the question, composes the grounded prompt and returns
// the provider's first choice unmodified. Failures are ErrEmptyQuestion,
// ErrNotReady or *ProviderError. Nothing is retried.
func (o *Orchestrator) Answer(ctx context.Context, question string, history []model.ChatTurn) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	doc := o.docs.Current()
	if doc == "" {
		return "", ErrNotReady
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	grounding := o.grounding(ctx, doc, question)
	turns := buildMessages(o.opts.Instruction, grounding, question, history, o.opts.HistoryWindow)

	log.Infof("asking %s: %q", o.llm.Name(), util.Preview(question, 80))
	answer, err := o.llm.Complete(ctx, turns)
	if err != nil {
		return "", &ProviderError{Provider: o.llm.Name(), Err: err}
	}
	return answer, nil
}

// grounding returns the reference text for the system turn: the full
// document, or the best passages when an index is configured and finds any.
func (o *Orchestrator) grounding(ctx context.Context, doc, question string) string {
	if o.opts.Index == nil {
		return doc
	}

	chunks, err := o.opts.Index.Search(ctx, question, o.opts.TopK)
	if err != nil {
		log.Warnf("passage search failed, using full document: %v", err)
		return doc
	}
	if len(chunks) == 0 {
		return doc
	}

	var b strings.Builder
	for _, ch := range chunks {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", ch.ID, ch.Text)
	}
	return b.String()
}

// buildMessages returns the system turn, at most window prior turns, then
// the question. Client history is limited to user and assistant turns.
func buildMessages(instruction, grounding, question string, history []model.ChatTurn, window int) []model.ChatTurn {
	turns := []model.ChatTurn{
		{Role: model.RoleSystem, Content: systemPrompt(instruction, grounding)},
	}

	if window > 0 {
		var prior []model.ChatTurn
		for _, h := range history {
			if (h.Role == model.RoleUser || h.Role == model.RoleAssistant) && h.Content != "" {
				prior = append(prior, h)
			}
		}
		if len(prior) > window {
			prior = prior[len(prior)-window:]
		}
		turns = append(turns, prior...)
	}

	return append(turns, model.ChatTurn{Role: model.RoleUser, Content: question})
}

func systemPrompt(instruction, grounding string) string {
	if instruction == "" {
		return grounding
	}
	return instruction + " " + grounding
}
