package persona

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rsharda/personad/internal/llm"
	"github.com/rsharda/personad/internal/profile"
	"github.com/rsharda/personad/internal/questionnaire"
)

// SummaryState tracks how the current persona summary was obtained.
type SummaryState string

const (
	SummaryPending    SummaryState = "pending"
	SummaryGenerating SummaryState = "generating"
	SummaryCached     SummaryState = "cached"
	SummaryGenerated  SummaryState = "generated"
	SummaryFallback   SummaryState = "fallback"
	SummaryFailed     SummaryState = "failed"
)

// Fallbacks used when the questionnaire file is missing or summary
// generation is unavailable.
const (
	defaultRaw     = "Standard Professional Persona"
	defaultSummary = "A helpful professional assistant."
)

// Completer is the LLM surface the engine needs.
type Completer interface {
	Complete(ctx context.Context, system string, msgs []llm.Message) (string, error)
}

// Engine owns the persona: the questionnaire, supplementary background, and
// the derived summary. All reads go through a mutex-guarded snapshot; reloads
// swap state wholesale.
type Engine struct {
	log         *slog.Logger
	llm         Completer
	personaPath string
	cachePath   string
	tokenBudget int

	mu          sync.RWMutex
	raw         string
	entries     []questionnaire.Entry
	attachments []profile.Attachment
	summary     string
	state       SummaryState

	bgCtx context.Context
	genMu sync.Mutex // serializes summary generation
}

// Config for the engine. Attachments are loaded once at construction; the
// questionnaire can be replaced at runtime via Reload.
type Config struct {
	PersonaPath string
	CachePath   string
	ProfileDir  string
	TokenBudget int
	PDFFallback bool
}

// NewEngine reads the questionnaire from disk. A missing file falls back to
// the default persona; a present but malformed file is a load failure, since
// partial persona data would produce a misleading twin.
func NewEngine(cfg Config, completer Completer, log *slog.Logger) (*Engine, error) {
	e := &Engine{
		log:         log,
		llm:         completer,
		personaPath: cfg.PersonaPath,
		cachePath:   cfg.CachePath,
		tokenBudget: cfg.TokenBudget,
		state:       SummaryPending,
		bgCtx:       context.Background(),
	}

	e.attachments = profile.LoadDir(cfg.ProfileDir, cfg.PDFFallback, log)

	data, err := os.ReadFile(cfg.PersonaPath)
	if os.IsNotExist(err) {
		log.Warn("questionnaire missing, using default persona", "path", cfg.PersonaPath)
		e.raw = defaultRaw
		e.summary = defaultSummary
		e.state = SummaryFallback
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questionnaire: %w", err)
	}

	entries, err := questionnaire.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load questionnaire: %w", err)
	}
	e.raw = string(data)
	e.entries = entries
	log.Info("questionnaire loaded", "path", cfg.PersonaPath, "entries", len(entries), "attachments", len(e.attachments))
	return e, nil
}

// Start records the background context and kicks off summary generation.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	e.bgCtx = ctx
	e.mu.Unlock()
	go e.EnsureSummary(ctx)
}

// Entries returns a copy of the parsed questionnaire entries.
func (e *Engine) Entries() []questionnaire.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]questionnaire.Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// ExportMarkdown renders the current questionnaire back to markdown.
func (e *Engine) ExportMarkdown() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.entries) == 0 {
		return e.raw
	}
	return questionnaire.Render(e.entries)
}

// Summary returns the current summary text and how it was obtained.
func (e *Engine) Summary() (string, SummaryState) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary, e.state
}

// SystemPrompt assembles the role-play system prompt for a chat turn.
func (e *Engine) SystemPrompt(userName string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return buildSystemPrompt(e.summary, e.entries, e.raw, e.attachments, userName, e.tokenBudget)
}

// EnsureSummary loads the cached summary if present, otherwise generates
// one and caches it. Failures leave a fallback summary in place; the
// questionnaire itself is still in the prompt, so chat keeps working.
func (e *Engine) EnsureSummary(ctx context.Context) {
	e.genMu.Lock()
	defer e.genMu.Unlock()

	e.mu.RLock()
	fallback := e.state == SummaryFallback
	e.mu.RUnlock()
	if fallback {
		// No questionnaire to summarize.
		return
	}

	if cached, err := os.ReadFile(e.cachePath); err == nil && len(bytes.TrimSpace(cached)) > 0 {
		e.setSummary(string(cached), SummaryCached)
		e.log.Info("persona summary loaded from cache", "path", e.cachePath)
		return
	}

	e.mu.RLock()
	raw := e.raw
	e.mu.RUnlock()

	e.setState(SummaryGenerating)
	summary, err := e.generate(ctx, raw)
	if err != nil {
		e.log.Error("summary generation failed, using fallback", "error", err)
		e.setSummary(defaultSummary, SummaryFailed)
		return
	}

	e.setSummary(summary, SummaryGenerated)
	if err := os.WriteFile(e.cachePath, []byte(summary), 0o644); err != nil {
		e.log.Error("summary cache write failed", "path", e.cachePath, "error", err)
	}
	e.log.Info("persona summary generated", "chars", len(summary))
}

// RefreshSummary discards the cache and regenerates.
func (e *Engine) RefreshSummary(ctx context.Context) {
	if err := os.Remove(e.cachePath); err != nil && !os.IsNotExist(err) {
		e.log.Warn("summary cache remove failed", "path", e.cachePath, "error", err)
	}
	e.EnsureSummary(ctx)
}

// Reload validates a replacement questionnaire, persists it, swaps persona
// state, and regenerates the summary in the background.
func (e *Engine) Reload(data []byte) error {
	entries, err := questionnaire.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := questionnaire.ValidateEntries(entries); err != nil {
		return err
	}
	if err := os.WriteFile(e.personaPath, data, 0o644); err != nil {
		return fmt.Errorf("persist questionnaire: %w", err)
	}
	if err := os.Remove(e.cachePath); err != nil && !os.IsNotExist(err) {
		e.log.Warn("summary cache remove failed", "path", e.cachePath, "error", err)
	}

	e.mu.Lock()
	e.raw = string(data)
	e.entries = entries
	e.summary = defaultSummary
	e.state = SummaryPending
	bgCtx := e.bgCtx
	e.mu.Unlock()

	e.log.Info("questionnaire reloaded", "entries", len(entries))
	go e.EnsureSummary(bgCtx)
	return nil
}

func (e *Engine) generate(ctx context.Context, raw string) (string, error) {
	prompt := summaryPrompt(raw)
	var lastErr error
	for attempt := 0; attempt < llm.MaxRetries; attempt++ {
		summary, err := e.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: prompt}})
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if !llm.IsRetryable(err) || attempt == llm.MaxRetries-1 {
			break
		}
		e.log.Warn("retryable summary error", "attempt", attempt, "error", err)
		select {
		case <-time.After(llm.Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

func (e *Engine) setSummary(summary string, state SummaryState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary = summary
	e.state = state
}

func (e *Engine) setState(state SummaryState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}
