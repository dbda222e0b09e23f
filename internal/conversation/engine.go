// Package conversation answers questions over the index while keeping the
// conversation memory.
//
// One Answer call is: optionally condense the follow-up into a standalone
// question, retrieve the top-k chunks, build the prompt, generate with the
// memory, and return the reply together with the extended history.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"docqa/internal/index"
	"docqa/internal/llm"

	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy is returned when Answer is called while another answer is in flight.
	ErrBusy          = errors.New("engine is already answering")
	ErrEmptyQuestion = errors.New("question is empty")
)

type State int32

const (
	Idle State = iota
	Answering
)

func (s State) String() string {
	if s == Answering {
		return "answering"
	}
	return "idle"
}

// Retriever is the read path of the index client.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]index.Match, error)
}

type Config struct {
	TopK             int
	CondenseQuestion bool
}

// Reply is a delivered answer with the chunks it was grounded on.
type Reply struct {
	Text     string
	Sources  []index.Match
	Grounded bool   // false when retrieval returned nothing
	Query    string // question actually sent to retrieval
}

type Engine struct {
	retriever Retriever
	generator llm.Generator
	cfg       Config
	state     atomic.Int32
}

func NewEngine(retriever Retriever, generator llm.Generator, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &Engine{retriever: retriever, generator: generator, cfg: cfg}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Answer runs one question through retrieval and generation. The returned
// history is a new slice; history itself is never modified. On error the
// caller keeps its old history.
func (e *Engine) Answer(ctx context.Context, question string, history History) (Reply, History, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, history, ErrEmptyQuestion
	}

	if !e.state.CompareAndSwap(int32(Idle), int32(Answering)) {
		return Reply{}, history, ErrBusy
	}
	defer e.state.Store(int32(Idle))

	query := question
	if e.cfg.CondenseQuestion && len(history) > 0 {
		standalone, err := e.condense(ctx, question, history)
		if err != nil {
			return Reply{}, history, err
		}
		query = standalone
	}

	matches, err := e.retriever.Retrieve(ctx, query, e.cfg.TopK)
	if err != nil {
		return Reply{}, history, fmt.Errorf("retrieval failed: %w", err)
	}
	log.Debug().Int("matches", len(matches)).Str("query", query).Msg("🔍 Retrieved context")

	grounded := len(matches) > 0
	var prompt string
	if grounded {
		prompt = buildAnswerPrompt(question, matches)
	} else {
		log.Warn().Str("query", query).Msg("⚠️  No relevant chunks found, answering without document context")
		prompt = buildUngroundedPrompt(question)
	}

	answer, err := e.generator.Generate(ctx, prompt, history.Memory())
	if err != nil {
		return Reply{}, history, fmt.Errorf("generation failed: %w", err)
	}
	answer = strings.TrimSpace(answer)

	reply := Reply{
		Text:     answer,
		Sources:  matches,
		Grounded: grounded,
		Query:    query,
	}
	return reply, history.With(question, answer), nil
}

func (e *Engine) condense(ctx context.Context, question string, history History) (string, error) {
	standalone, err := e.generator.Generate(ctx, buildCondensePrompt(question, history), nil)
	if err != nil {
		return "", fmt.Errorf("failed to condense question: %w", err)
	}

	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question, nil
	}
	log.Debug().Str("question", question).Str("standalone", standalone).Msg("📝 Condensed follow-up question")
	return standalone, nil
}
