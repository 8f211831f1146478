package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/finrag/core/llm"
	"github.com/siherrmann/finrag/helper"
	"github.com/siherrmann/finrag/model"
)

// Retriever returns the relevant articles for a question. It never fails;
// problems surface as an empty result.
type Retriever interface {
	Retrieve(ctx context.Context, question string, indexName string, config model.RetrievalConfig) []*model.Article
}

// Agent answers questions from indexed articles.
// It is safe for concurrent use; per-call state lives on the stack of Ask.
type Agent struct {
	retriever Retriever
	generator llm.Generator
	messages  MessageLog
	config    model.Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithMessageLog records every question and answer in log.
func WithMessageLog(log MessageLog) Option {
	return func(a *Agent) { a.messages = log }
}

// WithLogger sets the agent logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// NewAgent creates an agent with a validated configuration snapshot.
func NewAgent(retriever Retriever, generator llm.Generator, config model.Config, opts ...Option) (*Agent, error) {
	if retriever == nil {
		return nil, helper.NewError("agent configuration", fmt.Errorf("retriever is nil"))
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("agent configuration", err)
	}

	a := &Agent{
		retriever: retriever,
		generator: generator,
		config:    config,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// Config returns the agent's configuration snapshot.
func (a *Agent) Config() model.Config {
	return a.config
}

type step int

const (
	stepRetrieve step = iota
	stepGenerate
	stepFallback
	stepDone
)

type workflowState struct {
	question string
	config   model.Config
	articles []*model.Article
	answer   string
	outcome  model.Outcome
	err      string
}

// Ask runs retrieve, gate and then either answer generation or the fallback.
// Retrieval and generation problems are reported in the result, never as an error.
func (a *Agent) Ask(ctx context.Context, question string, overrides model.AskOverrides) *model.AskResult {
	state := &workflowState{
		question: question,
		config:   a.config.WithOverrides(overrides),
	}

	for s := stepRetrieve; s != stepDone; {
		switch s {
		case stepRetrieve:
			s = a.retrieve(ctx, state)
		case stepGenerate:
			s = a.generate(ctx, state)
		case stepFallback:
			s = a.fallback(ctx, state)
		}
	}

	return &model.AskResult{
		Question:      state.question,
		Answer:        state.answer,
		ArticlesFound: len(state.articles) > 0,
		NumArticles:   len(state.articles),
		Articles:      state.articles,
		Outcome:       state.outcome,
		Error:         state.err,
	}
}

func (a *Agent) retrieve(ctx context.Context, state *workflowState) step {
	state.articles = a.retriever.Retrieve(ctx, state.question, state.config.Store.IndexName, state.config.Retrieval)
	if state.articles == nil {
		state.articles = []*model.Article{}
	}

	decision := Decide(state.articles)
	a.logger.Debug("Gate decision", "decision", decision.String(), "articles", len(state.articles))

	if decision == Proceed {
		return stepGenerate
	}
	return stepFallback
}

func (a *Agent) generate(ctx context.Context, state *workflowState) step {
	answer, err := a.callGenerator(ctx, state)
	if err != nil {
		a.logger.Error("Error generating answer", "error", err.Error())
		state.answer = GenerationFailure(err)
		state.outcome = model.OutcomeGenerationFailed
		state.err = err.Error()
	} else {
		state.answer = answer
		state.outcome = model.OutcomeAnswered
	}

	a.record(ctx, state)
	return stepDone
}

func (a *Agent) callGenerator(ctx context.Context, state *workflowState) (string, error) {
	if a.generator == nil {
		return "", fmt.Errorf("no language model configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := BuildPrompt(state.question, FormatContext(state.articles, state.config.Retrieval.ContentChars))

	genCtx, cancel := context.WithTimeout(ctx, state.config.Agent.Timeout())
	defer cancel()

	return a.generator.Generate(genCtx, prompt, llm.Options{
		Temperature: state.config.LLM.Temperature,
		MaxTokens:   state.config.LLM.MaxTokens,
	})
}

func (a *Agent) fallback(ctx context.Context, state *workflowState) step {
	state.answer = FallbackAnswer(state.question)
	state.outcome = model.OutcomeNoArticles

	a.record(ctx, state)
	return stepDone
}

// record appends the turn to the message log. Failures are only logged.
func (a *Agent) record(ctx context.Context, state *workflowState) {
	if a.messages == nil {
		return
	}

	now := a.now()
	err := a.messages.Append(
		context.WithoutCancel(ctx),
		SessionFromContext(ctx),
		model.Message{Role: model.RoleHuman, Content: state.question, CreatedAt: now},
		model.Message{Role: model.RoleAssistant, Content: state.answer, CreatedAt: now},
	)
	if err != nil {
		a.logger.Warn("Error appending to message log", "error", err.Error())
	}
}
