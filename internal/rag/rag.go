package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/v7mdd/MoodleMate/internal/chromemdb"
	"github.com/v7mdd/MoodleMate/internal/config"
	"github.com/v7mdd/MoodleMate/internal/embedding"
	"github.com/v7mdd/MoodleMate/internal/helper"
	"github.com/v7mdd/MoodleMate/internal/llmservice"
	"github.com/v7mdd/MoodleMate/internal/models"
)

// SessionStore persists chat sessions and their messages.
type SessionStore interface {
	SessionExists(ctx context.Context, id string) (bool, error)
	SaveTurn(ctx context.Context, sessionID string, isNew bool, userText, assistantText string) error
	ListSessions(ctx context.Context) ([]models.SessionSummary, error)
	GetHistory(ctx context.Context, sessionID string) ([]models.HistoryMessage, error)
	ClearAll(ctx context.Context) error
}

// AnswerComposer produces a grounded answer for a query.
type AnswerComposer interface {
	Answer(ctx context.Context, query string, chunks []models.RetrievedChunk) (Answer, error)
}

// InitError records why the answering pipeline could not be built.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("answering disabled: %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() []error {
	return []error{models.ErrConfiguration, e.Err}
}

// Service answers chat messages and exposes session history. It is not
// mutated after construction and is safe for concurrent use.
type Service struct {
	retriever Retriever
	composer  AnswerComposer
	store     SessionStore
	k         int
	timeout   time.Duration
	initErr   error
}

type Deps struct {
	Retriever Retriever
	Composer  AnswerComposer
	Store     SessionStore
	K         int
	// Timeout bounds retrieval plus generation; zero means no limit.
	Timeout time.Duration
}

func New(deps Deps) *Service {
	k := deps.K
	if k <= 0 {
		k = 3
	}
	return &Service{
		retriever: deps.Retriever,
		composer:  deps.Composer,
		store:     deps.Store,
		k:         k,
		timeout:   deps.Timeout,
	}
}

// Disabled returns a service whose history operations work but which
// refuses to answer, reporting err.
func Disabled(store SessionStore, err error) *Service {
	return &Service{store: store, initErr: err}
}

// Bootstrap builds the embedder, opens the index and creates the model
// client. A failure at any stage yields a disabled service rather than an
// error, so the history endpoints stay usable.
func Bootstrap(cfg *config.Config, store SessionStore) *Service {
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return disabled(store, "embedder", err)
	}

	index, err := chromemdb.Open(cfg.Index.Path, cfg.Index.Collection, cfg.Embedding.Identity())
	if err != nil {
		return disabled(store, "index", err)
	}

	llm, err := llmservice.NewLLM(&cfg.LLM)
	if err != nil {
		return disabled(store, "llm", err)
	}

	log.Info().
		Str("embedding_model", cfg.Embedding.Identity()).
		Str("llm", cfg.LLM.Model).
		Int("chunks", index.Count()).
		Msg("Answering pipeline ready")

	return New(Deps{
		Retriever: NewRetriever(index, embedder),
		Composer:  NewComposer(llm, cfg.LLM.Temperature),
		Store:     store,
		K:         cfg.Retrieval.K,
		Timeout:   cfg.LLM.Timeout,
	})
}

func disabled(store SessionStore, stage string, err error) *Service {
	initErr := &InitError{Stage: stage, Err: err}
	log.Warn().Err(err).Str("stage", stage).Msg("Answering disabled")
	return Disabled(store, initErr)
}

// Available reports whether AnswerQuery can be used.
func (s *Service) Available() bool { return s.initErr == nil }

// InitErr is the reason answering is disabled, nil when available.
func (s *Service) InitErr() error { return s.initErr }

// AnswerQuery answers message within sessionID, or within a new session when
// sessionID is empty. The session (if new) and both messages are stored
// together only after a successful answer.
func (s *Service) AnswerQuery(ctx context.Context, message, sessionID string) (models.ChatResponse, error) {
	if s.initErr != nil {
		return models.ChatResponse{}, s.initErr
	}
	if strings.TrimSpace(message) == "" {
		return models.ChatResponse{}, fmt.Errorf("%w: message is empty", models.ErrInvalidInput)
	}

	isNew := sessionID == ""
	if isNew {
		id, err := helper.GenerateUUID()
		if err != nil {
			return models.ChatResponse{}, err
		}
		sessionID = id
	} else {
		exists, err := s.store.SessionExists(ctx, sessionID)
		if err != nil {
			return models.ChatResponse{}, err
		}
		if !exists {
			return models.ChatResponse{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, sessionID)
		}
	}

	answer, err := s.answer(ctx, message)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Error answering query")
		return models.ChatResponse{}, err
	}

	sources := FilterCitations(answer.Text, answer.ChunksUsed)

	if err := s.store.SaveTurn(ctx, sessionID, isNew, message, answer.Text); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Error saving turn")
		return models.ChatResponse{}, err
	}

	log.Info().
		Str("session_id", sessionID).
		Bool("new_session", isNew).
		Int("sources", len(sources)).
		Msg("Answered query")

	return models.ChatResponse{
		Answer:       answer.Text,
		SessionID:    sessionID,
		IsNewSession: isNew,
		Sources:      sources,
	}, nil
}

func (s *Service) answer(ctx context.Context, message string) (Answer, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	chunks, err := s.retriever.Retrieve(ctx, message, s.k)
	if err != nil {
		return Answer{}, err
	}

	answer, err := s.composer.Answer(ctx, message, chunks)
	if err != nil {
		return Answer{}, err
	}
	if err := ctx.Err(); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	return answer, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	return s.store.ListSessions(ctx)
}

func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]models.HistoryMessage, error) {
	return s.store.GetHistory(ctx, sessionID)
}

func (s *Service) ClearAllHistory(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	log.Info().Msg("History cleared")
	return nil
}

// IsUnavailable reports whether err means the answering capability is down.
func IsUnavailable(err error) bool {
	return errors.Is(err, models.ErrConfiguration)
}
