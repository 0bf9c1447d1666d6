package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"mindhaven/internal/ai"
	"mindhaven/internal/model"
	"mindhaven/internal/observability"
)

// MaxHistoryLimit is the largest transcript window History serves.
const MaxHistoryLimit = 200

const (
	maxChatMessageLength = 4000
	defaultHistoryLimit  = 50
	emptyReplyFallback   = "I'm here and listening. Could you tell me a little more?"
)

const therapistPrompt = "You are an AI therapist. Your primary goal is to listen, provide empathetic support, " +
	"and help users explore their feelings and thoughts in a safe and non-judgmental space. " +
	"You do not give medical advice or diagnoses. You can ask clarifying questions to understand the user better. " +
	"Maintain a calm, understanding, and supportive tone. If the user expresses thoughts of self-harm or harming others, " +
	"strongly advise them to seek help from a crisis hotline or mental health professional immediately " +
	"(for example, in the US they can call or text 988). " +
	"Keep responses concise and conversational, typically 1-3 sentences unless more detail is truly needed."

type TherapyStore interface {
	Create(ctx context.Context, msg *model.TherapyMessage) error
	ListRecentByUserID(ctx context.Context, userID uint, n int) ([]model.TherapyMessage, error)
	DeleteByUserID(ctx context.Context, userID uint) error
}

type ChatCompleter interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(chunk string) error) (string, error)
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.TherapyMessage) error
}

type HistoryCache interface {
	Recent(ctx context.Context, userID uint, limit int) ([]model.TherapyMessage, bool, error)
	Fill(ctx context.Context, userID uint, messages []model.TherapyMessage) error
	Invalidate(ctx context.Context, userID uint) error
}

// DirectPublisher persists synchronously. Used when no broker is configured.
type DirectPublisher struct {
	store TherapyStore
}

func NewDirectPublisher(store TherapyStore) *DirectPublisher {
	return &DirectPublisher{store: store}
}

func (p *DirectPublisher) Publish(ctx context.Context, msg model.TherapyMessage) error {
	return p.store.Create(ctx, &msg)
}

type TherapyService struct {
	store        TherapyStore
	llm          ChatCompleter
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	quiz         *Quiz
	maxContext   int
	log          *slog.Logger
}

type ChatInput struct {
	UserID      uint
	Content     string
	QuizAnswers map[int]string
}

type ChatResult struct {
	Reply    string                 `json:"reply"`
	Messages []model.TherapyMessage `json:"messages"`
}

// NewTherapyService accepts a nil historyCache.
func NewTherapyService(
	store TherapyStore,
	llm ChatCompleter,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	quiz *Quiz,
	maxContext int,
	log *slog.Logger,
) *TherapyService {
	if maxContext <= 0 {
		maxContext = 20
	}
	return &TherapyService{
		store:        store,
		llm:          llm,
		publisher:    publisher,
		historyCache: historyCache,
		quiz:         quiz,
		maxContext:   maxContext,
		log:          log,
	}
}

func (s *TherapyService) Send(ctx context.Context, input ChatInput) (*ChatResult, error) {
	userMessage, prompt, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, s.upstreamError(input.UserID, err)
	}

	assistantMessage, err := s.finish(ctx, input.UserID, reply)
	if err != nil {
		return nil, err
	}
	return &ChatResult{
		Reply:    assistantMessage.Content,
		Messages: []model.TherapyMessage{*userMessage, *assistantMessage},
	}, nil
}

// Stream forwards reply chunks to onChunk and returns the full reply. An error
// from onChunk aborts the call and is returned unchanged.
func (s *TherapyService) Stream(ctx context.Context, input ChatInput, onChunk func(string) error) (string, error) {
	_, prompt, err := s.prepare(ctx, input)
	if err != nil {
		return "", err
	}

	var writeErr error
	full, err := s.llm.StreamComplete(ctx, prompt, func(chunk string) error {
		if err := onChunk(chunk); err != nil {
			writeErr = err
			return err
		}
		return nil
	})
	if writeErr != nil {
		return "", writeErr
	}
	if err != nil {
		return "", s.upstreamError(input.UserID, err)
	}

	assistantMessage, err := s.finish(ctx, input.UserID, full)
	if err != nil {
		return "", err
	}
	return assistantMessage.Content, nil
}

// History returns the latest limit messages in chronological order.
func (s *TherapyService) History(ctx context.Context, userID uint, limit int) ([]model.TherapyMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if s.historyCache != nil {
		cached, hit, err := s.historyCache.Recent(ctx, userID, limit)
		if err != nil {
			s.log.Warn("therapy history cache read failed", "user_id", userID, "err", err)
		} else if hit {
			return cached, nil
		}
	}

	// the full window is loaded so the cache can serve any later limit
	messages, err := s.store.ListRecentByUserID(ctx, userID, MaxHistoryLimit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.Fill(ctx, userID, messages); err != nil {
			s.log.Warn("therapy history cache fill failed", "user_id", userID, "err", err)
		}
	}
	return trimMessages(messages, limit), nil
}

func (s *TherapyService) Clear(ctx context.Context, userID uint) error {
	if err := s.store.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, userID); err != nil {
			s.log.Warn("therapy history cache invalidate failed", "user_id", userID, "err", err)
		}
	}
	return nil
}

func (s *TherapyService) prepare(ctx context.Context, input ChatInput) (*model.TherapyMessage, []ai.ChatMessage, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, nil, validationError("message is required")
	}
	if utf8.RuneCountInString(content) > maxChatMessageLength {
		return nil, nil, validationError("message must be at most %d characters", maxChatMessageLength)
	}
	if err := s.quiz.Validate(input.QuizAnswers); err != nil {
		return nil, nil, err
	}

	prompt, err := s.buildPrompt(ctx, input.UserID, content, input.QuizAnswers)
	if err != nil {
		return nil, nil, err
	}

	userMessage := &model.TherapyMessage{
		UserID:    input.UserID,
		Role:      model.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.markDirty(ctx, input.UserID)
	if err := s.publisher.Publish(ctx, *userMessage); err != nil {
		return nil, nil, fmt.Errorf("enqueue user message failed: %w", err)
	}
	return userMessage, prompt, nil
}

func (s *TherapyService) finish(ctx context.Context, userID uint, reply string) (*model.TherapyMessage, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = emptyReplyFallback
	}

	assistantMessage := &model.TherapyMessage{
		UserID:    userID,
		Role:      model.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}
	s.markDirty(ctx, userID)
	if err := s.publisher.Publish(ctx, *assistantMessage); err != nil {
		return nil, fmt.Errorf("enqueue assistant message failed: %w", err)
	}
	return assistantMessage, nil
}

func (s *TherapyService) buildPrompt(ctx context.Context, userID uint, content string, answers map[int]string) ([]ai.ChatMessage, error) {
	recent, err := s.store.ListRecentByUserID(ctx, userID, s.maxContext)
	if err != nil {
		return nil, err
	}

	messages := make([]ai.ChatMessage, 0, len(recent)+3)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: therapistPrompt})
	if summary := s.quiz.Summary(answers); summary != "" {
		messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: summary})
	}
	for _, item := range recent {
		role := ai.RoleUser
		if item.Role == model.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: item.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: content})
	return messages, nil
}

func (s *TherapyService) markDirty(ctx context.Context, userID uint) {
	if s.historyCache == nil {
		return
	}
	if err := s.historyCache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("therapy history cache invalidate failed", "user_id", userID, "err", err)
	}
}

func (s *TherapyService) upstreamError(userID uint, err error) error {
	observability.RecordUpstreamFailure(observability.UpstreamLLM)
	s.log.Error("llm call failed", "user_id", userID, "err", err)
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func trimMessages(messages []model.TherapyMessage, limit int) []model.TherapyMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
