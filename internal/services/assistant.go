package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/cache"
	"github.com/shamsacademy/academy-backend/internal/platform/httpx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/openai"
)

const chatSystemPrompt = `You are an AI assistant for Shams Academy Inventors School.
You can help users with:
1. Course selection and recommendations
2. Programming questions and explanations
3. Payment and subscription information
4. General questions about the platform

Be friendly, professional, and concise in your responses.`

const (
	endpointChat     = "chat"
	endpointGenerate = "generate_course"

	notConfiguredMessage = "Service is not properly configured"
	unavailableMessage   = "AI service is currently unavailable"
)

type assistantEndpoint struct {
	name      string
	model     string
	maxTokens int
	limit     int
	window    time.Duration
	cacheTTL  time.Duration
}

var (
	chatEndpoint = assistantEndpoint{
		name: endpointChat, model: "gpt-3.5-turbo", maxTokens: 150,
		limit: 5, window: time.Minute, cacheTTL: 5 * time.Minute,
	}
	generateEndpoint = assistantEndpoint{
		name: endpointGenerate, model: "gpt-4", maxTokens: 1000,
		limit: 3, window: time.Hour, cacheTTL: time.Hour,
	}
)

const assistantTemperature = 0.7

type AssistantService interface {
	Chat(ctx context.Context, message string) (string, error)
	GenerateCourse(ctx context.Context, topic, level string) (string, error)
}

type assistantService struct {
	log     *logger.Logger
	llm     openai.Client
	cache   cache.Cache
	limiter cache.Limiter
}

func NewAssistantService(baseLog *logger.Logger, llm openai.Client, c cache.Cache, limiter cache.Limiter) AssistantService {
	return &assistantService{
		log:     baseLog.With("service", "AssistantService"),
		llm:     llm,
		cache:   c,
		limiter: limiter,
	}
}

func (s *assistantService) Chat(ctx context.Context, message string) (string, error) {
	const op = "Assistant.Chat"
	id, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if err := s.throttle(ctx, op, chatEndpoint, id.UserID.String()); err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		s.log.Warn("empty chat message", "user_id", id.UserID)
		return "", domainagg.Validation(op, "Message is required")
	}
	key := cacheKey(endpointChat, id.UserID.String(), message)
	return s.complete(ctx, op, chatEndpoint, key, []openai.Message{
		{Role: openai.RoleSystem, Content: chatSystemPrompt},
		{Role: openai.RoleUser, Content: message},
	})
}

func (s *assistantService) GenerateCourse(ctx context.Context, topic, level string) (string, error) {
	const op = "Assistant.GenerateCourse"
	id, err := caller(ctx)
	if err != nil {
		return "", err
	}
	if err := s.throttle(ctx, op, generateEndpoint, id.UserID.String()); err != nil {
		return "", err
	}
	topic = strings.TrimSpace(topic)
	level = strings.ToLower(strings.TrimSpace(level))
	if topic == "" || level == "" {
		return "", domainagg.Validation(op, "Topic and level are required")
	}
	if !catalog.IsValidLevel(level) {
		return "", domainagg.Validation(op, "Level must be one of: beginner, intermediate, advanced")
	}
	prompt := fmt.Sprintf("You are a professional course content creator. Create a detailed course outline for a %s level course on %s.", level, topic)
	key := cacheKey(endpointGenerate, id.UserID.String(), topic, level)
	return s.complete(ctx, op, generateEndpoint, key, []openai.Message{
		{Role: openai.RoleSystem, Content: prompt},
	})
}

func (s *assistantService) throttle(ctx context.Context, op string, ep assistantEndpoint, userKey string) error {
	if s.limiter == nil {
		return nil
	}
	d, err := s.limiter.Allow(ctx, ep.name+":"+userKey, ep.limit, ep.window)
	if err != nil {
		// A broken limiter should not take the assistant down with it.
		s.log.Warn("rate limiter unavailable", "endpoint", ep.name, "error", err)
		return nil
	}
	if d.Allowed {
		return nil
	}
	observability.Current().IncAssistantRequest(ep.name, "throttled")
	return NewThrottledError(op, d.RetryAfter)
}

func (s *assistantService) complete(ctx context.Context, op string, ep assistantEndpoint, key string, msgs []openai.Message) (string, error) {
	if s.cache != nil {
		if v, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn("assistant cache read failed", "endpoint", ep.name, "error", err)
		} else if ok {
			observability.Current().IncAssistantCache(ep.name, true)
			return v, nil
		}
		observability.Current().IncAssistantCache(ep.name, false)
	}

	temp := assistantTemperature
	out, err := s.llm.Complete(ctx, openai.CompletionRequest{
		Model:       ep.model,
		Messages:    msgs,
		Temperature: &temp,
		MaxTokens:   ep.maxTokens,
	})
	if err != nil {
		mapped := s.mapLLMError(op, err)
		observability.Current().IncAssistantRequest(ep.name, string(domainagg.CodeOf(mapped)))
		return "", mapped
	}
	observability.Current().IncAssistantRequest(ep.name, "ok")

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, ep.cacheTTL); err != nil {
			s.log.Warn("assistant cache write failed", "endpoint", ep.name, "error", err)
		}
	}
	return out, nil
}

func (s *assistantService) mapLLMError(op string, err error) error {
	if domainagg.IsCode(err, domainagg.CodeConfiguration) {
		s.log.Error("assistant not configured", "error", err)
		return domainagg.Configuration(op, notConfiguredMessage)
	}
	var se *httpx.StatusError
	if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
		s.log.Error("assistant credentials rejected", "status", se.Status)
		return domainagg.Configuration(op, notConfiguredMessage)
	}
	s.log.Error("assistant provider error", "error", err)
	return domainagg.NewError(domainagg.CodeUnavailable, op, unavailableMessage, err)
}

// ThrottledError carries the wait hint for a Retry-After header.
type ThrottledError struct {
	RetryAfter time.Duration
	err        error
}

func NewThrottledError(op string, retryAfter time.Duration) *ThrottledError {
	secs := int(math.Ceil(retryAfter.Seconds()))
	return &ThrottledError{
		RetryAfter: retryAfter,
		err: domainagg.NewError(domainagg.CodeRateLimited, op,
			fmt.Sprintf("Request was throttled. Expected available in %d seconds.", secs), nil),
	}
}

func (e *ThrottledError) Error() string { return e.err.Error() }
func (e *ThrottledError) Unwrap() error { return e.err }

func (e *ThrottledError) RetryAfterHint() time.Duration { return e.RetryAfter }

func cacheKey(endpoint string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return endpoint + ":" + hex.EncodeToString(h.Sum(nil))
}
