package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const webSearchUnavailable = "I'm unable to search right now. Please try again later, or choose one of the options below."

// StaleSessionError rejects a request based on an outdated session revision.
// Current is the state the client should render instead.
type StaleSessionError struct {
	Current *entities.ChatSession
}

func (e *StaleSessionError) Error() string {
	return "chat session has changed since this request was made"
}

func (e *StaleSessionError) Unwrap() error {
	return apperrors.NewConflictError(e.Error())
}

// ChatService runs chat sessions: the flow machine first, then menu keywords,
// then the catalog resolver and finally web search.
type ChatService struct {
	flows      *ChatbotFlowService
	resolver   *FallbackResolver
	web        providers.WebSearchProvider
	sessions   providers.SessionStore
	analytics  repositories.ChatAnalyticsRepository
	metrics    *observability.ChatMetrics
	webTimeout time.Duration
}

// ChatServiceConfig groups the optional collaborators
type ChatServiceConfig struct {
	Analytics  repositories.ChatAnalyticsRepository
	Metrics    *observability.ChatMetrics
	WebTimeout time.Duration
}

func NewChatService(flows *ChatbotFlowService, resolver *FallbackResolver, web providers.WebSearchProvider, sessions providers.SessionStore, cfg ChatServiceConfig) *ChatService {
	if cfg.WebTimeout <= 0 {
		cfg.WebTimeout = 10 * time.Second
	}
	return &ChatService{
		flows:      flows,
		resolver:   resolver,
		web:        web,
		sessions:   sessions,
		analytics:  cfg.Analytics,
		metrics:    cfg.Metrics,
		webTimeout: cfg.WebTimeout,
	}
}

func (s *ChatService) MenuOptions() []entities.ChatOption {
	return s.flows.MenuOptions()
}

// StartSession creates a session at the menu
func (s *ChatService) StartSession(ctx context.Context) (*entities.ChatSession, error) {
	session := &entities.ChatSession{
		ID:    uuid.New().String(),
		State: s.flows.InitialState(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewInternalError("failed to create chat session", err)
	}
	return session, nil
}

func (s *ChatService) GetSession(ctx context.Context, id string) (*entities.ChatSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if errors.Is(err, providers.ErrSessionNotFound) {
		return nil, apperrors.NewNotFoundError("chat session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load chat session", err)
	}
	return session, nil
}

// SelectOption handles a menu button press
func (s *ChatService) SelectOption(ctx context.Context, id string, optionID entities.Flow, revision int64) (*entities.ChatSession, error) {
	return s.apply(ctx, id, revision, func(ctx context.Context, state entities.ConversationState) (FlowResponse, error) {
		return s.flows.SelectOption(optionID), nil
	})
}

// Reset returns the session to the menu
func (s *ChatService) Reset(ctx context.Context, id string, revision int64) (*entities.ChatSession, error) {
	return s.apply(ctx, id, revision, func(ctx context.Context, state entities.ConversationState) (FlowResponse, error) {
		return s.flows.Transition(ctx, state, FlowEvent{Kind: EventReset})
	})
}

// SendMessage handles typed text
func (s *ChatService) SendMessage(ctx context.Context, id, text string, revision int64) (*entities.ChatSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message text is required")
	}

	var stage entities.ChatResolution
	session, err := s.apply(ctx, id, revision, func(ctx context.Context, state entities.ConversationState) (FlowResponse, error) {
		resp, resolved, err := s.route(ctx, text, state)
		stage = resolved
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveFallback(string(stage))
	s.logEvent(ctx, id, text, stage)
	return session, nil
}

// UnresolvedQueries lists utterances that ended in web search
func (s *ChatService) UnresolvedQueries(ctx context.Context, limit int) ([]*entities.UnresolvedQuery, error) {
	if s.analytics == nil {
		return []*entities.UnresolvedQuery{}, nil
	}
	return s.analytics.UnresolvedQueries(ctx, limit)
}

func (s *ChatService) route(ctx context.Context, text string, state entities.ConversationState) (FlowResponse, entities.ChatResolution, error) {
	if state.AwaitsInput() {
		resp, err := s.flows.ProcessInput(ctx, text, state)
		return resp, entities.ResolutionFlow, err
	}

	if flow, ok := MatchMenuKeyword(text); ok {
		return s.flows.SelectOption(flow), entities.ResolutionMenuKeyword, nil
	}

	if s.resolver != nil {
		res, err := s.resolver.Resolve(ctx, text)
		if err != nil {
			return FlowResponse{}, "", err
		}
		if res != nil {
			return menuAnswer(s.flows, res.Message), res.Stage, nil
		}
	}

	return s.searchWeb(ctx, text)
}

func (s *ChatService) searchWeb(ctx context.Context, text string) (FlowResponse, entities.ChatResolution, error) {
	if s.web == nil {
		return menuAnswer(s.flows, entities.TextMessage(webSearchUnavailable)), entities.ResolutionUnavailable, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.webTimeout)
	defer cancel()

	result, err := s.web.Search(searchCtx, text)
	if err != nil {
		logger := observability.LoggerFromContext(ctx)
		if apperrors.IsTransportFailure(err) {
			logger.Warn().Err(err).Msg("web search unreachable")
		} else {
			logger.Error().Err(err).Msg("web search failed")
		}
		return menuAnswer(s.flows, entities.TextMessage(webSearchUnavailable)), entities.ResolutionUnavailable, nil
	}

	blocks := []entities.Block{}
	for _, para := range strings.Split(result.Answer, "\n\n") {
		if p := strings.TrimSpace(para); p != "" {
			blocks = append(blocks, entities.Paragraph(p))
		}
	}
	resp := menuAnswer(s.flows, entities.NewMessage(blocks...))
	for _, r := range result.Results {
		if r.Link != "" {
			resp.Actions = append(resp.Actions, entities.Action{Type: entities.ActionOpenURL, Label: r.Title, URL: r.Link})
		}
	}
	return resp, entities.ResolutionWebSearch, nil
}

// apply loads the session, checks the revision, runs step and saves the new
// state with a compare-and-swap.
func (s *ChatService) apply(ctx context.Context, id string, revision int64, step func(context.Context, entities.ConversationState) (FlowResponse, error)) (*entities.ChatSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if revision != session.Revision {
		s.metrics.ObserveStaleWrite()
		return nil, &StaleSessionError{Current: session}
	}

	resp, err := step(ctx, session.State)
	if err != nil {
		return nil, err
	}

	next := *session
	next.State = resp.State
	next.Actions = resp.Actions
	if err := s.sessions.CompareAndSwap(ctx, &next, revision); err != nil {
		switch {
		case errors.Is(err, providers.ErrStaleRevision):
			s.metrics.ObserveStaleWrite()
			current, getErr := s.GetSession(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &StaleSessionError{Current: current}
		case errors.Is(err, providers.ErrSessionNotFound):
			return nil, apperrors.NewNotFoundError("chat session not found")
		default:
			return nil, apperrors.NewInternalError("failed to save chat session", err)
		}
	}

	s.metrics.ObserveTransition(string(resp.Flow), resp.Outcome)
	return &next, nil
}

func (s *ChatService) logEvent(ctx context.Context, sessionID, text string, stage entities.ChatResolution) {
	if s.analytics == nil {
		return
	}
	event := &entities.ChatEvent{SessionID: sessionID, Utterance: text, Resolution: stage}
	if err := s.analytics.LogEvent(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to log chat event")
	}
}

func menuAnswer(flows *ChatbotFlowService, msg entities.Message) FlowResponse {
	return FlowResponse{State: flows.MenuWith(msg), Flow: entities.FlowMenu, Outcome: OutcomeCompleted}
}
