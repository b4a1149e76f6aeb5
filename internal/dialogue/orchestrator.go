// Package dialogue orchestrates inbound messages: it maintains conversation
// history, classifies intent, dispatches to the selected skill or the chat
// backend, and always produces a user-facing reply.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hsinyulin/finchat/internal/convo"
	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/intent"
	"github.com/hsinyulin/finchat/internal/models"
	"github.com/hsinyulin/finchat/internal/skills"
	"github.com/openai/openai-go"
)

// DirectiveSuffix steers the chat backend's response language. It is appended
// to the stored user turn so the LLM window carries the instruction.
const DirectiveSuffix = ", 請以繁體中文回答我問題"

// Fixed replies. Failures after the webhook is acknowledged must surface as
// chat text, never as transport errors.
const (
	SkillFailureReply = "資料來源暫時無法取得，請稍後再試。"
	EmptyReply        = "抱歉，我現在無法回覆，請再試一次。"

	backendFailureFormat = "AI 服務呼叫失敗：%v，請檢查 API Key 或用量額度"
)

// DefaultRequestTimeout bounds each outbound skill or backend call.
const DefaultRequestTimeout = 60 * time.Second

// LoadingSeconds is how long the platform shows the typing indicator.
const LoadingSeconds = 20

// TypingNotifier triggers the platform's loading indicator. Failures are
// ignorable.
type TypingNotifier interface {
	SendLoading(ctx context.Context, chatID string, seconds int) error
}

// Orchestrator ties the classifier, skill registry, conversation store, and
// chat backend together.
type Orchestrator struct {
	store      *convo.Store
	classifier *intent.Classifier
	registry   *skills.Registry
	genAI      genai.ClientInterface
	notifier   TypingNotifier
	timeout    time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTypingNotifier enables the loading indicator trigger.
func WithTypingNotifier(n TypingNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithRequestTimeout overrides the outbound call timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewOrchestrator creates an orchestrator with its required collaborators.
func NewOrchestrator(store *convo.Store, classifier *intent.Classifier, registry *skills.Registry, genAI genai.ClientInterface, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		classifier: classifier,
		registry:   registry,
		genAI:      genAI,
		timeout:    DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one inbound message and returns the reply text. It never
// returns an error: every downstream failure becomes a diagnostic reply. A
// chat's messages are handled serially; distinct chats run concurrently.
func (o *Orchestrator) Handle(ctx context.Context, chatID, text string) string {
	unlock := o.store.LockChat(chatID)
	defer unlock()

	o.store.Append(chatID, models.Turn{Role: models.RoleUser, Content: text + DirectiveSuffix})

	if o.notifier != nil {
		if err := o.notifier.SendLoading(ctx, chatID, LoadingSeconds); err != nil {
			slog.Debug("Orchestrator.Handle: loading indicator failed", "chatID", chatID, "error", err)
		}
	}

	skill, arg := o.classifier.Classify(text)
	slog.Info("Orchestrator.Handle: classified message", "chatID", chatID, "skill", skill, "arg_set", arg != "")

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var reply string
	if skill == models.SkillLLMChat {
		reply = o.chatFallback(callCtx, chatID)
	} else {
		reply = o.dispatch(callCtx, skill, arg)
	}

	if strings.TrimSpace(reply) == "" {
		slog.Warn("Orchestrator.Handle: empty reply, substituting apology", "chatID", chatID, "skill", skill)
		reply = EmptyReply
	}

	o.store.Append(chatID, models.Turn{Role: models.RoleAssistant, Content: reply})
	return reply
}

// dispatch invokes the handler for a classified skill, converting any failure
// into the fixed diagnostic reply.
func (o *Orchestrator) dispatch(ctx context.Context, skill models.SkillID, arg string) string {
	handler, ok := o.registry.Lookup(skill)
	if !ok {
		slog.Error("Orchestrator.dispatch: no handler registered", "skill", skill)
		return SkillFailureReply
	}

	out, err := handler.Handle(ctx, arg)
	if err != nil {
		slog.Error("Orchestrator.dispatch: handler failed", "skill", skill, "error", err)
		return SkillFailureReply
	}
	return out
}

// chatFallback runs a completion over the recent history window.
func (o *Orchestrator) chatFallback(ctx context.Context, chatID string) string {
	window := o.store.RecentWindow(chatID, o.store.MaxHistoryLen())

	out, err := o.genAI.GenerateWithMessages(ctx, toMessages(window))
	if err != nil {
		slog.Error("Orchestrator.chatFallback: backend failed", "chatID", chatID, "error", err)
		return fmt.Sprintf(backendFailureFormat, err)
	}
	return out
}

func toMessages(turns []models.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}
