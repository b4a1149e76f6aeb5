package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hsinyulin/finchat/internal/convo"
	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/intent"
	"github.com/hsinyulin/finchat/internal/models"
	"github.com/hsinyulin/finchat/internal/skills"
	"github.com/openai/openai-go"
)

type mockBackend struct {
	reply  string
	err    error
	window []openai.ChatCompletionMessageParamUnion
	calls  int
}

func (m *mockBackend) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, opts ...genai.CallOption) (string, error) {
	m.calls++
	m.window = messages
	return m.reply, m.err
}

func (m *mockBackend) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.GenerateWithMessages(ctx, nil)
}

type mockNotifier struct {
	calls int
	err   error
}

func (m *mockNotifier) SendLoading(ctx context.Context, chatID string, seconds int) error {
	m.calls++
	return m.err
}

func newTestOrchestrator(backend genai.ClientInterface, registry *skills.Registry, opts ...Option) (*Orchestrator, *convo.Store) {
	store := convo.NewStore()
	o := NewOrchestrator(store, intent.NewClassifier(intent.Config{}), registry, backend, opts...)
	return o, store
}

func TestHandleDispatchesStockSkill(t *testing.T) {
	var gotArg string
	registry := skills.NewRegistry()
	registry.Register(models.SkillStock, skills.HandlerFunc(func(ctx context.Context, arg string) (string, error) {
		gotArg = arg
		return "台積電分析報告", nil
	}))
	backend := &mockBackend{}
	o, store := newTestOrchestrator(backend, registry)

	reply := o.Handle(context.Background(), "user-1", "2330")

	if reply != "台積電分析報告" {
		t.Errorf("unexpected reply %q", reply)
	}
	if gotArg != "2330" {
		t.Errorf("expected handler arg 2330, got %q", gotArg)
	}
	if backend.calls != 0 {
		t.Error("chat backend should not run for a skill-handled message")
	}

	history := store.Get("user-1")
	if len(history) != 2 {
		t.Fatalf("expected history to grow by 2, got %d turns", len(history))
	}
	if history[0].Role != models.RoleUser || !strings.HasSuffix(history[0].Content, DirectiveSuffix) {
		t.Errorf("first turn should be the directive-suffixed user turn: %+v", history[0])
	}
	if history[1].Role != models.RoleAssistant || history[1].Content != "台積電分析報告" {
		t.Errorf("second turn should be the assistant reply: %+v", history[1])
	}
}

func TestHandleSkillFailureBecomesDiagnosticReply(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(models.SkillStock, skills.HandlerFunc(func(ctx context.Context, arg string) (string, error) {
		return "", errors.New("upstream down")
	}))
	o, store := newTestOrchestrator(&mockBackend{}, registry)

	reply := o.Handle(context.Background(), "user-1", "2330")

	if reply != SkillFailureReply {
		t.Errorf("expected diagnostic reply, got %q", reply)
	}
	history := store.Get("user-1")
	if len(history) != 2 || history[1].Content != SkillFailureReply {
		t.Errorf("diagnostic should still be stored as the assistant turn: %+v", history)
	}
}

func TestHandleUnmatchedUsesChatFallback(t *testing.T) {
	backend := &mockBackend{reply: "哈囉！"}
	o, _ := newTestOrchestrator(backend, skills.NewRegistry())

	reply := o.Handle(context.Background(), "user-1", "今天心情不錯")

	if reply != "哈囉！" {
		t.Errorf("unexpected reply %q", reply)
	}
	if backend.calls != 1 {
		t.Fatalf("expected one backend call, got %d", backend.calls)
	}
	// First contact: the window is just the one directive-appended user turn.
	if len(backend.window) != 1 {
		t.Fatalf("expected window of 1 turn, got %d", len(backend.window))
	}
}

func TestHandleBackendFailureEmbedsError(t *testing.T) {
	backend := &mockBackend{err: errors.New("quota exceeded")}
	o, store := newTestOrchestrator(backend, skills.NewRegistry())

	reply := o.Handle(context.Background(), "user-1", "聊聊天")

	if !strings.Contains(reply, "quota exceeded") || !strings.Contains(reply, "API Key") {
		t.Errorf("expected diagnostic with error detail and credential hint, got %q", reply)
	}
	history := store.Get("user-1")
	if history[len(history)-1].Content != reply {
		t.Error("diagnostic should be appended as assistant turn")
	}
}

func TestHandleEmptyReplySubstitutesApology(t *testing.T) {
	registry := skills.NewRegistry()
	registry.Register(models.SkillCrypto, skills.HandlerFunc(func(ctx context.Context, arg string) (string, error) {
		return "   ", nil
	}))
	o, _ := newTestOrchestrator(&mockBackend{}, registry)

	reply := o.Handle(context.Background(), "user-1", "比特幣")
	if reply != EmptyReply {
		t.Errorf("expected apology substitute, got %q", reply)
	}
}

func TestHandleWindowIsBounded(t *testing.T) {
	backend := &mockBackend{reply: "ok"}
	o, store := newTestOrchestrator(backend, skills.NewRegistry())

	for i := 0; i < 15; i++ {
		o.Handle(context.Background(), "user-1", "隨便聊聊")
	}

	if len(backend.window) != store.MaxHistoryLen() {
		t.Errorf("expected window of %d turns, got %d", store.MaxHistoryLen(), len(backend.window))
	}
	if got := len(store.Get("user-1")); got != 2*store.MaxHistoryLen() {
		t.Errorf("expected retained history of %d, got %d", 2*store.MaxHistoryLen(), got)
	}
}

func TestHandleTypingNotifierBestEffort(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("indicator down")}
	backend := &mockBackend{reply: "ok"}
	o, _ := newTestOrchestrator(backend, skills.NewRegistry(), WithTypingNotifier(notifier))

	reply := o.Handle(context.Background(), "user-1", "嗨")

	if notifier.calls != 1 {
		t.Errorf("expected notifier call, got %d", notifier.calls)
	}
	if reply != "ok" {
		t.Errorf("indicator failure must not affect the reply, got %q", reply)
	}
}

func TestHandleMissingHandlerIsDiagnostic(t *testing.T) {
	// Classifier selects the lottery skill but no handler is registered.
	o, _ := newTestOrchestrator(&mockBackend{}, skills.NewRegistry())
	reply := o.Handle(context.Background(), "user-1", "威力彩")
	if reply != SkillFailureReply {
		t.Errorf("expected diagnostic for unregistered skill, got %q", reply)
	}
}
