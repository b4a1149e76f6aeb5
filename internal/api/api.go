// Package api provides the HTTP surface for the chat service.
//
// It exposes the LINE webhook callback and a liveness endpoint, and wires the
// intent, conversation, skill, and GenAI modules together at startup.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/hsinyulin/finchat/internal/convo"
	"github.com/hsinyulin/finchat/internal/dialogue"
	"github.com/hsinyulin/finchat/internal/genai"
	"github.com/hsinyulin/finchat/internal/intent"
	"github.com/hsinyulin/finchat/internal/jobs"
	"github.com/hsinyulin/finchat/internal/line"
	"github.com/hsinyulin/finchat/internal/lottery"
	"github.com/hsinyulin/finchat/internal/marketdata"
	"github.com/hsinyulin/finchat/internal/models"
	"github.com/hsinyulin/finchat/internal/skills"
)

// DefaultAddr is the default API server listen address.
const DefaultAddr = ":8080"

// chatService is the slice of the LINE adapter the server uses.
type chatService interface {
	ParseEvents(r *http.Request) ([]*linebot.Event, error)
	Reply(ctx context.Context, replyToken, text string) error
	WelcomeText(ctx context.Context, groupID, userID string) string
}

// dialogueService turns an inbound chat message into a reply.
type dialogueService interface {
	Handle(ctx context.Context, chatID, text string) string
}

// Server handles webhook requests and owns the module wiring.
type Server struct {
	addr     string
	line     chatService
	dialogue dialogueService
}

// Opts holds configuration for the API server.
type Opts struct {
	Addr                string
	StrictStockMatching bool
	MaxHistoryLen       int
	RequestTimeout      int // seconds, 0 means the dialogue default
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithStrictStockMatching keeps bare ticker-shaped tokens out of the stock
// skill unless an explicit market prefix is present.
func WithStrictStockMatching() Option {
	return func(o *Opts) { o.StrictStockMatching = true }
}

// WithMaxHistoryLen sets the conversation window size.
func WithMaxHistoryLen(n int) Option {
	return func(o *Opts) { o.MaxHistoryLen = n }
}

// WithRequestTimeout sets the per-message handling deadline in seconds.
func WithRequestTimeout(seconds int) Option {
	return func(o *Opts) { o.RequestTimeout = seconds }
}

// NewServer creates a Server from already-constructed collaborators.
func NewServer(lineSvc chatService, dialogueSvc dialogueService, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{addr: cfg.Addr, line: lineSvc, dialogue: dialogueSvc}
}

// Run assembles all modules from their options and serves until the listener
// fails.
func Run(lineOpts []line.Option, genaiOpts []genai.Option, catalogOpts []marketdata.CatalogOption, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}

	lineSvc, err := line.NewService(lineOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize LINE service: %w", err)
	}

	genAI, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize GenAI client: %w", err)
	}

	var catalog *marketdata.Catalog
	if len(catalogOpts) > 0 {
		catalog, err = marketdata.NewCatalog(catalogOpts...)
		if err != nil {
			return fmt.Errorf("failed to initialize stock catalog: %w", err)
		}
		defer catalog.Close()
	} else {
		slog.Info("No catalog DSN configured, stock names fall back to ids")
	}

	quotes := marketdata.NewQuotes()
	fundamentals := marketdata.NewFundamentals(quotes)
	news := marketdata.NewNews()
	crypto := marketdata.NewCrypto()
	jobClient := jobs.NewClient()
	lotteryClient := lottery.NewClient()

	registry := skills.NewRegistry()
	registry.Register(models.SkillStock, skills.NewStock(genAI, quotes, fundamentals, news, catalog))
	registry.Register(models.SkillGold, skills.NewGold(genAI, quotes))
	registry.Register(models.SkillPlatinum, skills.NewPlatinum(genAI, quotes))
	registry.Register(models.SkillCurrency, skills.NewCurrency(genAI, quotes))
	registry.Register(models.SkillLottery, skills.NewLottery(lotteryClient))
	registry.Register(models.SkillJobSearch, skills.NewJobSearch(genAI, jobClient))
	registry.Register(models.SkillParttimeJob, skills.NewParttimeJob(genAI, jobClient))
	registry.Register(models.SkillCrypto, skills.NewCrypto(crypto))
	registry.Register(models.SkillCompanion, skills.NewCompanion(genAI))

	var convoOpts []convo.Option
	if cfg.MaxHistoryLen > 0 {
		convoOpts = append(convoOpts, convo.WithMaxHistoryLen(cfg.MaxHistoryLen))
	}
	store := convo.NewStore(convoOpts...)

	classifier := intent.NewClassifier(intent.Config{StrictStockMatching: cfg.StrictStockMatching})

	dialogueOpts := []dialogue.Option{dialogue.WithTypingNotifier(lineSvc)}
	if cfg.RequestTimeout > 0 {
		dialogueOpts = append(dialogueOpts, dialogue.WithRequestTimeout(time.Duration(cfg.RequestTimeout)*time.Second))
	}
	orchestrator := dialogue.NewOrchestrator(store, classifier, registry, genAI, dialogueOpts...)

	srv := NewServer(lineSvc, orchestrator, apiOpts...)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", srv.callbackHandler)
	mux.HandleFunc("/health", srv.healthHandler)

	slog.Info("API server listening", "addr", srv.addr)
	return http.ListenAndServe(srv.addr, mux)
}

// callbackHandler receives LINE webhook deliveries. The webhook is
// acknowledged as soon as the signature checks out; event handling continues
// in the background so LINE does not retry slow deliveries.
func (s *Server) callbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.callbackHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	events, err := s.line.ParseEvents(r)
	if err != nil {
		if err == line.ErrInvalidSignature {
			slog.Warn("Server.callbackHandler: invalid webhook signature")
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid signature"))
			return
		}
		slog.Error("Server.callbackHandler: failed to parse webhook", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Malformed webhook payload"))
		return
	}

	for _, event := range events {
		go s.handleEvent(event)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// handleEvent dispatches one webhook event. Every event gets its own id so
// concurrent deliveries can be told apart in the logs.
func (s *Server) handleEvent(event *linebot.Event) {
	eventID := uuid.NewString()
	ctx := context.Background()

	switch event.Type {
	case linebot.EventTypeMessage:
		s.handleMessageEvent(ctx, eventID, event)
	case linebot.EventTypeMemberJoined:
		s.handleMemberJoined(ctx, eventID, event)
	case linebot.EventTypePostback:
		data := ""
		if event.Postback != nil {
			data = event.Postback.Data
		}
		slog.Debug("Server.handleEvent: postback received", "event_id", eventID, "data", data)
	default:
		slog.Debug("Server.handleEvent: ignoring event type", "event_id", eventID, "type", event.Type)
	}
}

func (s *Server) handleMessageEvent(ctx context.Context, eventID string, event *linebot.Event) {
	textMessage, ok := event.Message.(*linebot.TextMessage)
	if !ok {
		slog.Debug("Server.handleMessageEvent: ignoring non-text message", "event_id", eventID)
		return
	}
	text := strings.TrimSpace(textMessage.Text)
	if text == "" {
		slog.Debug("Server.handleMessageEvent: ignoring empty message", "event_id", eventID)
		return
	}

	chatID := line.ChatID(event.Source)
	if chatID == "" {
		slog.Warn("Server.handleMessageEvent: event has no resolvable chat id", "event_id", eventID)
		return
	}

	slog.Info("Server.handleMessageEvent: processing message", "event_id", eventID, "chat_id", chatID)
	reply := s.dialogue.Handle(ctx, chatID, text)
	if err := s.line.Reply(ctx, event.ReplyToken, reply); err != nil {
		// Reply tokens are single use and short lived, retrying is pointless.
		slog.Error("Server.handleMessageEvent: reply delivery failed", "event_id", eventID, "chat_id", chatID, "error", err)
		return
	}
	slog.Debug("Server.handleMessageEvent: reply delivered", "event_id", eventID, "chat_id", chatID)
}

func (s *Server) handleMemberJoined(ctx context.Context, eventID string, event *linebot.Event) {
	if event.Source == nil || event.Source.GroupID == "" || event.Joined == nil {
		slog.Debug("Server.handleMemberJoined: event missing group or members", "event_id", eventID)
		return
	}

	greetings := make([]string, 0, len(event.Joined.Members))
	for _, member := range event.Joined.Members {
		greetings = append(greetings, s.line.WelcomeText(ctx, event.Source.GroupID, member.UserID))
	}
	if len(greetings) == 0 {
		return
	}
	if err := s.line.Reply(ctx, event.ReplyToken, strings.Join(greetings, "\n")); err != nil {
		slog.Error("Server.handleMemberJoined: welcome delivery failed", "event_id", eventID, "group_id", event.Source.GroupID, "error", err)
	}
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}
