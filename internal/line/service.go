// Package line adapts the LINE Messaging API: webhook parsing with signature
// verification, reply delivery, the chat loading indicator, and member-join
// welcome lookups.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// DefaultEndpointBase is the LINE Messaging API origin.
const DefaultEndpointBase = "https://api.line.me"

// ErrInvalidSignature reports a webhook payload that failed the channel
// secret check.
var ErrInvalidSignature = linebot.ErrInvalidSignature

// Service wraps the LINE SDK client.
type Service struct {
	client       *linebot.Client
	httpClient   *http.Client
	endpointBase string
	channelToken string
}

// Option configures a Service.
type Option func(*serviceOpts)

type serviceOpts struct {
	channelSecret string
	channelToken  string
	endpointBase  string
	httpClient    *http.Client
}

// WithChannelSecret sets the webhook signing secret.
func WithChannelSecret(secret string) Option {
	return func(o *serviceOpts) { o.channelSecret = secret }
}

// WithChannelToken sets the Messaging API access token.
func WithChannelToken(token string) Option {
	return func(o *serviceOpts) { o.channelToken = token }
}

// WithEndpointBase overrides the API origin (used by tests).
func WithEndpointBase(u string) Option {
	return func(o *serviceOpts) { o.endpointBase = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *serviceOpts) { o.httpClient = c }
}

// NewService creates a LINE service from channel credentials.
func NewService(opts ...Option) (*Service, error) {
	cfg := serviceOpts{
		endpointBase: DefaultEndpointBase,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.channelSecret == "" {
		return nil, errors.New("LINE channel secret not set")
	}
	if cfg.channelToken == "" {
		return nil, errors.New("LINE channel token not set")
	}

	client, err := linebot.New(cfg.channelSecret, cfg.channelToken,
		linebot.WithHTTPClient(cfg.httpClient),
		linebot.WithEndpointBase(cfg.endpointBase))
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE client: %w", err)
	}
	return &Service{
		client:       client,
		httpClient:   cfg.httpClient,
		endpointBase: cfg.endpointBase,
		channelToken: cfg.channelToken,
	}, nil
}

// ParseEvents verifies the webhook signature and returns the decoded events.
// Invalid signatures surface as ErrInvalidSignature.
func (s *Service) ParseEvents(r *http.Request) ([]*linebot.Event, error) {
	return s.client.ParseRequest(r)
}

// Reply delivers text through the event's reply token.
func (s *Service) Reply(ctx context.Context, replyToken, text string) error {
	_, err := s.client.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	if err != nil {
		return fmt.Errorf("reply delivery failed: %w", err)
	}
	return nil
}

// SendLoading starts the chat loading indicator. The API accepts 5-second
// steps between 5 and 60; out-of-range values are clamped.
func (s *Service) SendLoading(ctx context.Context, chatID string, seconds int) error {
	if seconds < 5 {
		seconds = 5
	}
	if seconds > 60 {
		seconds = 60
	}
	seconds -= seconds % 5

	payload, err := json.Marshal(map[string]interface{}{
		"chatId":         chatID,
		"loadingSeconds": seconds,
	})
	if err != nil {
		return fmt.Errorf("marshal loading payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpointBase+"/v2/bot/chat/loading/start", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build loading request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.channelToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("loading request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("loading request returned status %d", resp.StatusCode)
	}
	return nil
}

// WelcomeText builds the greeting for a member who joined a group, using the
// member's display name when the profile is readable.
func (s *Service) WelcomeText(ctx context.Context, groupID, userID string) string {
	profile, err := s.client.GetGroupMemberProfile(groupID, userID).WithContext(ctx).Do()
	if err != nil {
		slog.Warn("Service.WelcomeText: profile lookup failed", "groupID", groupID, "userID", userID, "error", err)
		return "歡迎加入"
	}
	return fmt.Sprintf("%s歡迎加入", profile.DisplayName)
}

// ChatID resolves the stable history key for an event source: the group or
// room id for multi-party chats, otherwise the user id.
func ChatID(source *linebot.EventSource) string {
	if source == nil {
		return ""
	}
	switch {
	case source.GroupID != "":
		return source.GroupID
	case source.RoomID != "":
		return source.RoomID
	default:
		return source.UserID
	}
}
