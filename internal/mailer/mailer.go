// Package mailer sends transactional email through a template-based HTTP
// provider. The provider renders the template; we only send the alias and
// its data.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Message struct {
	To       string               `json:"to"`
	Subject  string               `json:"subject"`
	Template domain.EmailTemplate `json:"template"`
	Data     map[string]any       `json:"data"`
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" || !strings.Contains(m.To, "@") {
		return domain.ValidationError("A valid recipient is required", map[string]any{"field": "to"})
	}
	if strings.TrimSpace(m.Subject) == "" {
		return domain.ValidationError("Subject is required", map[string]any{"field": "subject"})
	}
	if _, err := domain.ParseEmailTemplate(string(m.Template)); err != nil {
		return err
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type Config struct {
	Endpoint string
	APIKey   string
	From     string
	Timeout  time.Duration
}

type HTTPMailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHTTP(cfg Config, logger *zap.Logger, m *metrics.Metrics) (*HTTPMailer, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("mail provider url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		from:     strings.TrimSpace(cfg.From),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		metrics:  m,
	}, nil
}

type providerRequest struct {
	From          string         `json:"From"`
	To            string         `json:"To"`
	Subject       string         `json:"Subject"`
	TemplateAlias string         `json:"TemplateAlias"`
	TemplateModel map[string]any `json:"TemplateModel"`
}

type providerResponse struct {
	MessageID string `json:"MessageID"`
	Message   string `json:"Message"`
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	data := msg.Data
	if data == nil {
		data = map[string]any{}
	}
	body, err := json.Marshal(providerRequest{
		From:          m.from,
		To:            strings.TrimSpace(msg.To),
		Subject:       msg.Subject,
		TemplateAlias: string(msg.Template),
		TemplateModel: data,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("X-Server-Token", m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.metrics.EmailResult(string(msg.Template), "error")
		return "", domain.UpstreamFailure("Failed to reach mail provider", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var parsed providerResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.metrics.EmailResult(string(msg.Template), "error")
		reason := strings.TrimSpace(parsed.Message)
		if reason == "" {
			reason = strings.TrimSpace(string(raw))
		}
		return "", domain.UpstreamFailure("Mail provider rejected message", fmt.Errorf("status %d: %s", resp.StatusCode, reason))
	}

	messageID := parsed.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}
	m.metrics.EmailResult(string(msg.Template), "sent")
	m.logger.Info("email sent",
		zap.String("template", string(msg.Template)),
		zap.String("messageId", messageID),
	)
	return messageID, nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewLog(logger *zap.Logger, m *metrics.Metrics) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger, metrics: m}
}

func (l *LogMailer) Send(_ context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	messageID := uuid.NewString()
	l.metrics.EmailResult(string(msg.Template), "logged")
	l.logger.Info("email not sent (log mailer)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", string(msg.Template)),
		zap.Any("data", msg.Data),
		zap.String("messageId", messageID),
	)
	return messageID, nil
}
