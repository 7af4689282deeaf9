package line

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"SignalWatch/internal/domain"
	drepo "SignalWatch/internal/domain/repository"
	xhttp "SignalWatch/pkg/http"
	applogger "SignalWatch/pkg/logger"
)

const (
	DefaultEndpoint = "https://api.line.me/v2/bot/message/push"

	EnvChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvUserID             = "LINE_USER_ID"
)

// Client pushes text messages to a single LINE user.
type Client struct {
	endpoint string
	token    string
	userID   string
	client   *xhttp.Client
	logger   *applogger.Logger
	getenv   func(string) string
}

type Option func(*Client)

// WithCredentials sets fallback credentials used when the environment has none.
func WithCredentials(token, userID string) Option {
	return func(c *Client) {
		c.token = token
		c.userID = userID
	}
}

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithEnv replaces os.Getenv.
func WithEnv(getenv func(string) string) Option {
	return func(c *Client) {
		c.getenv = getenv
	}
}

func NewClient(l *applogger.Logger, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		endpoint: DefaultEndpoint,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:   l,
		getenv:   os.Getenv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type apiError struct {
	Message string        `json:"message"`
	Details []interface{} `json:"details"`
}

// Configured reports whether both credentials resolve right now.
func (c *Client) Configured() bool {
	token, user := c.credentials()
	return token != "" && user != ""
}

// credentials are read per call so rotated secrets apply without a restart.
func (c *Client) credentials() (string, string) {
	token := c.getenv(EnvChannelAccessToken)
	if token == "" {
		token = c.token
	}
	user := c.getenv(EnvUserID)
	if user == "" {
		user = c.userID
	}
	return token, user
}

// Send makes one push call. Missing credentials yield domain.ErrConfiguration without
// any network traffic; every other failure yields domain.ErrDelivery.
func (c *Client) Send(ctx context.Context, text string) error {
	token, user := c.credentials()
	if token == "" || user == "" {
		c.logger.Error("line credentials missing",
			applogger.Bool("token_set", token != ""),
			applogger.Bool("user_set", user != ""),
		)
		return fmt.Errorf("%w: %s or %s not set", domain.ErrConfiguration, EnvChannelAccessToken, EnvUserID)
	}

	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
		},
		Body: pushRequest{
			To:       user,
			Messages: []textMessage{{Type: "text", Text: text}},
		},
	}, nil)
	if err == nil {
		c.logger.Info("line message sent")
		return nil
	}

	if se, ok := xhttp.AsStatusError(err); ok {
		var body apiError
		_ = se.DecodeBody(&body)
		c.logger.Error("line push rejected",
			applogger.Int("status", se.StatusCode),
			applogger.String("message", body.Message),
			applogger.Any("details", body.Details),
		)
		return fmt.Errorf("%w: status %d: %s", domain.ErrDelivery, se.StatusCode, body.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Error("line push timed out", applogger.Error(err))
	} else {
		c.logger.Error("line push failed", applogger.Error(err))
	}
	return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
}

var _ drepo.Notifier = (*Client)(nil)
