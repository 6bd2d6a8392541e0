package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client sends HTML email through the provider's REST API.
type Client struct {
	httpClient *resty.Client
	from       string
	logger     *zap.Logger
}

type Options struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
	Retries int
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, from: opts.From, logger: logger}
}

type sendEmailReq struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendEmailResp struct {
	ID string `json:"id"`
}

type apiError struct {
	Message string `json:"message"`
}

// Send delivers one message and returns the provider's message id.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if to == "" {
		return "", errors.New("mailer: empty recipient")
	}

	var result sendEmailResp
	var failure apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(sendEmailReq{From: c.from, To: []string{to}, Subject: subject, HTML: htmlBody}).
		SetResult(&result).
		SetError(&failure).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	if resp.IsError() {
		msg := failure.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", fmt.Errorf("mail api returned status: %s, message: %s", resp.Status(), msg)
	}

	c.logger.Debug("Email accepted",
		zap.String("to", to),
		zap.String("message_id", result.ID),
	)
	return result.ID, nil
}
