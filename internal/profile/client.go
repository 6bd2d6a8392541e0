package profile

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client calls the profile service over HTTP.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, retries int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: client, logger: logger}
}

func (c *Client) GetProfile(ctx context.Context, patientID, credential string) (*Profile, error) {
	var p Profile
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(credential).
		SetResult(&p).
		Get("/patients/" + url.PathEscape(patientID) + "/profile")
	if err != nil {
		c.logger.Error("Profile service call failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("profile service: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		c.logger.Error("Profile service returned error",
			zap.String("patient_id", patientID),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("profile service: unexpected status %d", resp.StatusCode())
	}

	if p.Email == "" {
		return nil, fmt.Errorf("profile service: profile for %s has no email", patientID)
	}
	return &p, nil
}
