package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"runsight_backend/internal/config"
)

const stravaPageSize = 100

// StravaClient Strava API v3 客户端，走 refresh token 换 access token 流程
type StravaClient struct {
	config     config.StravaConfig
	HTTPClient *http.Client

	accessToken string
	tokenExpiry time.Time
}

func NewStravaClient(cfg config.StravaConfig) *StravaClient {
	return &StravaClient{
		config:     cfg,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *StravaClient) Configured() bool {
	return c.config.ClientID != "" && c.config.ClientSecret != "" && c.config.RefreshToken != ""
}

type stravaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// StravaActivity /athlete/activities 返回的活动摘要（只取需要的字段）
type StravaActivity struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	SportType      string  `json:"sport_type"`
	Distance       float64 `json:"distance"` // 米
	MovingTime     int     `json:"moving_time"`
	StartDate      string  `json:"start_date"`
	StartDateLocal string  `json:"start_date_local"`
}

func (c *StravaClient) ensureToken(ctx context.Context) error {
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return nil
	}

	form := url.Values{}
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.config.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("strava token exchange failed: %d %s", resp.StatusCode, string(body))
	}

	var token stravaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return err
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Unix(token.ExpiresAt, 0)
	return nil
}

// ActivitiesAfter 拉取 after（unix 秒）之后的全部活动，自动翻页
func (c *StravaClient) ActivitiesAfter(ctx context.Context, after int64) ([]StravaActivity, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	var all []StravaActivity
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("after", strconv.FormatInt(after, 10))
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(stravaPageSize))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.config.BaseURL+"/api/v3/athlete/activities?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("strava activities request failed: %d %s", resp.StatusCode, string(body))
		}

		var batch []StravaActivity
		err = json.NewDecoder(resp.Body).Decode(&batch)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < stravaPageSize {
			break
		}
	}

	return all, nil
}
