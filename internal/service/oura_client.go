package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"runsight_backend/internal/config"
)

// OuraClient Oura Ring API v2 客户端，个人访问令牌鉴权
type OuraClient struct {
	config     config.OuraConfig
	HTTPClient *http.Client
}

func NewOuraClient(cfg config.OuraConfig) *OuraClient {
	return &OuraClient{
		config:     cfg,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OuraClient) Configured() bool {
	return c.config.AccessToken != ""
}

// OuraDailyScore daily_sleep / daily_readiness 条目的公共形状
type OuraDailyScore struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Score *int   `json:"score"`
}

type ouraListResponse struct {
	Data      []OuraDailyScore `json:"data"`
	NextToken *string          `json:"next_token"`
}

func (c *OuraClient) fetchDailyScores(ctx context.Context, endpoint, startDay, endDay string) ([]OuraDailyScore, error) {
	var all []OuraDailyScore
	nextToken := ""

	for {
		q := url.Values{}
		q.Set("start_date", startDay)
		q.Set("end_date", endDay)
		if nextToken != "" {
			q.Set("next_token", nextToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.config.BaseURL+"/v2/usercollection/"+endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("oura %s request failed: %d %s", endpoint, resp.StatusCode, string(body))
		}

		var page ouraListResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		all = append(all, page.Data...)
		if page.NextToken == nil || *page.NextToken == "" {
			break
		}
		nextToken = *page.NextToken
	}

	return all, nil
}

// DailySleep [startDay, endDay] 的每日睡眠评分
func (c *OuraClient) DailySleep(ctx context.Context, startDay, endDay string) ([]OuraDailyScore, error) {
	return c.fetchDailyScores(ctx, "daily_sleep", startDay, endDay)
}

// DailyReadiness [startDay, endDay] 的每日准备度评分
func (c *OuraClient) DailyReadiness(ctx context.Context, startDay, endDay string) ([]OuraDailyScore, error) {
	return c.fetchDailyScores(ctx, "daily_readiness", startDay, endDay)
}
