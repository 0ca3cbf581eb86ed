// Package cbu получает курс USD/UZS из API Центрального банка Узбекистана.
package cbu

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// rateEntry — элемент ответа API ЦБ
type rateEntry struct {
	Ccy  string `json:"Ccy"`
	Rate string `json:"Rate"`
}

type Client struct {
	http *resty.Client
	url  string
}

func NewClient(apiURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(5 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		url: apiURL,
	}
}

// FetchUSDRate запрашивает актуальный курс USD. Разделителем дробной
// части в ответе ЦБ бывает запятая.
func (c *Client) FetchUSDRate(ctx context.Context) (float64, error) {
	var entries []rateEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&entries).
		Get(c.url)
	if err != nil {
		return 0, fmt.Errorf("cbu request failed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("cbu responded with status %d", resp.StatusCode())
	}

	for _, entry := range entries {
		if entry.Ccy != "USD" {
			continue
		}
		rate, err := strconv.ParseFloat(strings.ReplaceAll(entry.Rate, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("cbu rate is not a number: %q", entry.Rate)
		}
		return rate, nil
	}

	return 0, fmt.Errorf("USD rate not found in cbu response")
}
