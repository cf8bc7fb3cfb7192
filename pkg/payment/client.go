// Package payment talks to the order-creation endpoint of the payment
// gateway backend.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"homeservices/pkg/logger"
)

var ErrNotConfigured = errors.New("payment gateway url not configured")

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	OK    bool            `json:"ok"`
	Order *Order          `json:"order"`
	Error json.RawMessage `json:"error"`
}

type Client struct {
	baseURL  string
	currency string
	http     *http.Client
	log      logger.ILogger
	now      func() time.Time
}

func New(baseURL, currency string, timeout time.Duration, log logger.ILogger) *Client {
	return &Client{
		baseURL:  baseURL,
		currency: currency,
		http:     &http.Client{Timeout: timeout},
		log:      log,
		now:      time.Now,
	}
}

// CreateOrder registers an order for amount in major units. The gateway
// expects minor units, so amount is multiplied by 100.
func (c *Client) CreateOrder(ctx context.Context, amount float64) (*Order, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, fmt.Errorf("invalid amount %v", amount)
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: c.currency,
		Receipt:  "rcpt_" + strconv.FormatInt(c.now().UnixMilli(), 10),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-order", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("create order request failed", logger.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode create order response (http %d): %w", resp.StatusCode, err)
	}
	if !out.OK || out.Order == nil {
		return nil, fmt.Errorf("order creation failed: %s", string(out.Error))
	}

	c.log.Info("payment order created", logger.String("order_id", out.Order.ID), logger.Int64("amount", out.Order.Amount))
	return out.Order, nil
}
