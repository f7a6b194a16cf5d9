package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/qs3c/medquiz_go_server/config"
)

var ErrGatewayDeclined = errors.New("payment gateway declined the request")

// Client Paystack 接口封装，仅用到 initialize / verify 两个端点
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

type InitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Transaction struct {
	Reference string                 `json:"reference"`
	Amount    int64                  `json:"amount"` // kobo
	Currency  string                 `json:"currency"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// envelope Paystack 所有响应的外层：{status, message, data}
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(cfg *config.PaystackConfig) *Client {
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Initialize 发起交易，返回授权跳转地址
func (c *Client) Initialize(ctx context.Context, email string, amountKobo int64, currency, reference, callbackURL string, metadata map[string]interface{}) (*InitResult, error) {
	payload := map[string]interface{}{
		"email":        email,
		"amount":       amountKobo,
		"currency":     currency,
		"reference":    reference,
		"callback_url": callbackURL,
		"metadata":     metadata,
	}

	var result InitResult
	if err := c.post(ctx, "/transaction/initialize", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify 校验交易。调用方需自行检查 Transaction.Status 是否为 success
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	var tx Transaction
	if err := c.get(ctx, "/transaction/verify/"+reference, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode paystack response: %w", err)
	}

	if !env.Status {
		if env.Message != "" {
			return fmt.Errorf("%w: %s", ErrGatewayDeclined, env.Message)
		}
		return ErrGatewayDeclined
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode paystack data: %w", err)
		}
	}
	return nil
}
