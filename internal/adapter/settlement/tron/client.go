// Package tron implements ports.SettlementClient over the TRON node HTTP
// API (TronGrid). Signing and broadcast happen node-side; this adapter only
// speaks JSON over HTTP.
package tron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/maksimkh34/KryptoBot/config"
	"github.com/maksimkh34/KryptoBot/pkg/apperror"
)

const (
	mainnetURL = "https://api.trongrid.io"
	nileURL    = "https://nile.trongrid.io"

	// freeBandwidthQuota is the daily free bandwidth the network grants an
	// account that has never consumed any.
	freeBandwidthQuota = 600
)

// Client talks to a TRON full node.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client for the configured network. cfg.NodeURL
// overrides the default endpoint for the network.
func NewClient(cfg config.TronConfig, log zerolog.Logger) (*Client, error) {
	base := cfg.NodeURL
	if base == "" {
		switch cfg.Network {
		case "mainnet":
			base = mainnetURL
		case "nile":
			base = nileURL
		default:
			return nil, fmt.Errorf("unsupported tron network %q", cfg.Network)
		}
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}, nil
}

// ValidateAddress reports whether address is well-formed on the network.
func (c *Client) ValidateAddress(ctx context.Context, address string) (bool, error) {
	var out struct {
		Result bool `json:"result"`
	}
	req := map[string]any{"address": address, "visible": true}
	if err := c.post(ctx, "/wallet/validateaddress", req, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

// Balance returns the live TRX balance of address. An account unknown to
// the network reports zero.
func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Balance int64 `json:"balance"` // SUN
	}
	req := map[string]any{"address": address, "visible": true}
	if err := c.post(ctx, "/wallet/getaccount", req, &out); err != nil {
		return decimal.Zero, err
	}
	return decimal.New(out.Balance, -6), nil
}

// Bandwidth returns the remaining free bandwidth of address. An account the
// node has no usage record for gets the full free quota.
func (c *Client) Bandwidth(ctx context.Context, address string) (int64, error) {
	var out struct {
		FreeNetUsed  int64 `json:"freeNetUsed"`
		FreeNetLimit int64 `json:"freeNetLimit"`
	}
	req := map[string]any{"address": address, "visible": true}
	if err := c.post(ctx, "/wallet/getaccountnet", req, &out); err != nil {
		return 0, err
	}
	limit := out.FreeNetLimit
	if limit == 0 {
		limit = freeBandwidthQuota
	}
	return limit - out.FreeNetUsed, nil
}

// Transfer signs and broadcasts a TRX transfer node-side, returning the
// transaction id.
func (c *Client) Transfer(ctx context.Context, secretKey, toAddress string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", apperror.ErrInvalidAmount(fmt.Sprintf("transfer amount must be positive, got %s", amount))
	}

	var out struct {
		Result struct {
			Result  bool   `json:"result"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"result"`
		Transaction struct {
			TxID string `json:"txID"`
		} `json:"transaction"`
	}
	req := map[string]any{
		"privateKey": secretKey,
		"toAddress":  toAddress,
		"amount":     amount.Shift(6).IntPart(), // SUN
		"visible":    true,
	}
	if err := c.post(ctx, "/wallet/easytransferbyprivate", req, &out); err != nil {
		return "", apperror.ErrSettlement(err)
	}
	if !out.Result.Result {
		return "", apperror.ErrSettlement(fmt.Errorf("broadcast rejected: %s %s", out.Result.Code, out.Result.Message))
	}

	c.log.Info().
		Str("txid", out.Transaction.TxID).
		Str("to", toAddress).
		Str("amount_trx", amount.String()).
		Msg("settlement transfer broadcast")

	return out.Transaction.TxID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", path, err)
	}
	return nil
}
