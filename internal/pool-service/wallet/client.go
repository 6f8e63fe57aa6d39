package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/tbessa/game-wager-platform-poc/internal/pool-service/wallet/dto"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Reserve bloqueia o stake na carteira do usuário (external_ref = betID)
func (c *Client) Reserve(ctx context.Context, userID string, lamports int64, externalRef string) (string, error) {
	body, _ := json.Marshal(walletdto.ReserveRequest{UserID: userID, AmountLamports: lamports, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/reserve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("wallet reserve http %d", res.StatusCode)
	}
	var out walletdto.ReserveResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ReservationID, nil
}

// Commit efetiva a reserva após a liquidação marcar a aposta como perdida
func (c *Client) Commit(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/commit", map[string]any{
		"userId":       userID,
		"external_ref": externalRef,
	})
}

// Refund devolve a reserva (aposta reembolsada)
func (c *Client) Refund(ctx context.Context, userID, externalRef string) error {
	return c.post(ctx, "/wallet/refund", map[string]any{
		"userId":       userID,
		"external_ref": externalRef,
	})
}

// Credit credita um prêmio de liquidação na carteira (idempotente por external_ref)
func (c *Client) Credit(ctx context.Context, userID string, lamports int64, externalRef string) error {
	return c.post(ctx, "/wallet/credit", map[string]any{
		"userId":          userID,
		"amount_lamports": lamports,
		"external_ref":    externalRef,
	})
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) error {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet %s http %d", path, res.StatusCode)
	}
	return nil
}
