package cardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"memory-match-server/game"
	"memory-match-server/gameerrors"
)

const (
	cardsEndpoint = "/generate-cards"
	hintEndpoint  = "/generate-hint"

	// maxBodyBytes caps responses read from the card service.
	maxBodyBytes = 1 << 20
)

// Client talks to the card service.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// Ensure *Client implements game.CardSource at compile time.
var _ game.CardSource = (*Client)(nil)

// New returns a client for baseURL. A non-positive timeout disables it.
func New(baseURL string, timeout time.Duration) *Client {
	c := &http.Client{}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  c,
		headers: make(map[string]string),
	}
}

// SetHeader adds a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

type cardsResponse struct {
	Cards []game.Card `json:"cards"`
}

type hintRequest struct {
	GameState []game.Card `json:"game_state"`
}

type hintResponse struct {
	Hint *string `json:"hint"`
}

// FetchCards requests a card set. A missing or empty cards field yields
// gameerrors.ErrNoCards; transport, status and decode failures, and cards
// without an id, wrap gameerrors.ErrFetchCards.
func (c *Client) FetchCards(ctx context.Context) ([]game.Card, error) {
	body, err := c.do(ctx, http.MethodGet, cardsEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gameerrors.ErrFetchCards, err)
	}
	var resp cardsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", gameerrors.ErrFetchCards, err)
	}
	if len(resp.Cards) == 0 {
		return nil, gameerrors.ErrNoCards
	}
	for i, card := range resp.Cards {
		if card.ID.Empty() {
			return nil, fmt.Errorf("%w: card %d has no id", gameerrors.ErrFetchCards, i)
		}
	}
	return resp.Cards, nil
}

// FetchHint sends the card collection as game state and returns the hint text.
func (c *Client) FetchHint(ctx context.Context, cards []game.Card) (string, error) {
	if cards == nil {
		cards = []game.Card{}
	}
	payload, err := json.Marshal(hintRequest{GameState: cards})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %w", gameerrors.ErrFetchHint, err)
	}
	body, err := c.do(ctx, http.MethodPost, hintEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %w", gameerrors.ErrFetchHint, err)
	}
	var resp hintResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", gameerrors.ErrFetchHint, err)
	}
	if resp.Hint == nil {
		return "", fmt.Errorf("%w: response has no hint", gameerrors.ErrFetchHint)
	}
	return *resp.Hint, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}
	return responseBody, nil
}
