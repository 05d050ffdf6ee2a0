package cardapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memory-match-server/game"
	"memory-match-server/gameerrors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestFetchCards(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/generate-cards" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"cards":[{"id":1,"name":"A","image_url":"a.png"},{"id":1,"name":"A","image_url":"a.png"}]}`)
	})

	cards, err := c.FetchCards(context.Background())
	if err != nil {
		t.Fatalf("FetchCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].ID != game.CardID("1") || cards[0].ImageURL != "a.png" {
		t.Errorf("unexpected card: %+v", cards[0])
	}
}

func TestFetchCards_MissingCards(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"nothing here"}`)
	})

	_, err := c.FetchCards(context.Background())
	if !errors.Is(err, gameerrors.ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
}

func TestFetchCards_EmptyCards(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"cards":[]}`)
	})

	_, err := c.FetchCards(context.Background())
	if !errors.Is(err, gameerrors.ErrNoCards) {
		t.Fatalf("expected ErrNoCards, got %v", err)
	}
}

func TestFetchCards_ServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchCards(context.Background())
	if !errors.Is(err, gameerrors.ErrFetchCards) {
		t.Fatalf("expected ErrFetchCards, got %v", err)
	}
}

func TestFetchCards_MalformedJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"cards":[`)
	})

	_, err := c.FetchCards(context.Background())
	if !errors.Is(err, gameerrors.ErrFetchCards) {
		t.Fatalf("expected ErrFetchCards, got %v", err)
	}
}

func TestFetchCards_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).FetchCards(context.Background())
	if !errors.Is(err, gameerrors.ErrFetchCards) {
		t.Fatalf("expected ErrFetchCards, got %v", err)
	}
}

func TestFetchHint(t *testing.T) {
	var got struct {
		GameState []map[string]interface{} `json:"game_state"`
	}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate-hint" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		io.WriteString(w, `{"hint":"Look at the top row."}`)
	})

	cards := []game.Card{
		{ID: "7", Name: "Fox", ImageURL: "fox.png"},
		{ID: "7", Name: "Fox", ImageURL: "fox.png"},
	}
	hint, err := c.FetchHint(context.Background(), cards)
	if err != nil {
		t.Fatalf("FetchHint: %v", err)
	}
	if hint != "Look at the top row." {
		t.Errorf("unexpected hint %q", hint)
	}
	if len(got.GameState) != 2 {
		t.Fatalf("expected 2 cards in game_state, got %d", len(got.GameState))
	}
	if got.GameState[0]["id"] != float64(7) || got.GameState[0]["image_url"] != "fox.png" {
		t.Errorf("unexpected card payload: %v", got.GameState[0])
	}
}

func TestFetchHint_Failure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := c.FetchHint(context.Background(), nil)
	if !errors.Is(err, gameerrors.ErrFetchHint) {
		t.Fatalf("expected ErrFetchHint, got %v", err)
	}
}

func TestFetchHint_MissingHint(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	_, err := c.FetchHint(context.Background(), nil)
	if !errors.Is(err, gameerrors.ErrFetchHint) {
		t.Fatalf("expected ErrFetchHint, got %v", err)
	}
}

func TestSetHeader(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("expected custom header, got %q", r.Header.Get("X-Api-Key"))
		}
		io.WriteString(w, `{"cards":[{"id":1},{"id":1}]}`)
	})
	c.SetHeader("X-Api-Key", "secret")

	if _, err := c.FetchCards(context.Background()); err != nil {
		t.Fatalf("FetchCards: %v", err)
	}
}

func TestFetchCards_CardWithoutID(t *testing.T) {
	for name, body := range map[string]string{
		"missing": `{"cards":[{"name":"A"},{"name":"A"}]}`,
		"null":    `{"cards":[{"id":null,"name":"A"},{"id":null,"name":"A"}]}`,
		"empty":   `{"cards":[{"id":"","name":"A"},{"id":"","name":"A"}]}`,
	} {
		body := body
		c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})

		_, err := c.FetchCards(context.Background())
		if !errors.Is(err, gameerrors.ErrFetchCards) {
			t.Errorf("%s id: expected ErrFetchCards, got %v", name, err)
		}
	}
}
