package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type ticker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(
		WithVenue("binance"),
		WithBaseURL(srv.URL+"/"),
		WithTimeout(2*time.Second),
		WithHeader("Accept", "application/json"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetJSON_DecodesAndEscapesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "ETH USDT&x" {
			t.Errorf("symbol = %q", got)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3012.55"}`))
	})

	var out ticker
	resp, err := c.GetJSON(context.Background(), "/api/v3/ticker/price", &out, Query("symbol", "ETH USDT&x"), Label("endpoint", "ticker_price"))
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if resp.StatusCode != http.StatusOK || out.Price != "3012.55" {
		t.Errorf("resp = %d, out = %+v", resp.StatusCode, out)
	}
}

func TestGetJSON_StatusHandlerRunsBeforeDecode(t *testing.T) {
	venueErr := errors.New("invalid symbol")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	var gotStatus int
	var gotBody string
	_, err := c.GetJSON(context.Background(), "ticker", &ticker{}, OnStatus(func(status int, body []byte) error {
		gotStatus, gotBody = status, string(body)
		if status >= 400 {
			return venueErr
		}
		return nil
	}))
	if !errors.Is(err, venueErr) {
		t.Fatalf("err = %v, want the handler's error", err)
	}
	if gotStatus != http.StatusBadRequest || !strings.Contains(gotBody, "-1121") {
		t.Errorf("handler saw %d %q", gotStatus, gotBody)
	}
}

func TestGetJSON_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server_error_without_handler", status: http.StatusBadGateway, body: "upstream", wantErr: "unexpected status 502"},
		{name: "malformed_body", status: http.StatusOK, body: `{"price":`, wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetJSON(context.Background(), "ticker", &ticker{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetJSON_HonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.GetJSON(ctx, "ticker", nil); err == nil {
		t.Fatal("expected the cancelled call to fail")
	}
}
