package wsconn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

func tickerServer(t *testing.T, handler func(n int32, conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		handler(conns.Add(1), conn)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// drain keeps the server side open until the client goes away.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			return
		}
	}
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "binance")
	cfg.PingInterval = 0
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	return cfg
}

func TestNew_RejectsEmptyURL(t *testing.T) {
	_, err := New(Config{Name: "binance"})
	if !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Fatalf("got %v, want %s", err, apperror.CodeConfigurationError)
	}
}

func TestClient_ConnectReportsStates(t *testing.T) {
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) { drain(conn) })

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	var mu sync.Mutex
	var states []State
	client.OnStateChange(func(s State, _ error) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsConnected() {
		t.Fatalf("state = %s, want connected", client.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[0] != StateConnecting || states[1] != StateConnected {
		t.Errorf("states = %v, want [connecting connected ...]", states)
	}
}

func TestClient_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	if !apperror.HasCode(err, apperror.CodeWebSocketConnectionError) {
		t.Fatalf("got %v, want %s", err, apperror.CodeWebSocketConnectionError)
	}
	if client.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", client.State())
	}
}

func TestClient_ConnectWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	cfg := testConfig(url)
	cfg.MaxReconnects = 2
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.ConnectWithRetry(ctx); err == nil {
		t.Fatal("expected ConnectWithRetry to fail against a closed port")
	}
}

func TestClient_SubscribeFrameIsJSON(t *testing.T) {
	got := make(chan []byte, 1)
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) {
		_, data, err := conn.Read(context.Background())
		if err == nil {
			got <- data
		}
		drain(conn)
	})

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sub := map[string]any{"method": "SUBSCRIBE", "params": []string{"ethusdt@miniTicker"}, "id": 1}
	if err := client.SendJSON(ctx, sub); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case data := <-got:
		var parsed struct {
			Method string   `json:"method"`
			Params []string `json:"params"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("frame is not JSON: %v (%s)", err, data)
		}
		if parsed.Method != "SUBSCRIBE" || len(parsed.Params) != 1 || parsed.Params[0] != "ethusdt@miniTicker" {
			t.Errorf("frame = %+v", parsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the subscribe frame")
	}
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	_, url := tickerServer(t, func(n int32, conn *websocket.Conn) {
		frame := fmt.Sprintf(`{"e":"24hrMiniTicker","s":"ETHUSDT","c":"%d"}`, 3000+n)
		if err := conn.Write(context.Background(), websocket.MessageText, []byte(frame)); err != nil {
			return
		}
		if n == 1 {
			return
		}
		drain(conn)
	})

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	frames := make(chan string, 4)
	client.OnMessage(func(_ context.Context, msg []byte) { frames <- string(msg) })

	var reconnecting atomic.Bool
	client.OnStateChange(func(s State, _ error) {
		if s == StateReconnecting {
			reconnecting.Store(true)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	want := []string{`"c":"3001"`, `"c":"3002"`}
	for _, w := range want {
		select {
		case f := <-frames:
			if !strings.Contains(f, w) {
				t.Errorf("frame = %s, want it to contain %s", f, w)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for frame with %s", w)
		}
	}
	if !reconnecting.Load() {
		t.Error("expected a reconnecting transition")
	}
}

func TestClient_NoReconnectWhenDisabled(t *testing.T) {
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) {})

	cfg := testConfig(url)
	cfg.AutoReconnect = false
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	down := make(chan struct{}, 1)
	client.OnStateChange(func(s State, _ error) {
		if s == StateDisconnected {
			select {
			case down <- struct{}{}:
			default:
			}
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-down:
	case <-time.After(2 * time.Second):
		t.Fatalf("state = %s, want disconnected", client.State())
	}
}

func TestClient_OversizedFrameDropsConnection(t *testing.T) {
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) {
		big := `{"e":"24hrMiniTicker","pad":"` + strings.Repeat("x", 4096) + `"}`
		conn.Write(context.Background(), websocket.MessageText, []byte(big))
		drain(conn)
	})

	cfg := testConfig(url)
	cfg.AutoReconnect = false
	cfg.MaxMessageSize = 256
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	var delivered atomic.Int32
	client.OnMessage(func(context.Context, []byte) { delivered.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for client.IsConnected() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if client.IsConnected() {
		t.Fatal("client kept a connection that sent an oversized frame")
	}
	if n := delivered.Load(); n != 0 {
		t.Errorf("delivered %d oversized frames", n)
	}
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) { drain(conn) })

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if client.State() != StateClosed {
		t.Errorf("state = %s, want closed", client.State())
	}

	if err := client.Send(ctx, []byte(`{}`)); !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("Send after Close = %v, want %s", err, apperror.CodeWebSocketClosed)
	}
	if err := client.Connect(ctx); !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("Connect after Close = %v, want %s", err, apperror.CodeWebSocketClosed)
	}
}

func TestClient_ConcurrentSends(t *testing.T) {
	var received atomic.Int32
	_, url := tickerServer(t, func(_ int32, conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(context.Background()); err != nil {
				return
			}
			received.Add(1)
		}
	})

	client, err := New(testConfig(url))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	const senders, each = 8, 5
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < each; j++ {
				if err := client.SendJSON(ctx, map[string]int{"id": id*each + j}); err != nil {
					t.Errorf("SendJSON: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for received.Load() < senders*each && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := received.Load(); got != senders*each {
		t.Errorf("server received %d frames, want %d", got, senders*each)
	}
}
