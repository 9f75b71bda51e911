package influx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/tsgate/internal/infrastructure/config"
)

// testConfig returns an InfluxDB config pointed at the given test server.
func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		URL:            url,
		Token:          "test-token",
		Org:            "testorg",
		Bucket:         "testbucket",
		RequestTimeout: 5,
		Lookback:       config.Duration(time.Hour),
		QueryLimit:     100,
		IDTag:          "sensor_id",
	}
}

// newInfluxStub starts a test server emulating the InfluxDB v2 API.
// The handler map is keyed by URL path; unlisted paths return 404.
// /ping always answers 204 so Connect succeeds.
func newInfluxStub(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	for path, handler := range handlers {
		mux.HandleFunc(path, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestConnect(t *testing.T) {
	server := newInfluxStub(t, nil)

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	url := server.URL
	server.Close()

	_, err := Connect(context.Background(), testConfig(url))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_MarksDisconnected(t *testing.T) {
	server := newInfluxStub(t, nil)

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := client.WritePoint(context.Background(), "m", nil, map[string]interface{}{"value": 1.0}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WritePoint after Close = %v, want ErrNotConnected", err)
	}
}

func TestWritePoint(t *testing.T) {
	var gotBody string
	var gotAuth string
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/write": func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.WritePoint(context.Background(), "temperature",
		map[string]string{"sensor_id": "s1"},
		map[string]interface{}{"value": 22.5},
	)
	if err != nil {
		t.Fatalf("WritePoint() error = %v", err)
	}

	if gotAuth != "Token test-token" {
		t.Errorf("Authorization = %q, want token auth", gotAuth)
	}
	if gotBody == "" {
		t.Fatal("no line protocol body received")
	}
	// Line protocol: measurement,tag=val field=val ts
	if want := "temperature,sensor_id=s1 value=22.5"; len(gotBody) < len(want) || gotBody[:len(want)] != want {
		t.Errorf("line protocol = %q, want prefix %q", gotBody, want)
	}
}

func TestWritePoint_UpstreamRejection(t *testing.T) {
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/write": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":"unprocessable entity","message":"field type conflict"}`))
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.WritePoint(context.Background(), "m", nil, map[string]interface{}{"value": 1.0})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", upstream.Status)
	}
}

func TestWritePoint_Timeout(t *testing.T) {
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/write": func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusNoContent)
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = client.WritePoint(ctx, "m", nil, map[string]interface{}{"value": 1.0})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable", err)
	}
}

func TestQueryRaw(t *testing.T) {
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/query": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("org") != "testorg" {
				t.Errorf("org = %q, want testorg", r.URL.Query().Get("org"))
			}
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(annotatedPayload))
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	raw, err := client.QueryRaw(context.Background(), `from(bucket: "testbucket") |> range(start: -1h)`)
	if err != nil {
		t.Fatalf("QueryRaw() error = %v", err)
	}

	records, err := ParseAnnotatedCSV(raw)
	if err != nil {
		t.Fatalf("ParseAnnotatedCSV() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestQueryRaw_UpstreamRejection(t *testing.T) {
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/query": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"compilation failed"}`))
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	_, err = client.QueryRaw(context.Background(), "bad flux")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", upstream.Status)
	}
}

func TestDeletePredicate(t *testing.T) {
	var gotPredicate string
	server := newInfluxStub(t, map[string]http.HandlerFunc{
		"/api/v2/delete": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Start     string `json:"start"`
				Stop      string `json:"stop"`
				Predicate string `json:"predicate"`
			}
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Errorf("invalid delete body: %v", err)
			}
			gotPredicate = body.Predicate
			w.WriteHeader(http.StatusNoContent)
		},
	})

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	start := time.Unix(0, 0).UTC()
	stop := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	predicate := `_measurement="sensor_data" AND sensor_id="s1"`

	if err := client.DeletePredicate(context.Background(), start, stop, predicate); err != nil {
		t.Fatalf("DeletePredicate() error = %v", err)
	}
	if gotPredicate != predicate {
		t.Errorf("predicate = %q, want %q", gotPredicate, predicate)
	}
}

func TestDeletePredicate_Unreachable(t *testing.T) {
	server := newInfluxStub(t, nil)

	client, err := Connect(context.Background(), testConfig(server.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()
	server.Close()

	// Reconnecting state is not modelled; mark connected to force the call.
	client.mu.Lock()
	client.connected = true
	client.mu.Unlock()

	err = client.DeletePredicate(context.Background(), time.Unix(0, 0), time.Now(), `sensor_id="s1"`)
	if err == nil {
		t.Fatal("expected error against closed server")
	}
}
