package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/dispatch"
	"github.com/xdg/consolex/internal/executor"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/server"
	"github.com/xdg/consolex/internal/testutil"
	"github.com/xdg/consolex/internal/version"
)

func init() {
	clog.Discard()
}

// startServer runs a real-executor server and returns a client for it.
func startServer(t *testing.T) (*Client, *procreg.Registry) {
	t.Helper()
	reg := procreg.New(procreg.WithStats(nil))
	s := server.New("127.0.0.1:0", dispatch.New(executor.NewRealExecutor(), reg, nil), reg, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})

	c := New(s.ListenAddr())
	c.HTTPClient = testutil.NoProxyClient()
	return c, reg
}

func TestNew_BaseURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:8000", "http://127.0.0.1:8000"},
		{"http://localhost:9000/", "http://localhost:9000"},
		{"https://host.example", "https://host.example"},
	}
	for _, tt := range tests {
		if got := New(tt.addr).BaseURL; got != tt.want {
			t.Errorf("New(%q).BaseURL = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestClient_Health(t *testing.T) {
	c, _ := startServer(t)

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if status != server.StatusMessage {
		t.Errorf("Health() = %q, want %q", status, server.StatusMessage)
	}
}

func TestClient_RunShell(t *testing.T) {
	c, _ := startServer(t)

	res, err := c.Run(context.Background(), "shell", []string{"sh", "-c", "echo out; echo err >&2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Errorf("Run() = %q/%q, want out/err", res.Stdout, res.Stderr)
	}
}

func TestClient_RunOpenAndSignal(t *testing.T) {
	testutil.RequireBinary(t, "sleep")
	c, reg := startServer(t)
	ctx := context.Background()

	res, err := c.Run(ctx, "open", []string{"sleep", "30"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != "started" || res.ProcessID == "" {
		t.Fatalf("Run() = %+v, want started with an ID", res)
	}

	list, err := c.ListProcesses(ctx)
	if err != nil {
		t.Fatalf("ListProcesses() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != res.ProcessID {
		t.Fatalf("ListProcesses() = %+v", list)
	}

	if _, err := c.Signal(ctx, res.ProcessID, "KILL"); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	select {
	case <-reg.Done(res.ProcessID):
	case <-time.After(10 * time.Second):
		t.Fatal("killed process was not reaped")
	}

	info, err := c.GetProcess(ctx, res.ProcessID)
	if err != nil {
		t.Fatalf("GetProcess() error = %v", err)
	}
	if info.State != procreg.StateExited {
		t.Errorf("State = %q, want exited", info.State)
	}

	_, err = c.Signal(ctx, res.ProcessID, "TERM")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("Signal() after exit error = %v, want 409 APIError", err)
	}
}

func TestClient_Errors(t *testing.T) {
	c, _ := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		status int
		detail string
	}{
		{
			name:   "unknown action",
			call:   func() error { _, err := c.Run(ctx, "bogus", []string{"ls"}); return err },
			status: http.StatusBadRequest,
			detail: server.DetailUnknownAction,
		},
		{
			name:   "missing binary",
			call:   func() error { _, err := c.Run(ctx, "shell", []string{"/nonexistent-binary"}); return err },
			status: http.StatusInternalServerError,
		},
		{
			name:   "unknown process",
			call:   func() error { _, err := c.GetProcess(ctx, "nope"); return err },
			status: http.StatusNotFound,
			detail: server.DetailProcessNotFound,
		},
		{
			name:   "unknown signal",
			call:   func() error { _, err := c.Signal(ctx, "nope", "SEGV"); return err },
			status: http.StatusBadRequest,
			detail: server.DetailUnknownSignal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail == "" {
				t.Error("Detail is empty")
			}
			if tt.detail != "" && apiErr.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.detail)
			}
		})
	}
}

func TestClient_SendsUserAgent(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := New(ts.URL)
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if got != version.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", got, version.UserAgent())
	}
}

func TestClient_EscapesProcessID(t *testing.T) {
	var gotGet, gotSignal string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processes/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotGet = r.PathValue("id")
		_, _ = w.Write([]byte(`{"id":"x"}`))
	})
	mux.HandleFunc("POST /processes/{id}/signal", func(w http.ResponseWriter, r *http.Request) {
		gotSignal = r.PathValue("id")
		_, _ = w.Write([]byte(`{"id":"x"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL)
	for _, id := range []string{"ab/cd", "ab?x=1", "ab#frag", "a b"} {
		gotGet, gotSignal = "", ""
		if _, err := c.GetProcess(context.Background(), id); err != nil {
			t.Errorf("GetProcess(%q) error = %v", id, err)
		}
		if gotGet != id {
			t.Errorf("GetProcess(%q) reached id %q", id, gotGet)
		}
		if _, err := c.Signal(context.Background(), id, "TERM"); err != nil {
			t.Errorf("Signal(%q) error = %v", id, err)
		}
		if gotSignal != id {
			t.Errorf("Signal(%q) reached id %q", id, gotSignal)
		}
	}
}

func TestAPIError_NonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Error() != "status 502" {
		t.Errorf("APIError = %+v (%q)", apiErr, apiErr.Error())
	}
}
