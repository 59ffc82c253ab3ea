package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xdg/consolex/internal/client"
	"github.com/xdg/consolex/internal/clog"
	"github.com/xdg/consolex/internal/config"
	"github.com/xdg/consolex/internal/dispatch"
	"github.com/xdg/consolex/internal/executor"
	"github.com/xdg/consolex/internal/procreg"
	"github.com/xdg/consolex/internal/prompt"
	"github.com/xdg/consolex/internal/server"
	"github.com/xdg/consolex/internal/term"
	"github.com/xdg/consolex/internal/testutil"
)

func init() {
	clog.Discard()
	newKillPrompter = func() prompt.Prompter { return nil }
}

// resetFlags restores every package-level flag variable, since rootCmd is
// shared between tests.
func resetFlags() {
	addrFlag = ""
	silentFlag = false
	noColorFlag = false
	psAll = false
	psNoTrunc = false
	killSignal = "TERM"
	serveListen = ""
	serveDebug = false
	serveConfig = ""
}

// executeRoot runs the CLI with args and returns captured stdout and stderr.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	term.SetOutput(&stdout)
	term.SetErrOutput(&stderr)
	t.Cleanup(term.Reset)

	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// startTestServer runs a daemon in-process and returns its address.
func startTestServer(t *testing.T) (string, *procreg.Registry) {
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
	return s.ListenAddr(), reg
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := executeRoot(t, "--help")
	if err != nil {
		t.Fatalf("root command --help returned error: %v", err)
	}

	for _, expected := range []string{"consolex", "Usage:", "Available Commands:", "serve", "run", "ps", "kill"} {
		if !strings.Contains(out, expected) {
			t.Errorf("help output missing expected string %q\nGot: %s", expected, out)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := executeRoot(t, "--version")
	if err != nil {
		t.Fatalf("root command --version returned error: %v", err)
	}
	if !strings.Contains(out, "consolex") {
		t.Errorf("version output missing 'consolex'\nGot: %s", out)
	}
}

func TestRun_Shell(t *testing.T) {
	testutil.IsolateHome(t)
	addr, _ := startTestServer(t)
	prev := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = prev })

	out, errOut, err := executeRoot(t, "--addr="+addr, "run", "shell", "--", "sh", "-c", "printf out; printf err >&2")
	if err != nil {
		t.Fatalf("run shell error = %v", err)
	}
	if out != "out" {
		t.Errorf("stdout = %q, want %q", out, "out")
	}
	if errOut != "err" {
		t.Errorf("stderr = %q, want %q", errOut, "err")
	}
}

func TestRun_Open(t *testing.T) {
	testutil.IsolateHome(t)
	addr, reg := startTestServer(t)

	out, _, err := executeRoot(t, "--addr="+addr, "run", "open", "--", "true")
	if err != nil {
		t.Fatalf("run open error = %v", err)
	}
	if !strings.HasPrefix(out, "Started true (id ") {
		t.Errorf("output = %q", out)
	}
	if len(reg.List()) != 1 {
		t.Errorf("registry has %d processes, want 1", len(reg.List()))
	}
}

func TestRun_UnknownAction(t *testing.T) {
	testutil.IsolateHome(t)
	addr, _ := startTestServer(t)

	_, _, err := executeRoot(t, "--addr="+addr, "run", "bogus", "--", "ls")
	if err == nil || !strings.Contains(err.Error(), "Unknown action") {
		t.Errorf("error = %v, want Unknown action", err)
	}
}

func TestRun_DaemonUnreachable(t *testing.T) {
	testutil.IsolateHome(t)

	_, _, err := executeRoot(t, "--addr=127.0.0.1:1", "run", "shell", "--", "true")
	if err == nil || !strings.Contains(err.Error(), "cannot reach consolex") {
		t.Errorf("error = %v, want unreachable hint", err)
	}
}

func TestWriteCaptured(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		terminal bool
		want     string
	}{
		{"empty", "", true, ""},
		{"pipe keeps bytes", "a\nb", false, "a\nb"},
		{"terminal adds newline", "a\nb", true, "a\nb\n"},
		{"terminal keeps trailing newline", "a\n", true, "a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeCaptured(&buf, tt.output, tt.terminal)
			if buf.String() != tt.want {
				t.Errorf("writeCaptured() wrote %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPsAndKill(t *testing.T) {
	testutil.IsolateHome(t)
	testutil.RequireBinary(t, "sleep")
	addr, reg := startTestServer(t)

	out, _, err := executeRoot(t, "--addr="+addr, "ps")
	if err != nil {
		t.Fatalf("ps error = %v", err)
	}
	if !strings.Contains(out, "No processes.") {
		t.Errorf("ps output = %q, want empty message", out)
	}

	if _, _, err := executeRoot(t, "--addr="+addr, "run", "open", "--", "sleep", "30"); err != nil {
		t.Fatalf("run open error = %v", err)
	}
	id := reg.List()[0].ID

	out, _, err = executeRoot(t, "--addr="+addr, "ps")
	if err != nil {
		t.Fatalf("ps error = %v", err)
	}
	if !strings.Contains(out, id[:shortIDLen]) || !strings.Contains(out, "sleep 30") {
		t.Errorf("ps output = %q, want short id and command", out)
	}

	out, _, err = executeRoot(t, "--addr="+addr, "kill", "--signal", "KILL", id[:shortIDLen])
	if err != nil {
		t.Fatalf("kill error = %v", err)
	}
	if !strings.Contains(out, "Sent KILL to "+id) {
		t.Errorf("kill output = %q", out)
	}

	select {
	case <-reg.Done(id):
	case <-time.After(10 * time.Second):
		t.Fatal("killed process was not reaped")
	}

	out, _, _ = executeRoot(t, "--addr="+addr, "ps")
	if !strings.Contains(out, "No processes.") {
		t.Errorf("ps without --all = %q, want exited process hidden", out)
	}
	out, _, _ = executeRoot(t, "--addr="+addr, "ps", "--all")
	if !strings.Contains(out, "exited") {
		t.Errorf("ps --all = %q, want exited process", out)
	}
}

func TestKill_Errors(t *testing.T) {
	testutil.IsolateHome(t)
	addr, _ := startTestServer(t)

	if _, _, err := executeRoot(t, "--addr="+addr, "kill", "--signal", "SEGV", "abc"); err == nil {
		t.Error("kill with unsupported signal should fail")
	}
	_, _, err := executeRoot(t, "--addr="+addr, "kill", "zzzz")
	if err == nil || !strings.Contains(err.Error(), "no process matches") {
		t.Errorf("error = %v, want no match", err)
	}
}

func TestWriteProcessTable(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ended := start.Add(90 * time.Second)
	code := 3
	procs := []procreg.Info{
		{
			ID: "0123456789abcdef", PID: 100, Args: []string{"sleep", "300"},
			State: procreg.StateRunning, StartedAt: start,
			Stats: &procreg.Stats{RSSBytes: 2 * 1024 * 1024, CPUPercent: 1.25},
		},
		{
			ID: "fedcba9876543210", PID: 101, Args: []string{"sh", "-c", "exit 3"},
			State: procreg.StateExited, StartedAt: start, EndedAt: &ended, ExitCode: &code,
		},
	}

	var buf bytes.Buffer
	writeProcessTable(&buf, procs, start.Add(2*time.Hour), false)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}

	running := strings.Fields(lines[1])
	wantRunning := []string{"01234567", "100", "running", "-", "2.0M", "1.2%", "2h", "sleep", "300"}
	if strings.Join(running, " ") != strings.Join(wantRunning, " ") {
		t.Errorf("running row = %v, want %v", running, wantRunning)
	}

	exited := strings.Fields(lines[2])
	wantExited := []string{"fedcba98", "101", "exited", "3", "-", "-", "1m", "sh", "-c", "'exit", "3'"}
	if strings.Join(exited, " ") != strings.Join(wantExited, " ") {
		t.Errorf("exited row = %v, want %v", exited, wantExited)
	}

	buf.Reset()
	writeProcessTable(&buf, procs, start, true)
	if !strings.Contains(buf.String(), "0123456789abcdef") {
		t.Errorf("--no-trunc table lacks full ID:\n%s", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.0K"},
		{1536, "1.5K"},
		{5 * 1024 * 1024, "5.0M"},
		{3 * 1024 * 1024 * 1024, "3.0G"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{5*time.Minute + 10*time.Second, "5m"},
		{3 * time.Hour, "3h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{5 * time.Minute, "5 minutes"},
		{5*time.Minute + 3*time.Second, "5 minutes, 3 seconds"},
		{2*time.Hour + 15*time.Minute, "2 hours, 15 minutes"},
		{49 * time.Hour, "2 days, 1 hours"},
		{48 * time.Hour, "2 days"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStatus_NotRunning(t *testing.T) {
	testutil.IsolateHome(t)

	out, _, err := executeRoot(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "Status: not running") {
		t.Errorf("status output = %q", out)
	}
}

func TestStop_NotRunning(t *testing.T) {
	testutil.IsolateHome(t)

	_, _, err := executeRoot(t, "stop")
	if err == nil || !strings.Contains(err.Error(), "not running") {
		t.Errorf("stop error = %v, want not running", err)
	}
}

func TestConfigCommands(t *testing.T) {
	root := testutil.IsolateHome(t)

	out, _, err := executeRoot(t, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != config.Path() || !strings.HasPrefix(out, root) {
		t.Errorf("config path = %q, want %q", out, config.Path())
	}

	out, _, err = executeRoot(t, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, config.Path()) {
		t.Errorf("config init output = %q", out)
	}

	out, _, err = executeRoot(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, config.DefaultListen) {
		t.Errorf("config show output = %q, want default listen address", out)
	}
}

func TestResolveAddr(t *testing.T) {
	testutil.IsolateHome(t)
	resetFlags()

	if got := resolveAddr(); got != config.DefaultListen {
		t.Errorf("resolveAddr() = %q, want config default %q", got, config.DefaultListen)
	}
	if _, err := os.Stat(config.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("resolveAddr() created %s (stat err = %v)", config.Path(), err)
	}

	addrFlag = "10.0.0.1:9"
	t.Cleanup(resetFlags)
	if got := resolveAddr(); got != "10.0.0.1:9" {
		t.Errorf("resolveAddr() = %q, want --addr value", got)
	}
}

func TestNewRegistry_TrackingDisabled(t *testing.T) {
	track := false
	reg := newRegistry(config.ProcessesConfig{Track: &track, RetainExited: 10}, nil)

	proc, err := executor.NewRealExecutor().Start([]string{"true"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if id := reg.Track(proc, []string{"true"}); id != "" {
		t.Errorf("Track() id = %q, want empty with tracking disabled", id)
	}
	if n := len(reg.List()); n != 0 {
		t.Errorf("List() has %d entries, want 0 with tracking disabled", n)
	}
}

// fixedProcessAPI serves GET /processes with two IDs sharing a prefix.
func fixedProcessAPI(t *testing.T) *client.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Process not found"}`))
	})
	mux.HandleFunc("GET /processes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"processes":[
			{"id":"ab12-one","pid":10,"args":["sleep","30"],"state":"running","started_at":"2025-03-01T12:00:00Z"},
			{"id":"ab34-two","pid":11,"args":["top"],"state":"running","started_at":"2025-03-01T12:00:00Z"},
			{"id":"cd56-three","pid":12,"args":["vi"],"state":"running","started_at":"2025-03-01T12:00:00Z"}
		]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return client.New(ts.URL)
}

func TestResolveProcessID(t *testing.T) {
	c := fixedProcessAPI(t)
	ctx := context.Background()

	id, err := resolveProcessID(ctx, c, "cd", nil)
	if err != nil || id != "cd56-three" {
		t.Errorf("unique prefix = (%q, %v), want cd56-three", id, err)
	}

	if _, err := resolveProcessID(ctx, c, "ab", nil); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("ambiguous prefix without prompter error = %v", err)
	}

	p := prompt.NewMockPrompter(1)
	id, err = resolveProcessID(ctx, c, "ab", p)
	if err != nil || id != "ab34-two" {
		t.Errorf("ambiguous prefix with prompter = (%q, %v), want ab34-two", id, err)
	}
	if len(p.Calls) != 1 || len(p.Calls[0].Options) != 2 {
		t.Fatalf("prompter calls = %+v, want one call with two options", p.Calls)
	}
	if !strings.HasPrefix(p.Calls[0].Options[0], "ab12-one (pid 10, running) sleep 30") {
		t.Errorf("option = %q", p.Calls[0].Options[0])
	}

	if _, err := resolveProcessID(ctx, c, "zz", p); err == nil || !strings.Contains(err.Error(), "no process matches") {
		t.Errorf("unmatched prefix error = %v", err)
	}
}
