package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/daemon"

	"github.com/spf13/cobra"
)

// serverRecord describes the running server. The server writes it once it is
// listening and removes it on exit.
type serverRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Estimator string    `json:"estimator"`
	Seed      string    `json:"seed"`
	Session   string    `json:"session,omitempty"`
}

var errNoServer = errors.New("no budgetchat server is running")

var (
	flagServeAddr         string
	flagServeDetach       bool
	flagServeRecord       string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon"},
	Short:   "Serve one conversation over HTTP/SSE",
	Long:    "Run a conversation in the background and expose it on a local HTTP API: post turns, toggle sections and stream changes.",
	RunE:    runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running conversation",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE:  runServeStop,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "127.0.0.1:8787", "HTTP listen address")
	serveCmd.PersistentFlags().StringVar(&flagServeRecord, "record", filepath.Join(config.CacheDir(), "server.json"), "Where the running server describes itself")
	serveCmd.PersistentFlags().StringVar(&flagServeLogFile, "log-file", filepath.Join(config.CacheDir(), "server.log"), "Log file for detached mode")
	serveCmd.PersistentFlags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.Flags().BoolVar(&flagServeDetach, "detach", false, "Run the server as a background process")
	serveCmd.Flags().BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = serveCmd.Flags().MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if flagServeDetach && flagServeChild {
		return errors.New("invalid server launch mode")
	}
	if flagServeDetach {
		return startServeDetached()
	}
	return runServeForeground()
}

// startServeDetached relaunches the binary as a child and returns once the
// child answers with its starting budget.
func startServeDetached() error {
	if err := claimServerRecord(flagServeRecord); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	child := exec.Command(exe, args...) //nolint:gosec // relaunching ourselves with our own arguments
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached server: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()

	st, err := waitForServer(flagServeAddr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("server (pid %d) did not come up: %w (see %s)", pid, err, flagServeLogFile)
	}

	fmt.Printf("  Started server (pid %d) on http://%s\n", pid, flagServeAddr)
	fmt.Printf("  Budget: %d sections, %s\n", len(st.Sections), st.TotalFormatted)
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func runServeForeground() error {
	if err := claimServerRecord(flagServeRecord); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, closeLog, err := serveLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := startSession(ctx, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := serverRecord{
		PID:       os.Getpid(),
		Addr:      flagServeAddr,
		StartedAt: time.Now(),
		Estimator: s.cfg.Estimator.Kind,
		Seed:      s.cfg.General.Seed,
	}
	if s.archive != nil {
		rec.Session = s.archive.SessionID()
	}
	if err := rec.write(flagServeRecord); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagServeRecord) }()

	svc := daemon.New(daemon.Config{
		Addr:         flagServeAddr,
		EventsBuffer: flagServeEventsBuffer,
		Logger:       logger,
	}, s.conv)

	fmt.Printf("  budgetchat listening on http://%s\n", flagServeAddr)
	fmt.Printf("  Estimator: %s, seed: %s\n", rec.Estimator, rec.Seed)
	fmt.Printf("  Stop with: budgetchat serve stop\n")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveLogger logs text to stderr in the foreground and JSON to the log file
// in a detached child.
func serveLogger() (*slog.Logger, func(), error) {
	if !flagServeChild {
		return stderrLogger(slog.LevelInfo), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(flagServeLogFile), 0o750); err != nil {
		return nil, nil, fmt.Errorf("create server log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	f, err := os.OpenFile(flagServeLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open server log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: logLevel(slog.LevelInfo)}))
	return logger, func() { _ = f.Close() }, nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	rec, err := readServerRecord(flagServeRecord)
	if errors.Is(err, errNoServer) {
		fmt.Println("  Server: not running")
		return nil
	}
	if err != nil {
		return err
	}
	if !rec.running() {
		fmt.Printf("  Server: stale record (pid %d is gone)\n", rec.PID)
		return nil
	}

	fmt.Printf("  Server: pid %d on http://%s since %s\n", rec.PID, rec.Addr, rec.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Estimator: %s, seed: %s\n", rec.Estimator, rec.Seed)
	if rec.Session != "" {
		fmt.Printf("  Archive session: %s\n", rec.Session)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := fetchState(ctx, rec.Addr)
	if err != nil {
		fmt.Printf("  API: unreachable (%v)\n", err)
		return nil
	}
	open := 0
	for _, sec := range st.Sections {
		if sec.Open {
			open++
		}
	}
	fmt.Printf("  Revision: %d\n", st.Revision)
	fmt.Printf("  Messages: %d (%d pending)\n", len(st.Messages), len(st.Pending))
	fmt.Printf("  Sections: %d (%d open)\n", len(st.Sections), open)
	fmt.Printf("  Total: %s\n", st.TotalFormatted)

	var status daemon.Status
	if err := getJSON(ctx, rec.Addr, "/v1/status", &status); err == nil {
		fmt.Printf("  Stream clients: %d\n", status.SubscriberCount)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	rec, err := readServerRecord(flagServeRecord)
	if err != nil {
		return err
	}
	if !rec.running() {
		_ = os.Remove(flagServeRecord)
		return fmt.Errorf("%w (removed stale record for pid %d)", errNoServer, rec.PID)
	}

	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(8 * time.Second)
	for {
		select {
		case <-ticker.C:
			if rec.running() {
				continue
			}
			_ = os.Remove(flagServeRecord)
			fmt.Printf("  Stopped server (pid %d, %s)\n", rec.PID, rec.Addr)
			return nil
		case <-deadline:
			return fmt.Errorf("server (pid %d) did not exit in time", rec.PID)
		}
	}
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func readServerRecord(path string) (serverRecord, error) {
	var rec serverRecord
	//nolint:gosec // record path is configured by the local user
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return rec, errNoServer
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("reading %s: %w", path, err)
	}
	if rec.PID <= 0 {
		return rec, fmt.Errorf("reading %s: no pid", path)
	}
	return rec, nil
}

func (r serverRecord) write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create server directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// running reports whether the recorded process still exists.
func (r serverRecord) running() bool {
	proc, err := os.FindProcess(r.PID)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// claimServerRecord fails while a live server owns path and clears a record
// left behind by one that died.
func claimServerRecord(path string) error {
	rec, err := readServerRecord(path)
	switch {
	case errors.Is(err, errNoServer):
		return nil
	case err == nil && rec.running():
		return fmt.Errorf("server already running on %s (pid %d)", rec.Addr, rec.PID)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear stale server record: %w", err)
	}
	return nil
}

// waitForServer polls /v1/state until the server answers or timeout passes.
func waitForServer(addr string, timeout time.Duration) (daemon.StateView, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		st, err := fetchState(ctx, addr)
		if err == nil {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return daemon.StateView{}, err
		case <-ticker.C:
		}
	}
}

func fetchState(ctx context.Context, addr string) (daemon.StateView, error) {
	var st daemon.StateView
	err := getJSON(ctx, addr, "/v1/state", &st)
	return st, err
}

func getJSON(ctx context.Context, addr, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}
