package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartoza/plasma-dashboard/internal/server"
)

// portAttempts is how many consecutive ports serve tries before giving up
const portAttempts = 10

// Window shows url in a desktop window until the user closes it or done is closed
type Window func(url string, done <-chan struct{})

// OpenWindow is installed by the main package when a desktop window is available
var OpenWindow Window

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server, in a desktop window unless --headless",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 8080, "HTTP server port")
	cmd.Flags().Bool("headless", false, "run without opening an application window")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	headless, _ := cmd.Flags().GetBool("headless")
	if !headless && OpenWindow == nil {
		log.Printf("Warning: built without desktop window support, running headless")
		headless = true
	}

	port, err := findAvailablePort(cfg.Port, portAttempts)
	if err != nil {
		return err
	}
	if port != cfg.Port {
		log.Printf("Port %d is busy, serving on %d", cfg.Port, port)
		cfg.Port = port
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	log.Printf("Plasma Dashboard v%s (history: %s)", cfg.Version, cfg.StoreBackend)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	dashboardURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	waitForServer(dashboardURL, 10*time.Second)

	if headless {
		err = awaitShutdown(ctx, serveErr)
	} else {
		err = runWindow(ctx, dashboardURL, serveErr)
	}

	if stopErr := srv.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// awaitShutdown blocks until a signal arrives or the listener fails
func awaitShutdown(ctx context.Context, serveErr <-chan error) error {
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Printf("Shutting down...")
		return nil
	}
}

// runWindow keeps the desktop window open until the user closes it, a signal
// arrives or the listener fails
func runWindow(ctx context.Context, dashboardURL string, serveErr <-chan error) error {
	done := make(chan struct{})
	var listenErr error
	go func() {
		defer close(done)
		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				listenErr = err
			}
		case <-ctx.Done():
		}
	}()

	log.Printf("Opening dashboard window at %s", dashboardURL)
	OpenWindow(dashboardURL, done)

	select {
	case <-done:
		if listenErr != nil {
			return fmt.Errorf("server error: %w", listenErr)
		}
	default:
		log.Printf("Window closed, shutting down...")
	}
	return nil
}

// waitForServer reports whether the host behind rawURL accepts TCP connections before timeout
func waitForServer(rawURL string, timeout time.Duration) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		log.Printf("Warning: cannot parse server url %q: %v", rawURL, err)
		return false
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		if conn, err := net.DialTimeout("tcp", u.Host, 500*time.Millisecond); err == nil {
			conn.Close()
			return true
		}
		select {
		case <-deadline:
			log.Printf("Warning: %s did not come up within %s", rawURL, timeout)
			return false
		case <-ticker.C:
		}
	}
}

// findAvailablePort returns the first port in [start, start+attempts) that can be bound
func findAvailablePort(start, attempts int) (int, error) {
	for port := start; port < start+attempts; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("failed to find available port in %d-%d", start, start+attempts-1)
}
