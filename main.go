// Command sakoban starts the Sokoban game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the levels and sessions directories, the progress
// database, debug logging, and optional ngrok tunneling for easy external
// access during development. Every flag can also be set from the environment
// or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/yassinfayed/sakoban/api"
	"github.com/yassinfayed/sakoban/game/config"
	"github.com/yassinfayed/sakoban/game/identity"
	"github.com/yassinfayed/sakoban/game/progress"
	"github.com/yassinfayed/sakoban/game/service"
	"github.com/yassinfayed/sakoban/game/session"
	"github.com/yassinfayed/sakoban/transport/mcp"
	"github.com/yassinfayed/sakoban/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Game Server"
)

const (
	modeServer = "server"
	modeStdio  = "stdio-mcp"
)

// options is the resolved command line configuration
type options struct {
	Mode        string
	Host        string
	Port        int
	LevelsDir   string
	SessionsDir string
	DBPath      string
	SessionTTL  time.Duration
	Debug       bool
	APIURL      string
	Ngrok       bool
	NgrokToken  string
	NgrokDomain string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// services holds everything initializeServices wires together
type services struct {
	game     service.GameService
	sessions *session.Manager
	store    *progress.Store
}

// Close flushes sessions to disk and closes the progress database
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Warn("failed to save sessions on shutdown", "error", err)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn("failed to close progress database", "error", err)
		}
	}
}

// main loads .env, parses flags, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	envErr := godotenv.Load()

	cmd := newCommand()
	cmd.Action = run
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("error loading .env file", "error", envErr)
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal("sakoban exited", "error", err)
	}
}

// newCommand declares the flags and their environment sources
func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "sakoban",
		Usage:     AppName,
		Version:   Version,
		ArgsUsage: "[server|stdio-mcp]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Value:   modeServer,
				Usage:   "server (HTTP API, WebSocket and /mcp) or stdio-mcp",
				Sources: cli.EnvVars("SAKOBAN_MODE"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "Directory of extra level files (built-in levels only when empty)",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory where sessions are persisted",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "db",
				Value:   "sakoban.db",
				Usage:   "SQLite database for progress and the leaderboard (disabled when empty)",
				Sources: cli.EnvVars("SAKOBAN_DB"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				Usage:   "Sessions idle for longer are evicted from memory",
				Sources: cli.EnvVars("SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "External API reused by stdio-mcp when it is reachable",
				Sources: cli.EnvVars("SAKOBAN_API_URL"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
	}
}

// optionsFrom reads the parsed flags. A positional mode argument wins over --mode.
func optionsFrom(cmd *cli.Command) (options, error) {
	opts := options{
		Mode:        cmd.String("mode"),
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		LevelsDir:   cmd.String("levels-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		DBPath:      cmd.String("db"),
		SessionTTL:  cmd.Duration("session-ttl"),
		Debug:       cmd.Bool("debug"),
		APIURL:      cmd.String("api-url"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokToken:  cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
	if arg := cmd.Args().First(); arg != "" {
		opts.Mode = arg
	}

	mode, err := normalizeMode(opts.Mode)
	if err != nil {
		return opts, err
	}
	opts.Mode = mode

	if opts.Port <= 0 || opts.Port > 65535 {
		return opts, fmt.Errorf("invalid port: %d", opts.Port)
	}
	return opts, nil
}

// normalizeMode resolves mode aliases
func normalizeMode(mode string) (string, error) {
	switch mode {
	case "", "server", "http":
		return modeServer, nil
	case "stdio-mcp", "mcp-stdio", "mcp":
		return modeStdio, nil
	}
	return "", fmt.Errorf("unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
}

func setupLogging(debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	log.SetDefault(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    debug,
		Prefix:          "sakoban",
		Level:           level,
	}))
}

func run(ctx context.Context, cmd *cli.Command) error {
	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}
	setupLogging(opts.Debug)

	log.Info("starting", "app", AppName, "version", Version, "mode", opts.Mode)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.Close()

	if opts.Mode == modeStdio {
		return runStdioMCPWithInternalServer(ctx, opts, svc.game)
	}
	return runHTTPServer(ctx, opts, svc.game)
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, gameService service.GameService) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(gameService, hub)

	addr := opts.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	apiServer.HandleMCP(mcpClient.HTTPHandler())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info("HTTP server listening", "addr", addr)
		log.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, apiServer)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		cancel()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	log.Info("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.NgrokToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Info("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokToken))
	if err != nil {
		log.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Info("ngrok tunnel established", "url", ngrokURL,
		"api", ngrokURL+"/api", "ws", ngrokURL+"/ws?session=<session_id>", "mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error("ngrok server error", "error", err)
	}
	log.Info("ngrok tunnel closed")
}

// initializeServices wires the level catalog, sessions, progress store and the
// game service. It also starts a background cleanup routine to evict stale sessions.
func initializeServices(ctx context.Context, opts options) (*services, error) {
	levels, err := config.NewManager(opts.LevelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level catalog: %w", err)
	}

	persistence, err := session.NewFilePersistence(opts.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn("failed to load persisted sessions", "error", err)
	}

	svc := &services{sessions: sessionManager}

	// progress stays a nil interface without a database
	var progressStore service.ProgressStore
	if opts.DBPath != "" {
		store, err := progress.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open progress database: %w", err)
		}
		svc.store = store
		progressStore = store
		log.Info("progress database opened", "path", opts.DBPath)
	} else {
		log.Warn("no progress database configured, leaderboard disabled")
	}

	svc.game = service.NewGameService(sessionManager, levels, progressStore, identity.NewProvider())

	go sessionCleanupRoutine(ctx, sessionManager, opts.SessionTTL, time.Hour)

	return svc, nil
}

// sessionCleanupRoutine periodically evicts sessions that have not been accessed
// within ttl. Evicted sessions stay on disk and reload on next access.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl, every time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Info("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// externalAPIAvailable reports whether an API server answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse the external API at --api-url; if unavailable, it starts a
// minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts options, gameService service.GameService) error {
	baseURL := opts.APIURL

	log.Info("checking for external API server", "url", baseURL)
	if externalAPIAvailable(baseURL) {
		log.Info("external API server found, using it for MCP", "url", baseURL)
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internalAddr := listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Info("internal HTTP server started", "addr", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
