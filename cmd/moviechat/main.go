// Command moviechat is an interactive terminal chatbot over a movie knowledge
// graph stored in FalkorDB. Configuration comes from the environment:
//
//	OPENAI_API_KEY              API key for the model endpoint (required)
//	OPENAI_BASE_URL             override for OpenAI-compatible endpoints
//	MOVIECHAT_MODEL             model name (default gpt-4o-mini)
//	MOVIECHAT_FALKORDB_URL      falkordb://host:port/graph (default localhost)
//	MOVIECHAT_SESSION_STORE     memory | sqlite | redis | postgres
//	MOVIECHAT_SQLITE_PATH       database file for the sqlite store
//	MOVIECHAT_REDIS_ADDR        host:port for the redis store
//	MOVIECHAT_REDIS_PASSWORD    password for the redis store
//	MOVIECHAT_POSTGRES_URL      connection string for the postgres store
//	MOVIECHAT_SESSION           session id to resume (default: a fresh one)
//	MOVIECHAT_PROMPTS           YAML file overriding the prompt templates
//	MOVIECHAT_WINDOW            retained turns per session
//	MOVIECHAT_VERBOSE           set to 1 to print raw query results
//	MOVIECHAT_LOG_LEVEL         debug | info | warn | error | none
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/moviegraph/chat/bot"
	"github.com/moviegraph/chat/log"
	"github.com/moviegraph/chat/prompt"
	"github.com/moviegraph/chat/session"
	"github.com/moviegraph/chat/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("moviechat: "+err.Error()))
		os.Exit(1)
	}
}

func run() error {
	configureLogging()

	model, err := newModel()
	if err != nil {
		return err
	}

	querier, err := store.NewFalkorDB(envOr("MOVIECHAT_FALKORDB_URL", "falkordb://localhost:6379/movies"))
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	defer querier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionStore, closeStore, err := newSessionStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	verbose := envBool("MOVIECHAT_VERBOSE")

	cfg := bot.Config{
		Model:        model,
		Querier:      querier,
		Registry:     registry,
		SessionStore: sessionStore,
		Window:       envInt("MOVIECHAT_WINDOW", session.DefaultWindow),
	}
	if verbose {
		cfg.ResultObserver = printResult
	}

	engine, err := bot.NewEngine(cfg)
	if err != nil {
		return err
	}

	sessionID := os.Getenv("MOVIECHAT_SESSION")
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	fmt.Println(titleStyle.Render("moviechat"))
	fmt.Println(faintStyle.Render("session " + sessionID))
	fmt.Println(faintStyle.Render(`ask about movies; "restart" clears the conversation, "exit" quits`))
	fmt.Println()

	return chatLoop(ctx, engine, sessionID)
}

func chatLoop(ctx context.Context, engine *bot.Engine, sessionID string) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			fmt.Println(faintStyle.Render("bye"))
			return nil
		case "restart":
			if err := engine.Restart(ctx, sessionID); err != nil {
				fmt.Println(errorStyle.Render("restart failed: " + err.Error()))
				continue
			}
			fmt.Println(faintStyle.Render("conversation cleared"))
			continue
		}

		reply, err := engine.HandleTurn(ctx, sessionID, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}
		fmt.Println(botStyle.Render("bot> ") + reply)
		fmt.Println()
	}
}

func printResult(query string, result *store.Result) {
	fmt.Println(resultStyle.Render("query: " + query))
	result.PrettyPrint(os.Stdout)
}

func newModel() (*openai.LLM, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	opts := []openai.Option{
		openai.WithModel(envOr("MOVIECHAT_MODEL", "gpt-4o-mini")),
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	return openai.New(opts...)
}

func newSessionStore(ctx context.Context) (session.Store, func(), error) {
	switch kind := envOr("MOVIECHAT_SESSION_STORE", "memory"); kind {
	case "memory":
		return nil, nil, nil
	case "sqlite":
		s, err := session.NewSqliteStore(session.SqliteOptions{
			Path: envOr("MOVIECHAT_SQLITE_PATH", "moviechat.db"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite session store: %w", err)
		}
		return s, func() { s.Close() }, nil
	case "redis":
		s := session.NewRedisStore(session.RedisOptions{
			Addr:     envOr("MOVIECHAT_REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("MOVIECHAT_REDIS_PASSWORD"),
		})
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := session.NewPostgresStore(ctx, session.PostgresOptions{
			ConnString: os.Getenv("MOVIECHAT_POSTGRES_URL"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres session store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", kind)
	}
}

func newRegistry() (*prompt.Registry, error) {
	registry := prompt.Defaults()
	if path := os.Getenv("MOVIECHAT_PROMPTS"); path != "" {
		if err := registry.LoadFile(path); err != nil {
			return nil, fmt.Errorf("prompt templates: %w", err)
		}
	}
	return registry, nil
}

func configureLogging() {
	logger := log.NewGologLogger(golog.Default)

	switch strings.ToLower(envOr("MOVIECHAT_LOG_LEVEL", "warn")) {
	case "debug":
		logger.SetLevel(log.LogLevelDebug)
	case "info":
		logger.SetLevel(log.LogLevelInfo)
	case "warn":
		logger.SetLevel(log.LogLevelWarn)
	case "error":
		logger.SetLevel(log.LogLevelError)
	case "none":
		logger.SetLevel(log.LogLevelNone)
	default:
		logger.SetLevel(log.LogLevelWarn)
	}

	log.SetDefaultLogger(logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
