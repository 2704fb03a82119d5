package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/smartstudy/internal/extract"
	"github.com/pavelanni/smartstudy/internal/gamify"
	"github.com/pavelanni/smartstudy/internal/handler"
	appI18n "github.com/pavelanni/smartstudy/internal/i18n"
	"github.com/pavelanni/smartstudy/internal/llm"
	"github.com/pavelanni/smartstudy/internal/llm/prompts"
	"github.com/pavelanni/smartstudy/internal/model"
	"github.com/pavelanni/smartstudy/internal/practice"
	"github.com/pavelanni/smartstudy/internal/store"
	"github.com/pavelanni/smartstudy/internal/study"
)

//go:generate templ generate -path ../../internal/handler/views

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smartstudy",
		Short: "School portal that turns graded work into practice questions",
	}

	serve := serveCmd()
	root.AddCommand(serve, regenerateCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `smartstudy --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("data-dir", "data", "Directory for the record collections")
	f.String("store", store.BackendJSON, "Store backend (json, sqlite)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", llm.ProviderOpenAI, "LLM provider (openai, anthropic, gemini)")
	f.String("llm-url", "http://localhost:11434/v1", "API base URL (OpenAI-compatible for openai)")
	f.String("llm-key", "ollama", "API key for the LLM provider")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Upper bound for one LLM call")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP portal",
		RunE:  runServe,
	}
	addStoreFlags(cmd)
	addLLMFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("upload-dir", "uploads", "Directory for uploaded assignment files")
	f.Bool("skip-llm-check", false, "Skip the LLM health check at startup")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /school)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set SMARTSTUDY_ADMIN_PASSWORD)")
	return cmd
}

func regenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate the practice question of one assignment",
		RunE:  runRegenerate,
	}
	addStoreFlags(cmd)
	addLLMFlags(cmd)
	cmd.Flags().String("assignment-id", "", "Assignment ID, e.g. a001 (required)")
	_ = cmd.MarkFlagRequired("assignment-id")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assignments and practice questions as JSON",
		RunE:  runExport,
	}
	addStoreFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SMARTSTUDY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("smartstudy")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/smartstudy")
	v.AddConfigPath("/etc/smartstudy")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (*store.Store, error) {
	backend := strings.ToLower(v.GetString("store"))
	dataDir := v.GetString("data-dir")
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := store.New(backend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	slog.Info("opened store", "backend", backend, "data_dir", dataDir)
	return db, nil
}

func newPrompter(ctx context.Context, v *viper.Viper) (llm.Prompter, error) {
	if err := prompts.Load(prompts.Templates); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	p, err := llm.NewPrompter(ctx, llm.Config{
		Provider: v.GetString("llm-provider"),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return p, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	prompter, err := newPrompter(ctx, v)
	if err != nil {
		return err
	}
	// An unreachable model degrades checks to "could not judge"; it does not stop the portal.
	if pinger, ok := prompter.(llm.Pinger); ok && !v.GetBool("skip-llm-check") {
		if err := pinger.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed", "url", v.GetString("llm-url"), "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		}
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.PortalConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		UploadDir:     v.GetString("upload-dir"),
		LLMTimeout:    v.GetDuration("llm-timeout"),
	}

	svc := study.New(db, extract.PDF{}, prompter, cfg.LLMTimeout)
	engine := practice.NewEngine(practice.NewLLMJudge(prompter), gamify.NewUpdater(db))

	h, err := handler.New(db, svc, engine, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}
	go h.RunSessionPruner(ctx, time.Hour)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"store", v.GetString("store"),
		"llm_provider", v.GetString("llm-provider"),
		"model", v.GetString("llm-model"),
		"lang", lang,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runRegenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	prompter, err := newPrompter(ctx, v)
	if err != nil {
		return err
	}

	id := v.GetString("assignment-id")
	svc := study.New(db, extract.PDF{}, prompter, v.GetDuration("llm-timeout"))
	ps, err := svc.RegeneratePracticeSet(ctx, id)
	if err != nil {
		return fmt.Errorf("regenerate %s: %w", id, err)
	}
	if ps == nil {
		return fmt.Errorf("assignment %q not found", id)
	}

	valid := practice.Normalize(ps.Questions) != nil
	slog.Info("regenerated practice set", "assignment_id", id, "practice_set_id", ps.ID, "valid_payload", valid)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	assignments, err := db.ExportAssignments()
	if err != nil {
		return fmt.Errorf("export assignments: %w", err)
	}

	export := model.PortalExport{
		ExportedAt:  time.Now().UTC(),
		Assignments: assignments,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported assignments", "count", len(assignments), "output", outPath)
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or SMARTSTUDY_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
