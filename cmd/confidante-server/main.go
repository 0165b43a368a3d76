package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"confidante-backend/internal/blog"
	"confidante-backend/internal/chatbot"
	"confidante-backend/internal/config"
	"confidante-backend/internal/db"
	"confidante-backend/internal/logger"
	"confidante-backend/internal/mail"
	"confidante-backend/internal/server"
	"confidante-backend/internal/store"
)

var (
	cfg config.Config
	log *zap.Logger

	// Flag overrides
	port     string
	logLevel string
	limit    int
)

var rootCmd = &cobra.Command{
	Use:   "confidante-server",
	Short: "Confidante website backend",
	Long: `confidante-server serves the Confidante website API: the contact form
mail relay, the wellness assistant chat and the blog articles.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if port != "" {
			cfg.Port = port
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		var err error
		log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to DB_URL",
	RunE:  runMigrate,
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Print archived contact submissions as JSON lines",
	Long: `Print archived contact submissions, newest first when read from the
database and in arrival order when read from CONTACT_ARCHIVE_FILE.`,
	RunE: runSubmissions,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	submissionsCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of submissions to print")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(submissionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrationsFS() fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return db.Migrations()
}

func openDatabase(ctx context.Context) (*db.DB, error) {
	database, err := db.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	n, err := database.RunMigrations(ctx, migrationsFS())
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database ready", zap.Int("migrations_applied", n))
	return database, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DB_URL is not set")
	}
	database, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	return database.Close()
}

func runSubmissions(cmd *cobra.Command, args []string) error {
	var subs []store.Submission
	switch {
	case cfg.DatabaseURL != "":
		database, err := db.New(cmd.Context(), cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()
		subs, err = store.NewDatabaseStore(database).ListSubmissions(cmd.Context(), limit)
		if err != nil {
			return err
		}
	case cfg.ContactArchiveFile != "":
		all, err := store.NewFileArchive(cfg.ContactArchiveFile).List()
		if err != nil {
			return err
		}
		if limit > 0 && len(all) > limit {
			all = all[len(all)-limit:]
		}
		subs = all
	default:
		return errors.New("no archive configured: set DB_URL or CONTACT_ARCHIVE_FILE")
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, s := range subs {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

func loadTable() (*chatbot.Table, error) {
	if cfg.ChatResponsesFile != "" {
		return chatbot.LoadTable(cfg.ChatResponsesFile)
	}
	return chatbot.DefaultTable()
}

func runServe(cmd *cobra.Command, args []string) error {
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadTable()
	if err != nil {
		return fmt.Errorf("failed to load chat responses: %w", err)
	}
	catalog, err := blog.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("failed to load blog posts: %w", err)
	}

	smtpCfg := mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
	}
	if cfg.UsesOAuth() {
		smtpCfg.TokenSource = mail.NewGmailTokenSource(ctx, cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRefreshToken)
	}

	transport := mail.NewSMTPTransport(smtpCfg, log.Named("mail"))
	if !transport.Configured() {
		log.Warn("mail transport is not configured; contact submissions will fail until SMTP_HOST, EMAIL_USER and EMAIL_PASSWORD or the EMAIL_OAUTH_* credentials are set")
	}

	opts := server.Options{
		Config:   cfg,
		Logger:   log,
		Mailer:   transport,
		Sessions: store.NewMemoryStore(cfg.ChatSessionTTL),
		Bot:      chatbot.NewDispatcher(table, nil),
		Blog:     catalog,
		Delays:   chatbot.Delays{Reply: cfg.ChatReplyDelay, Option: cfg.ChatOptionDelay},
	}

	if cfg.DatabaseURL != "" {
		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()
		opts.Database = database
		opts.Archive = store.NewDatabaseStore(database)
	} else if cfg.ContactArchiveFile != "" {
		opts.Archive = store.NewFileArchive(cfg.ContactArchiveFile)
	}

	s, err := server.NewServer(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	go sweepSessions(ctx, opts.Sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("confidante server listening", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
		return srv.Close()
	}
	return nil
}

// sweepSessions drops idle chat sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *store.MemoryStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				log.Debug("expired chat sessions", zap.Int("count", n), zap.Int("active", sessions.Len()))
			}
		case <-ctx.Done():
			return
		}
	}
}
