package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sanmarzano/orderbot/internal/agent"
	"github.com/sanmarzano/orderbot/internal/bot"
	"github.com/sanmarzano/orderbot/internal/delivery"
	"github.com/sanmarzano/orderbot/internal/llm"
	"github.com/sanmarzano/orderbot/internal/menu"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/notify"
	"github.com/sanmarzano/orderbot/internal/repositories/postgres"
	"github.com/sanmarzano/orderbot/internal/server"
	"github.com/sanmarzano/orderbot/internal/session"
	"github.com/sanmarzano/orderbot/internal/whatsapp"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orderbot",
	Short: "WhatsApp ordering bot for Pizzería San Marzano",
	Long:  `orderbot runs the WhatsApp ordering assistant: it receives customer messages through the Meta webhook, interprets them with a mix of heuristics and an LLM, and turns conversations into persisted orders with delivery quotes and stock deduction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func runServe() error {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	sessionsRepo := postgres.NewSessionRepository(pool)
	usersRepo := postgres.NewUserRepository(pool)
	menuRepo := postgres.NewMenuItemRepository(pool)
	ordersRepo := postgres.NewOrderRepository(pool, cfg.RestaurantCode)

	cache := menu.NewCache(menuRepo, cfg.MenuCacheTTL)
	store := session.NewStore(sessionsRepo, usersRepo, cfg.RestaurantLocation(),
		cfg.DeliveryRatePerKm, cfg.MinimumDeliveryFee, cfg.SessionTTL)

	llmClient, err := buildLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	log.Printf("orderbot: model provider %s (%s)", llmClient.Name(), cfg.LLMModel)

	var publisher notify.Publisher = notify.Noop{}
	if cfg.KafkaEnabled {
		kafka, err := notify.NewSaramaPublisher(cfg.KafkaBrokerList, cfg.OrderEventTopic)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer kafka.Close()
		publisher = kafka
	}

	sender := whatsapp.NewClient(cfg.WhatsappAccessToken, cfg.WhatsappPhoneID)
	ag := agent.New(llmClient, store, cache, ordersRepo, usersRepo, publisher, cfg.HistoryLimit)
	validator := bot.NewValidator(llmClient)
	router := bot.NewRouter(sender, store, cache, ag, validator, delivery.NewResolver(), cfg.DevPassphrase)

	srv := server.New(server.Config{
		Addr:        cfg.ListenAddr,
		VerifyToken: cfg.WhatsappVerifyToken,
		AppSecret:   cfg.MetaAppSecret,
	}, router)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("orderbot: listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("orderbot: shutting down")
	if err := server.Shutdown(srv, 15*time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func buildLLMClient(ctx context.Context, cfg *models.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	case "openai", "deepseek", "":
		return llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
