package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/bellybee/checkout/internal/cartstore"
	"github.com/bellybee/checkout/internal/checkout"
	h "github.com/bellybee/checkout/internal/http"
	"github.com/bellybee/checkout/internal/location"
	"github.com/bellybee/checkout/internal/orders"
	"github.com/bellybee/checkout/internal/payment"
	"github.com/bellybee/checkout/internal/publisher"
)

type Config struct {
	HTTPPort string

	MongoURI    string
	MongoDBName string
	RedisAddr   string
	RedisPass   string

	PostgresHost   string
	PostgresPort   int
	PostgresUser   string
	PostgresPass   string
	PostgresDB     string
	MigrationsPath string

	KafkaBrokers []string

	NominatimURL  string
	NominatimLang string

	GatewayURL      string
	MerchantKey     string
	MerchantName    string
	PayeeAddress    string
	PayeeName       string
	Currency        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "checkoutdb"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASSWORD", ""),

		PostgresHost:   getEnv("POSTGRES_HOST", ""),
		PostgresPort:   getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:   getEnv("POSTGRES_USER", "postgres"),
		PostgresPass:   getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:     getEnv("POSTGRES_DB", "orders"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/orders/migrations"),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "")),

		NominatimURL:  getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimLang: getEnv("NOMINATIM_LANG", "en-IN"),

		GatewayURL:   getEnv("PAYMENT_GATEWAY_URL", "https://checkout.razorpay.com"),
		MerchantKey:  getEnv("MERCHANT_KEY", "rzp_test_key"),
		MerchantName: getEnv("MERCHANT_NAME", "Belly Bee"),
		PayeeAddress: getEnv("UPI_PAYEE_ADDRESS", "bellybee@oksbi"),
		PayeeName:    getEnv("UPI_PAYEE_NAME", "Belly Bee"),
		Currency:     getEnv("CURRENCY", "INR"),

		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Set up MongoDB connection for cart persistence
	mongoDB, err := cartstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	repo := cartstore.NewMongoRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	store := cartstore.NewStore(repo, cartstore.NewRedisCache(redisClient))

	// Order persistence is optional: without postgres the confirmation still
	// works, the order record is just not kept.
	var sink checkout.OrderSink
	if cfg.PostgresHost != "" {
		cred := &orders.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPass,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.MigrationsPath,
		}
		orderRepo, err := orders.NewRepository(cred)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer orderRepo.Close()
		if err := orderRepo.RunMigrations(cred); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		sink = orderRepo
	}

	var events checkout.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		pub := publisher.NewOrderPublisher(cfg.KafkaBrokers...)
		defer pub.Close()
		events = pub
		log.Printf("Publishing order events to %v", cfg.KafkaBrokers)
	}

	geocoder := location.NewNominatimClient(cfg.NominatimURL, cfg.NominatimLang)
	gateway := payment.NewHTTPHostedGateway(cfg.GatewayURL)

	hostedCfg := payment.HostedConfig{
		MerchantKey:  cfg.MerchantKey,
		MerchantName: cfg.MerchantName,
		Currency:     cfg.Currency,
		Description:  "Food order",
		ThemeColor:   "#e23744",
	}
	deeplinkCfg := payment.DeepLinkConfig{
		PayeeAddress: cfg.PayeeAddress,
		PayeeName:    cfg.PayeeName,
		Currency:     cfg.Currency,
		Note:         "Order payment",
	}

	sessions := checkout.NewManager(checkout.SessionDeps{
		Store:     store,
		Finalizer: checkout.NewFinalizer(store, sink, events),
		NewResolver: func() *location.Resolver {
			return location.NewResolver(nil, geocoder, nil)
		},
		NewOrchestr: func(userID string) *payment.Orchestrator {
			return payment.NewOrchestrator(
				gateway,
				hostedCfg,
				deeplinkCfg,
				&payment.PushNavigator{User: userID},
				payment.NewRedisConfirmer(redisClient, userID),
			)
		},
	})

	attest := func(ctx context.Context, userID string, confirmed bool) error {
		return payment.RecordConfirmation(ctx, redisClient, userID, confirmed)
	}
	handler := h.NewCheckoutHandler(sessions, attest)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.MockAuthMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", handler.Routes)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout: 10 * time.Second,
		// deep-link submissions hold the request while waiting for the
		// user's confirmation, so the write timeout must outlast that wait
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout service starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
	log.Println("server exited")
}
