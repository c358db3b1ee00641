// Package app assembles the storefront client and the sandbox backend from
// configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/likes"
	"github.com/tair/storefront/internal/querycache"
	"github.com/tair/storefront/internal/sandbox"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/internal/storefront/usecase/command"
	"github.com/tair/storefront/internal/storefront/usecase/query"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/circuitbreaker"
	"github.com/tair/storefront/pkg/database"
	"github.com/tair/storefront/pkg/logger"
	"github.com/tair/storefront/pkg/metrics"
)

// Storefront is a wired client process
type Storefront struct {
	Config   *config.Config
	State    *state.App
	Sessions *session.Manager
	Client   *api.Client
	Likes    *likes.List
	Commands *Commands
	Queries  *Queries
}

// Commands groups the write side
type Commands struct {
	SignIn         *command.SignInHandler
	EditProfile    *command.EditProfileHandler
	ChangePassword *command.ChangePasswordHandler
	LoadCart       *command.LoadCartHandler
	AddToCart      *command.AddToCartHandler
	SetQuantity    *command.SetQuantityHandler
	RemoveFromCart *command.RemoveFromCartHandler
	ResetCart      *command.ResetCartHandler
	Checkout       *command.CheckoutHandler
	LikeItem       *command.LikeItemHandler
	LikedToCart    *command.LikedToCartHandler
	CancelOrder    *command.CancelOrderItemHandler
	AdvanceOrder   *command.AdvanceOrderItemHandler
	CreateReview   *command.CreateReviewHandler
	SaveItem       *command.SaveItemHandler
	DeleteItem     *command.DeleteItemHandler
}

// Queries groups the read side
type Queries struct {
	Categories    *query.ListCategoriesHandler
	GetItem       *query.GetItemHandler
	SearchItems   *query.SearchItemsHandler
	CategoryItems *query.CategoryItemsHandler
	ProviderItems *query.ProviderItemsHandler
	Orders        *query.ConsumerOrdersHandler
	Sales         *query.ProviderOrderItemsHandler
	Refunds       *query.RefundsHandler
	Reviews       *query.ItemReviewsHandler
}

// Start restores the persisted session
func (s *Storefront) Start(ctx context.Context) error {
	auth, err := s.Sessions.Restore(ctx)
	if err != nil {
		return err
	}
	if !auth.Authenticated() {
		return nil
	}
	if _, err := s.Commands.LoadCart.Handle(ctx); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to load shopping list")
	}
	return nil
}

// Infrastructure providers

// ProvideRedisClient connects to Redis when storage, the query cache or the
// sandbox rate limiter uses it. Otherwise the client is nil.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func()) {
	usesRedis := cfg.Storage.Backend == storage.BackendRedis ||
		(cfg.Cache.Enabled && cfg.Cache.Backend == "redis") ||
		(cfg.Sandbox.RateLimit > 0 && cfg.Sandbox.RateLimitRedis)
	if !usesRedis {
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return rdb, func() {
		if err := rdb.Close(); err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// ProvideStorage opens the configured durable backend
func ProvideStorage(cfg *config.Config, rdb *redis.Client) (storage.Store, func(), error) {
	switch cfg.Storage.Backend {
	case storage.BackendMemory:
		return storage.NewMemoryStore(), func() {}, nil
	case storage.BackendRedis:
		return storage.NewRedisStore(rdb, cfg.Storage.Prefix), func() {}, nil
	case storage.BackendSQL:
		db, err := database.NewGormConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := database.Close(db); err != nil {
				logger.Logger.Warn().Err(err).Msg("Failed to close database")
			}
		}
		store, err := storage.NewGormStore(db)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		return store, closeDB, nil
	default:
		store, err := storage.NewFileStore(cfg.Storage.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// ProvideQueryCache selects the response cache
func ProvideQueryCache(cfg *config.Config, rdb *redis.Client) querycache.Cache {
	if !cfg.Cache.Enabled {
		return querycache.Nop{}
	}
	if cfg.Cache.Backend == "redis" {
		return querycache.NewRedis(rdb, cfg.Cache.DefaultTTL)
	}
	return querycache.NewMemory(cfg.Cache.DefaultTTL)
}

// ProvideInvalidator exposes the cache to feeds that purge it
func ProvideInvalidator(cache querycache.Cache) query.Invalidator {
	return cache
}

// ProvideBreakers creates the per-resource breaker manager
func ProvideBreakers(cfg *config.Config) *circuitbreaker.Manager {
	return circuitbreaker.NewManager(cfg.Breaker)
}

// ProvideClientMetrics registers client metrics on reg
func ProvideClientMetrics(reg prometheus.Registerer) *metrics.Client {
	return metrics.NewClient(reg)
}

// ProvideTokenStore keeps credentials under the app name
func ProvideTokenStore(kv storage.Store, cfg *config.Config) *session.TokenStore {
	return session.NewTokenStore(kv, cfg.App.Name)
}

// ProvideAPIClient creates the REST client
func ProvideAPIClient(cfg *config.Config, tokens *session.TokenStore, breakers *circuitbreaker.Manager, cache querycache.Cache, m *metrics.Client) (*api.Client, error) {
	return api.New(
		api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout},
		tokens,
		api.WithBreakers(breakers),
		api.WithCache(cache),
		api.WithMetrics(m),
	)
}

// ProvideCartStore keeps shopping lists under the app name
func ProvideCartStore(kv storage.Store, cfg *config.Config) *cart.Store {
	return cart.NewStore(kv, cfg.App.Name)
}

// ProvideLikeList binds the like list to its cell
func ProvideLikeList(client *api.Client, app *state.App) *likes.List {
	return likes.New(client, app.LikesCell())
}

// Command handler providers

func ProvideLoadCartHandler(carts *cart.Store, users command.CurrentUser, app *state.App) *command.LoadCartHandler {
	return command.NewLoadCartHandler(carts, users, app.CartCell())
}

func ProvideAddToCartHandler(carts *cart.Store, users command.CurrentUser, app *state.App) *command.AddToCartHandler {
	return command.NewAddToCartHandler(carts, users, app.CartCell())
}

func ProvideSetQuantityHandler(carts *cart.Store, users command.CurrentUser, app *state.App) *command.SetQuantityHandler {
	return command.NewSetQuantityHandler(carts, users, app.CartCell())
}

func ProvideRemoveFromCartHandler(carts *cart.Store, users command.CurrentUser, app *state.App) *command.RemoveFromCartHandler {
	return command.NewRemoveFromCartHandler(carts, users, app.CartCell())
}

func ProvideResetCartHandler(carts *cart.Store, users command.CurrentUser, app *state.App) *command.ResetCartHandler {
	return command.NewResetCartHandler(carts, users, app.CartCell())
}

func ProvideCheckoutHandler(orders command.OrderAPI, carts *cart.Store, users command.CurrentUser, app *state.App) *command.CheckoutHandler {
	return command.NewCheckoutHandler(orders, carts, users, app.CartCell())
}

// Sandbox providers

// ProvideEventPublisher publishes to Kafka when brokers are configured
func ProvideEventPublisher(cfg *config.Config) (sandbox.EventPublisher, func(), error) {
	if !cfg.Kafka.Enabled() {
		return sandbox.NopPublisher{}, func() {}, nil
	}
	publisher, err := kafka.NewPublisher(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to close kafka publisher")
		}
	}, nil
}

// ProvideSandboxStore creates the in-memory backend state, seeded on request
func ProvideSandboxStore(cfg *config.Config) (*sandbox.Store, error) {
	store := sandbox.NewStore(0)
	if cfg.Sandbox.Seed {
		if err := store.Seed(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// ProvideSandboxHandler creates the API handler
func ProvideSandboxHandler(cfg *config.Config, store *sandbox.Store, events sandbox.EventPublisher) *sandbox.Handler {
	return sandbox.NewHandler(store, sandbox.Options{
		JWTSecret: cfg.Sandbox.JWTSecret,
		TokenTTL:  cfg.Sandbox.TokenTTL,
		PageSize:  cfg.Sandbox.PageSize,
		Events:    events,
	})
}

// ProvideRateLimiter returns nil when sandbox.rate_limit is 0
func ProvideRateLimiter(cfg *config.Config, rdb *redis.Client) *sandbox.RateLimiter {
	if cfg.Sandbox.RateLimit <= 0 {
		return nil
	}
	if !cfg.Sandbox.RateLimitRedis {
		rdb = nil
	}
	return sandbox.NewRateLimiter(rdb, cfg.Sandbox.RateLimit, time.Minute)
}

// ProvideSandboxServer builds the HTTP stack. Metrics are registered on reg
// and served from it.
func ProvideSandboxServer(cfg *config.Config, h *sandbox.Handler, limiter *sandbox.RateLimiter, reg *prometheus.Registry) http.Handler {
	return sandbox.NewServer(h, sandbox.ServerConfig{
		CORSOrigins:   cfg.Sandbox.CORSOrigins,
		EnableLogging: true,
		EnableTracing: cfg.Telemetry.Enabled,
		Metrics:       metrics.NewServer(reg),
		Gatherer:      reg,
		RateLimiter:   limiter,
	})
}
