//go:build wireinject
// +build wireinject

package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/config"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/storefront/usecase/command"
	"github.com/tair/storefront/internal/storefront/usecase/query"
)

// Wire sets
var InfrastructureSet = wire.NewSet(
	ProvideRedisClient,
	ProvideStorage,
	ProvideQueryCache,
	ProvideInvalidator,
	ProvideBreakers,
	ProvideClientMetrics,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	ProvideTokenStore,
	ProvideAPIClient,
	ProvideCartStore,
)

var SessionSet = wire.NewSet(
	state.NewApp,
	session.NewManager,
	wire.Bind(new(session.Authenticator), new(*api.Client)),
	wire.Bind(new(command.CurrentUser), new(*session.Manager)),
	wire.Bind(new(query.CurrentUser), new(*session.Manager)),
	ProvideLikeList,
)

var APIBindingSet = wire.NewSet(
	wire.Bind(new(command.OrderAPI), new(*api.Client)),
	wire.Bind(new(command.CatalogAPI), new(*api.Client)),
	wire.Bind(new(command.ReviewAPI), new(*api.Client)),
	wire.Bind(new(command.ProfileAPI), new(*api.Client)),
	wire.Bind(new(query.CatalogAPI), new(*api.Client)),
	wire.Bind(new(query.OrderAPI), new(*api.Client)),
	wire.Bind(new(query.ReviewAPI), new(*api.Client)),
)

var CommandHandlerSet = wire.NewSet(
	command.NewSignInHandler,
	command.NewEditProfileHandler,
	command.NewChangePasswordHandler,
	ProvideLoadCartHandler,
	ProvideAddToCartHandler,
	ProvideSetQuantityHandler,
	ProvideRemoveFromCartHandler,
	ProvideResetCartHandler,
	ProvideCheckoutHandler,
	command.NewLikeItemHandler,
	command.NewLikedToCartHandler,
	command.NewCancelOrderItemHandler,
	command.NewAdvanceOrderItemHandler,
	command.NewCreateReviewHandler,
	command.NewSaveItemHandler,
	command.NewDeleteItemHandler,
	wire.Struct(new(Commands), "*"),
)

var QueryHandlerSet = wire.NewSet(
	query.NewListCategoriesHandler,
	query.NewGetItemHandler,
	query.NewSearchItemsHandler,
	query.NewCategoryItemsHandler,
	query.NewProviderItemsHandler,
	query.NewConsumerOrdersHandler,
	query.NewProviderOrderItemsHandler,
	query.NewRefundsHandler,
	query.NewItemReviewsHandler,
	wire.Struct(new(Queries), "*"),
)

var SandboxSet = wire.NewSet(
	ProvideRedisClient,
	ProvideRateLimiter,
	ProvideEventPublisher,
	ProvideSandboxStore,
	ProvideSandboxHandler,
	ProvideSandboxServer,
)

// InitializeStorefront wires a client process. The returned cleanup closes
// storage and Redis connections.
func InitializeStorefront(cfg *config.Config, reg *prometheus.Registry) (*Storefront, func(), error) {
	wire.Build(
		InfrastructureSet,
		SessionSet,
		APIBindingSet,
		CommandHandlerSet,
		QueryHandlerSet,
		wire.Struct(new(Storefront), "*"),
	)
	return nil, nil, nil
}

// InitializeSandbox wires the sandbox backend
func InitializeSandbox(cfg *config.Config, reg *prometheus.Registry) (http.Handler, func(), error) {
	wire.Build(SandboxSet)
	return nil, nil, nil
}
