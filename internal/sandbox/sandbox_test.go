package sandbox

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/kafka"
	"github.com/tair/storefront/pkg/metrics"
)

type recordingPublisher struct {
	mu      sync.Mutex
	orders  []kafka.OrderPlacedEvent
	refunds []kafka.RefundRequestedEvent
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, e kafka.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, e)
	return nil
}

func (p *recordingPublisher) PublishRefundRequested(_ context.Context, e kafka.RefundRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, e)
	return nil
}

func (p *recordingPublisher) snapshot() ([]kafka.OrderPlacedEvent, []kafka.RefundRequestedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.OrderPlacedEvent(nil), p.orders...), append([]kafka.RefundRequestedEvent(nil), p.refunds...)
}

// memTokens is a swappable token source
type memTokens struct {
	mu  sync.Mutex
	tok domain.Token
}

func (m *memTokens) Get(context.Context) (domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *memTokens) set(tok domain.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = tok
}

type testEnv struct {
	srv    *httptest.Server
	events *recordingPublisher
	reg    *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := NewStore(bcrypt.MinCost)
	require.NoError(t, store.Seed())

	events := &recordingPublisher{}
	h := NewHandler(store, Options{JWTSecret: "test-secret", PageSize: 10, Events: events})

	reg := prometheus.NewRegistry()
	srv := httptest.NewServer(NewServer(h, ServerConfig{
		EnableLogging: true,
		Metrics:       metrics.NewServer(reg),
		Gatherer:      reg,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, events: events, reg: reg}
}

// user is a signed-in client
type user struct {
	client *api.Client
	tokens *memTokens
	info   *domain.User
}

func (e *testEnv) anonymous(t *testing.T) *user {
	t.Helper()
	tokens := &memTokens{}
	c, err := api.New(api.Config{BaseURL: e.srv.URL, Timeout: 5 * time.Second}, tokens)
	require.NoError(t, err)
	return &user{client: c, tokens: tokens}
}

func (e *testEnv) login(t *testing.T, email string) *user {
	t.Helper()
	u := e.anonymous(t)
	tok, err := u.client.Login(context.Background(), domain.SignInInput{Email: email, Password: SeedPassword})
	require.NoError(t, err)
	u.tokens.set(tok)

	u.info, err = session.DecodeUser(tok.Token)
	require.NoError(t, err)
	return u
}

func findItem(t *testing.T, c *api.Client, name string) domain.Item {
	t.Helper()
	page, err := c.SearchItems(context.Background(), api.SearchParams{Query: name})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items, "no item named %q", name)
	return page.Items[0]
}

func requireFailure(t *testing.T, err error, status int) *api.Failure {
	t.Helper()
	require.Error(t, err)
	f, ok := api.AsFailure(err)
	require.True(t, ok, "expected a failure, got %v", err)
	assert.Equal(t, status, f.Status)
	return f
}

func TestSignUpAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	anon := env.anonymous(t)

	tok, err := anon.client.SignUp(ctx, domain.SignUpInput{
		Email:                "new@storefront.test",
		Name:                 "Newcomer",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
		Address1:             "5 Lane",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.CSRF)

	decoded, err := session.DecodeUser(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "new@storefront.test", decoded.Email)
	assert.Equal(t, domain.RoleConsumer, decoded.Role)

	_, err = anon.client.SignUp(ctx, domain.SignUpInput{
		Email:                "new@storefront.test",
		Name:                 "Again",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
		Address1:             "5 Lane",
	})
	requireFailure(t, err, http.StatusConflict)

	_, err = anon.client.Login(ctx, domain.SignInInput{Email: "new@storefront.test", Password: "wrong"})
	f := requireFailure(t, err, http.StatusUnauthorized)
	assert.Equal(t, "wrong email or password", f.Reason)

	_, err = anon.client.Login(ctx, domain.SignInInput{Email: "new@storefront.test", Password: "secret1"})
	assert.NoError(t, err)
}

func TestCatalogPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.anonymous(t).client

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 4)

	first, err := c.SearchItems(ctx, api.SearchParams{Page: 1})
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, len(seedItems), first.TotalResults)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNextPage)
	assert.Equal(t, 2, first.NextPage)

	last, err := c.SearchItems(ctx, api.SearchParams{Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Items, len(seedItems)-20)
	assert.False(t, last.HasNextPage)

	cheapest, err := c.SearchItems(ctx, api.SearchParams{Sort: domain.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, "Dark chocolate", cheapest.Items[0].Name)

	var food domain.Category
	for _, cat := range cats {
		if cat.Title == "Food" {
			food = cat
		}
	}
	feed, err := c.ItemsByCategory(ctx, api.CategoryParams{CategoryID: food.ID})
	require.NoError(t, err)
	assert.Equal(t, "Food", feed.CategoryName)
	assert.Equal(t, 5, feed.TotalResults)

	_, err = c.ItemsByCategory(ctx, api.CategoryParams{CategoryID: "missing"})
	requireFailure(t, err, http.StatusNotFound)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)
	seller := env.login(t, SeedProviderEmail)

	mug := findItem(t, buyer.client, "Ceramic mug")
	orderID, err := buyer.client.CreateOrder(ctx, domain.CreateOrderInput{
		Destination:      buyer.info.Address1,
		CreateOrderItems: []domain.CreateOrderItemInput{{ItemID: mug.ID, Count: 2}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	orders, err := buyer.client.ConsumerOrders(ctx, buyer.info.ID, 1)
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	order := orders.Orders[0]
	assert.True(t, order.Total.Equal(decimal.NewFromInt(14000*2).Add(domain.DeliveryFee)))
	line := order.OrderItems[0]
	assert.Equal(t, domain.OrderChecking, line.Status)

	after, err := buyer.client.Item(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, mug.Stock-2, after.Stock)

	_, err = buyer.client.ConsumerOrders(ctx, seller.info.ID, 1)
	requireFailure(t, err, http.StatusForbidden)

	_, err = buyer.client.UpdateOrderItemStatus(ctx, line.ID, domain.OrderReceived)
	requireFailure(t, err, http.StatusForbidden)

	sold, err := seller.client.ProviderOrderItems(ctx, seller.info.ID, 1)
	require.NoError(t, err)
	require.Len(t, sold.OrderItems, 1)

	_, err = seller.client.UpdateOrderItemStatus(ctx, line.ID, domain.OrderDelivered)
	requireFailure(t, err, http.StatusBadRequest)

	for _, next := range []domain.OrderStatus{domain.OrderReceived, domain.OrderDelivering, domain.OrderDelivered} {
		updated, err := seller.client.UpdateOrderItemStatus(ctx, line.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = buyer.client.CancelOrderItem(ctx, line.ID)
	requireFailure(t, err, http.StatusBadRequest)

	pay := decimal.NewFromInt(14000)
	_, err = buyer.client.RequestRefund(ctx, domain.RequestRefundInput{
		OrderItemID:  line.ID,
		Status:       domain.RefundRefunded,
		Count:        1,
		ProblemTitle: "Item damaged or malfunctioning",
		RecallDay:    "2024-03-10T15:00:00Z",
		RecallPlace:  buyer.info.Address1,
		RecallTitle:  "Front door",
		RefundPay:    &pay,
	})
	require.NoError(t, err)

	_, err = buyer.client.RequestRefund(ctx, domain.RequestRefundInput{
		OrderItemID:  line.ID,
		Status:       domain.RefundExchanged,
		Count:        2,
		ProblemTitle: "Wrong item",
		RecallDay:    "2024-03-10T15:00:00Z",
		RecallPlace:  buyer.info.Address1,
		RecallTitle:  "Front door",
	})
	requireFailure(t, err, http.StatusBadRequest)

	orders, err = buyer.client.ConsumerOrders(ctx, buyer.info.ID, 1)
	require.NoError(t, err)
	line = orders.Orders[0].OrderItems[0]
	assert.Equal(t, 1, line.Refunded)
	assert.Equal(t, 1, line.Refundable())

	mine, err := buyer.client.ConsumerRefunds(ctx, buyer.info.ID, 1)
	require.NoError(t, err)
	require.Len(t, mine.Refunds, 1)
	assert.True(t, mine.Refunds[0].RefundPay.Equal(pay))

	theirs, err := seller.client.ProviderRefunds(ctx, seller.info.ID, 1)
	require.NoError(t, err)
	assert.Len(t, theirs.Refunds, 1)

	placed, requested := env.events.snapshot()
	require.Len(t, placed, 1)
	assert.Equal(t, orderID, placed[0].OrderID)
	assert.Equal(t, 1, placed[0].ItemCount)
	require.Len(t, requested, 1)
	assert.Equal(t, "Refunded", requested[0].Status)
}

func TestCancelRestocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)

	lamp := findItem(t, buyer.client, "Desk lamp")
	_, err := buyer.client.CreateOrder(ctx, domain.CreateOrderInput{
		Destination:      "22 Harbour Road",
		CreateOrderItems: []domain.CreateOrderItemInput{{ItemID: lamp.ID, Count: lamp.Stock}},
	})
	require.NoError(t, err)

	_, err = buyer.client.CreateOrder(ctx, domain.CreateOrderInput{
		Destination:      "22 Harbour Road",
		CreateOrderItems: []domain.CreateOrderItemInput{{ItemID: lamp.ID, Count: 1}},
	})
	requireFailure(t, err, http.StatusBadRequest)

	orders, err := buyer.client.ConsumerOrders(ctx, "", 1)
	require.NoError(t, err)
	canceled, err := buyer.client.CancelOrderItem(ctx, orders.Orders[0].OrderItems[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCanceled, canceled.Status)

	restocked, err := buyer.client.Item(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, lamp.Stock, restocked.Stock)
}

func TestCSRFRequiredForMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)
	mug := findItem(t, buyer.client, "Ceramic mug")

	tok, _ := buyer.tokens.Get(ctx)
	buyer.tokens.set(domain.Token{Token: tok.Token, CSRF: "forged"})

	// reads only need the token
	_, err := buyer.client.LikeList(ctx)
	require.NoError(t, err)

	err = buyer.client.LikeItem(ctx, mug.ID)
	requireFailure(t, err, http.StatusForbidden)
}

func TestLogoutInvalidatesCSRF(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)
	mug := findItem(t, buyer.client, "Ceramic mug")

	refreshed, err := buyer.client.RefreshToken(ctx)
	require.NoError(t, err)
	buyer.tokens.set(refreshed)

	require.NoError(t, buyer.client.Logout(ctx))

	err = buyer.client.LikeItem(ctx, mug.ID)
	requireFailure(t, err, http.StatusForbidden)
}

func TestLikes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)
	mug := findItem(t, buyer.client, "Ceramic mug")
	honey := findItem(t, buyer.client, "Honey")

	require.NoError(t, buyer.client.LikeItem(ctx, mug.ID))
	require.NoError(t, buyer.client.LikeItem(ctx, honey.ID))
	require.NoError(t, buyer.client.LikeItem(ctx, mug.ID))

	list, err := buyer.client.LikeList(ctx)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, mug.ID, list.Items[0].ID)

	require.NoError(t, buyer.client.UnlikeItem(ctx, mug.ID))
	list, err = buyer.client.LikeList(ctx)
	require.NoError(t, err)
	assert.False(t, list.Contains(mug.ID))
	assert.True(t, list.Contains(honey.ID))

	err = buyer.client.LikeItem(ctx, "missing")
	requireFailure(t, err, http.StatusNotFound)

	_, err = env.anonymous(t).client.LikeList(ctx)
	requireFailure(t, err, http.StatusUnauthorized)
}

func TestReviewsAndUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)
	mug := findItem(t, buyer.client, "Ceramic mug")

	for _, rating := range []int{5, 4} {
		_, err := buyer.client.CreateReview(ctx, domain.CreateReviewInput{ItemID: mug.ID, Content: "Sturdy mug", Rating: rating})
		require.NoError(t, err)
	}
	review, err := buyer.client.CreateReview(ctx, domain.CreateReviewInput{ItemID: mug.ID, Content: "Chipped on arrival", Rating: 3})
	require.NoError(t, err)

	images, err := buyer.client.UploadImages(ctx, api.UploadInput{
		ImagableID:   review.ID,
		ImagableType: "Review",
		Files:        []api.UploadFile{{Name: "chip.jpg", Content: strings.NewReader("jpeg")}},
	})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, review.ID, images[0].ImagableID)
	assert.True(t, strings.HasSuffix(images[0].ImagePath, "-chip.jpg"))

	page, err := buyer.client.ItemReviews(ctx, mug.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 3)
	assert.Equal(t, 4.0, page.AvgRating)
	assert.Equal(t, "Chipped on arrival", page.Reviews[0].Content)
	assert.Equal(t, []string{images[0].ImagePath}, page.Reviews[0].Images)

	item, err := buyer.client.Item(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, item.AvgRating)

	_, err = buyer.client.CreateReview(ctx, domain.CreateReviewInput{ItemID: mug.ID, Content: "x", Rating: 9})
	requireFailure(t, err, http.StatusBadRequest)
}

func TestProviderManagesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.login(t, SeedProviderEmail)
	buyer := env.login(t, SeedConsumerEmail)

	input := domain.ItemInput{
		Name:         "Teapot",
		Price:        decimal.NewFromInt(33000),
		Stock:        3,
		CategoryName: "Kitchen",
		Infos:        []domain.InfoItem{{Key: "Volume", Value: "1L"}},
	}

	_, err := buyer.client.AddItem(ctx, input)
	requireFailure(t, err, http.StatusForbidden)

	item, err := seller.client.AddItem(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", item.Category.Title)

	_, err = seller.client.UploadImages(ctx, api.UploadInput{
		ImagableID:   item.ID,
		ImagableType: "Item",
		Files:        []api.UploadFile{{Name: "teapot.png", Content: strings.NewReader("png")}},
	})
	require.NoError(t, err)

	input.Price = decimal.NewFromInt(30000)
	require.NoError(t, seller.client.EditItem(ctx, item.ID, input))

	got, err := buyer.client.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.SalePrice.Equal(decimal.NewFromInt(30000)))
	assert.Len(t, got.ProductImages, 1)

	mine, err := seller.client.ProviderItems(ctx, domain.SortNewest, 1)
	require.NoError(t, err)
	assert.Equal(t, len(seedItems)+1, mine.TotalResults)
	assert.Equal(t, item.ID, mine.Items[0].ID)

	cats, err := buyer.client.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 5)

	require.NoError(t, seller.client.DeleteItem(ctx, item.ID))
	_, err = buyer.client.Item(ctx, item.ID)
	requireFailure(t, err, http.StatusNotFound)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.login(t, SeedConsumerEmail)

	require.NoError(t, buyer.client.EditProfile(ctx, domain.EditProfileInput{
		Email:    SeedConsumerEmail,
		Name:     "Renamed Buyer",
		Address1: "99 New Street",
	}))

	refreshed, err := buyer.client.RefreshToken(ctx)
	require.NoError(t, err)
	decoded, err := session.DecodeUser(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Buyer", decoded.Name)

	err = buyer.client.ChangePassword(ctx, domain.ChangePasswordInput{
		CurrentPassword:      "nope",
		NewPassword:          "another1",
		PasswordConfirmation: "another1",
	})
	requireFailure(t, err, http.StatusBadRequest)

	require.NoError(t, buyer.client.ChangePassword(ctx, domain.ChangePasswordInput{
		CurrentPassword:      SeedPassword,
		NewPassword:          "another1",
		PasswordConfirmation: "another1",
	}))
	_, err = buyer.client.Login(ctx, domain.SignInInput{Email: SeedConsumerEmail, Password: "another1"})
	assert.NoError(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	health, err := env.anonymous(t).client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, ServiceName, health.Service)

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_sandbox_requests_total{endpoint="/health",method="GET",status="200"} 1`)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	page, p := paginate(all, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, domain.Pagination{TotalPages: 3, TotalResults: 5, NextPage: 3, HasNextPage: true}, p)

	page, p = paginate(all, 4, 2)
	assert.Empty(t, page)
	assert.False(t, p.HasNextPage)

	page, p = paginate([]int{}, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 0, p.TotalPages)

	page, p = paginate(all, 922337203685477582, 10)
	assert.Empty(t, page)
	assert.False(t, p.HasNextPage)
}

func TestHugePageIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/items?page=922337203685477582")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"hasNextPage":false`)
}
