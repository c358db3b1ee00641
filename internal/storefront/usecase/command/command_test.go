package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/domain"
	"github.com/tair/storefront/internal/likes"
	"github.com/tair/storefront/internal/session"
	"github.com/tair/storefront/internal/state"
	"github.com/tair/storefront/internal/storage"
	"github.com/tair/storefront/internal/validation"
)

type fakeUsers struct {
	user *domain.User
}

func (f fakeUsers) RequireUser() (*domain.User, error) {
	if f.user == nil {
		return nil, session.ErrNotAuthenticated
	}
	return f.user, nil
}

var (
	consumer = &domain.User{Entity: domain.Entity{ID: "u-1"}, Role: domain.RoleConsumer, Address1: "1 Main St"}
	provider = &domain.User{Entity: domain.Entity{ID: "p-1"}, Role: domain.RoleProvider, Address1: "9 Side St"}
)

type fakeBackend struct {
	orderErr   error
	orders     []domain.CreateOrderInput
	statuses   []domain.OrderStatus
	cancels    []string
	reviews    []domain.CreateReviewInput
	uploads    []api.UploadInput
	added      []domain.ItemInput
	likeErr    error
	likeList   domain.LikeList
	likeCalls  int
	profileErr error
}

func (f *fakeBackend) CreateOrder(_ context.Context, in domain.CreateOrderInput) (string, error) {
	f.orders = append(f.orders, in)
	if f.orderErr != nil {
		return "", f.orderErr
	}
	return "order-1", nil
}

func (f *fakeBackend) CancelOrderItem(_ context.Context, id string) (*domain.OrderItem, error) {
	f.cancels = append(f.cancels, id)
	return &domain.OrderItem{Entity: domain.Entity{ID: id}, Status: domain.OrderCanceled}, nil
}

func (f *fakeBackend) UpdateOrderItemStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.OrderItem, error) {
	f.statuses = append(f.statuses, status)
	return &domain.OrderItem{Entity: domain.Entity{ID: id}, Status: status}, nil
}

func (f *fakeBackend) UploadImages(_ context.Context, in api.UploadInput) ([]domain.Image, error) {
	f.uploads = append(f.uploads, in)
	out := make([]domain.Image, 0, len(in.Files))
	for _, file := range in.Files {
		out = append(out, domain.Image{ImagePath: "/uploads/" + file.Name})
	}
	return out, nil
}

func (f *fakeBackend) AddItem(_ context.Context, in domain.ItemInput) (*domain.Item, error) {
	f.added = append(f.added, in)
	return &domain.Item{Entity: domain.Entity{ID: "item-new"}, Name: in.Name, SalePrice: in.Price}, nil
}

func (f *fakeBackend) EditItem(context.Context, string, domain.ItemInput) error { return nil }
func (f *fakeBackend) DeleteItem(context.Context, string) error                 { return nil }

func (f *fakeBackend) CreateReview(_ context.Context, in domain.CreateReviewInput) (*domain.Review, error) {
	f.reviews = append(f.reviews, in)
	return &domain.Review{Entity: domain.Entity{ID: "review-1"}, Rating: in.Rating, Content: in.Content}, nil
}

func (f *fakeBackend) LikeList(context.Context) (*domain.LikeList, error) {
	l := f.likeList
	return &l, nil
}

func (f *fakeBackend) LikeItem(context.Context, string) error {
	f.likeCalls++
	return f.likeErr
}

func (f *fakeBackend) UnlikeItem(context.Context, string) error {
	f.likeCalls++
	return f.likeErr
}

func (f *fakeBackend) EditProfile(context.Context, domain.EditProfileInput) error {
	return f.profileErr
}

func (f *fakeBackend) ChangePassword(context.Context, domain.ChangePasswordInput) error {
	return f.profileErr
}

func item(id string, price int64) domain.Item {
	return domain.Item{Entity: domain.Entity{ID: id}, Name: "item " + id, SalePrice: decimal.NewFromInt(price)}
}

type cartFixture struct {
	store *cart.Store
	cell  *state.Cell[[]cart.Line]
	users fakeUsers
	add   *AddToCartHandler
}

func newCartFixture(user *domain.User) cartFixture {
	store := cart.NewStore(storage.NewMemoryStore(), "TEST")
	cell := state.NewCell([]cart.Line{})
	users := fakeUsers{user: user}
	return cartFixture{
		store: store,
		cell:  cell,
		users: users,
		add:   NewAddToCartHandler(store, users, cell),
	}
}

func TestAddToCart_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(consumer)

	lines, err := f.add.Handle(ctx, AddToCartCommand{Item: item("a", 1000)})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)

	_, err = f.add.Handle(ctx, AddToCartCommand{Item: item("a", 1000), Quantity: 3})
	assert.ErrorIs(t, err, cart.ErrAlreadyInCart)

	stored, err := f.store.List(ctx, consumer.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, f.cell.Get(), 1)
}

func TestAddToCart_NeedsSignIn(t *testing.T) {
	f := newCartFixture(nil)
	_, err := f.add.Handle(context.Background(), AddToCartCommand{Item: item("a", 1)})
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestCartCommands_KeepCellInStep(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(consumer)
	for _, id := range []string{"a", "b", "c"} {
		_, err := f.add.Handle(ctx, AddToCartCommand{Item: item(id, 100)})
		require.NoError(t, err)
	}

	_, err := NewSetQuantityHandler(f.store, f.users, f.cell).Handle(ctx, SetQuantityCommand{ProductID: "b", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, f.cell.Get()[1].Quantity)

	_, err = NewRemoveFromCartHandler(f.store, f.users, f.cell).Handle(ctx, RemoveFromCartCommand{ProductIDs: []string{"a", "c"}})
	require.NoError(t, err)
	assert.Len(t, f.cell.Get(), 1)

	require.NoError(t, NewResetCartHandler(f.store, f.users, f.cell).Handle(ctx))
	assert.Empty(t, f.cell.Get())
}

func TestCartCommands_CellMatchesStorageUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(consumer)
	setQty := NewSetQuantityHandler(f.store, f.users, f.cell)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("item-%d", i)
			_, err := f.add.Handle(ctx, AddToCartCommand{Item: item(id, 100)})
			assert.NoError(t, err)
			_, err = setQty.Handle(ctx, SetQuantityCommand{ProductID: id, Quantity: i + 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.store.List(ctx, consumer.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 32)

	quantities := func(lines []cart.Line) map[string]int {
		out := make(map[string]int, len(lines))
		for _, l := range lines {
			out[l.ID] = l.Quantity
		}
		return out
	}
	assert.Equal(t, quantities(stored), quantities(f.cell.Get()))
	assert.Equal(t, 32, quantities(f.cell.Get())["item-31"])
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, backend *fakeBackend) (cartFixture, *CheckoutHandler) {
		f := newCartFixture(consumer)
		_, err := f.add.Handle(ctx, AddToCartCommand{Item: item("a", 1000), Quantity: 2})
		require.NoError(t, err)
		_, err = f.add.Handle(ctx, AddToCartCommand{Item: item("b", 500)})
		require.NoError(t, err)
		return f, NewCheckoutHandler(backend, f.store, f.users, f.cell)
	}

	t.Run("ordered lines leave the list", func(t *testing.T) {
		backend := &fakeBackend{}
		f, h := setup(t, backend)

		res, err := h.Handle(ctx, CheckoutCommand{ProductIDs: []string{"a"}, DeliverRequest: "ring twice"})
		require.NoError(t, err)
		assert.Equal(t, "order-1", res.OrderID)
		assert.True(t, res.Summary.ItemsTotal.Equal(decimal.NewFromInt(2000)))
		assert.True(t, res.Summary.Total.Equal(decimal.NewFromInt(4500)))

		require.Len(t, backend.orders, 1)
		in := backend.orders[0]
		assert.Equal(t, "1 Main St", in.Destination)
		assert.Equal(t, []domain.CreateOrderItemInput{{ItemID: "a", Count: 2}}, in.CreateOrderItems)

		lines, err := f.store.List(ctx, consumer.ID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "b", lines[0].ID)
		assert.Len(t, f.cell.Get(), 1)
	})

	t.Run("failed order keeps the list intact", func(t *testing.T) {
		backend := &fakeBackend{orderErr: &api.Failure{Status: 400, Reason: "out of stock"}}
		f, h := setup(t, backend)

		_, err := h.Handle(ctx, CheckoutCommand{ProductIDs: []string{"a", "b"}})
		var failure *api.Failure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, "out of stock", failure.Reason)

		lines, err := f.store.List(ctx, consumer.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("invalid input never reaches the backend", func(t *testing.T) {
		backend := &fakeBackend{}
		_, h := setup(t, backend)

		_, err := h.Handle(ctx, CheckoutCommand{ProductIDs: []string{"a"}, DeliverRequest: strings.Repeat("x", 51)})
		assert.True(t, validation.IsValidationError(err))
		assert.Empty(t, backend.orders)
	})

	t.Run("repeated ids order the line once", func(t *testing.T) {
		backend := &fakeBackend{}
		_, h := setup(t, backend)

		res, err := h.Handle(ctx, CheckoutCommand{ProductIDs: []string{"a", "a"}})
		require.NoError(t, err)
		assert.Len(t, res.Lines, 1)
		require.Len(t, backend.orders, 1)
		assert.Equal(t, []domain.CreateOrderItemInput{{ItemID: "a", Count: 2}}, backend.orders[0].CreateOrderItems)
	})

	t.Run("unknown lines are rejected", func(t *testing.T) {
		backend := &fakeBackend{}
		_, h := setup(t, backend)

		_, err := h.Handle(ctx, CheckoutCommand{ProductIDs: []string{"zzz"}})
		assert.ErrorIs(t, err, cart.ErrNotInCart)
		assert.Empty(t, backend.orders)
	})
}

func TestSummarize_AddsDeliveryFee(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.Total.Equal(decimal.NewFromInt(2500)))
}

func TestCancelOrderItem(t *testing.T) {
	backend := &fakeBackend{}
	h := NewCancelOrderItemHandler(backend)
	ctx := context.Background()

	_, err := h.Handle(ctx, CancelOrderItemCommand{OrderItem: domain.OrderItem{Entity: domain.Entity{ID: "x"}, Status: domain.OrderDelivering}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, backend.cancels)

	updated, err := h.Handle(ctx, CancelOrderItemCommand{OrderItem: domain.OrderItem{Entity: domain.Entity{ID: "x"}, Status: domain.OrderChecking}})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCanceled, updated.Status)
}

func TestAdvanceOrderItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		status  domain.OrderStatus
		expect  domain.OrderStatus
		want    domain.OrderStatus
		wantErr error
	}{
		{name: "accept", user: provider, status: domain.OrderChecking, expect: domain.OrderReceived, want: domain.OrderReceived},
		{name: "ship", user: provider, status: domain.OrderReceived, want: domain.OrderDelivering},
		{name: "deliver", user: provider, status: domain.OrderDelivering, want: domain.OrderDelivered},
		{name: "accept twice", user: provider, status: domain.OrderReceived, expect: domain.OrderReceived, wantErr: ErrInvalidTransition},
		{name: "past delivered", user: provider, status: domain.OrderDelivered, wantErr: ErrInvalidTransition},
		{name: "canceled", user: provider, status: domain.OrderCanceled, wantErr: ErrInvalidTransition},
		{name: "consumer", user: consumer, status: domain.OrderChecking, wantErr: ErrProviderOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			h := NewAdvanceOrderItemHandler(backend, fakeUsers{user: tt.user})

			updated, err := h.Handle(ctx, AdvanceOrderItemCommand{
				OrderItem: domain.OrderItem{Entity: domain.Entity{ID: "oi"}, Status: tt.status},
				Expect:    tt.expect,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, backend.statuses)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.Status)
			assert.Equal(t, []domain.OrderStatus{tt.want}, backend.statuses)
		})
	}
}

func TestCreateReview(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	h := NewCreateReviewHandler(backend)

	_, err := h.Handle(ctx, CreateReviewCommand{ItemID: "i", Content: "good", Rating: 6})
	assert.True(t, validation.IsValidationError(err))
	assert.Empty(t, backend.reviews)

	review, err := h.Handle(ctx, CreateReviewCommand{
		ItemID:  "i",
		Content: "good",
		Rating:  5,
		Files:   []api.UploadFile{{Name: "a.png", Content: strings.NewReader("png")}},
	})
	require.NoError(t, err)
	require.Len(t, backend.uploads, 1)
	assert.Equal(t, "review-1", backend.uploads[0].ImagableID)
	assert.Equal(t, "Review", backend.uploads[0].ImagableType)
	assert.Equal(t, []string{"/uploads/a.png"}, review.Images)
}

func TestSaveItem(t *testing.T) {
	ctx := context.Background()
	in := domain.ItemInput{Name: "Lamp", Price: decimal.NewFromInt(15000), Stock: 3, CategoryName: "Home"}

	t.Run("providers only", func(t *testing.T) {
		backend := &fakeBackend{}
		_, err := NewSaveItemHandler(backend, fakeUsers{user: consumer}).Handle(ctx, SaveItemCommand{Input: in})
		assert.ErrorIs(t, err, ErrProviderOnly)
		assert.Empty(t, backend.added)
	})

	t.Run("uploads against the new item", func(t *testing.T) {
		backend := &fakeBackend{}
		item, err := NewSaveItemHandler(backend, fakeUsers{user: provider}).Handle(ctx, SaveItemCommand{
			Input: in,
			Files: []api.UploadFile{{Name: "lamp.jpg", Content: strings.NewReader("jpg")}},
		})
		require.NoError(t, err)
		assert.Equal(t, "item-new", item.ID)
		require.Len(t, backend.uploads, 1)
		assert.Equal(t, "item-new", backend.uploads[0].ImagableID)
		assert.Equal(t, []string{"/uploads/lamp.jpg"}, item.ProductImages)
	})

	t.Run("invalid price", func(t *testing.T) {
		backend := &fakeBackend{}
		bad := in
		bad.Price = decimal.Zero
		_, err := NewSaveItemHandler(backend, fakeUsers{user: provider}).Handle(ctx, SaveItemCommand{Input: bad})
		assert.True(t, validation.IsValidationError(err))
		assert.Empty(t, backend.added)
	})
}

func TestLikedToCart(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{likeList: domain.LikeList{Items: []domain.Item{item("a", 700)}}}
	list := likes.New(backend, state.NewCell(domain.LikeList{}))
	require.NoError(t, list.Load(ctx))

	f := newCartFixture(consumer)
	h := NewLikedToCartHandler(list, f.add)

	lines, err := h.Handle(ctx, LikedToCartCommand{ItemID: "a"})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.True(t, list.Contains("a"))

	_, err = h.Handle(ctx, LikedToCartCommand{ItemID: "a"})
	assert.ErrorIs(t, err, cart.ErrAlreadyInCart)

	_, err = h.Handle(ctx, LikedToCartCommand{ItemID: "zzz"})
	assert.Error(t, err)
}

func TestLikeItem_RevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{likeErr: errors.New("rejected")}
	list := likes.New(backend, state.NewCell(domain.LikeList{}))
	h := NewLikeItemHandler(list)

	err := h.Handle(ctx, LikeItemCommand{Item: item("a", 1), Liked: true})
	assert.Error(t, err)
	assert.False(t, list.Contains("a"))
	assert.Equal(t, 1, backend.likeCalls)
}
