package state

import (
	"github.com/tair/storefront/internal/cart"
	"github.com/tair/storefront/internal/domain"
)

// Auth is the signed-in identity
type Auth struct {
	Token       string
	CSRF        string
	CurrentUser *domain.User
}

// Authenticated reports whether a user is signed in
func (a Auth) Authenticated() bool {
	return a.Token != "" && a.CurrentUser != nil
}

// UserID returns the signed-in user's id or ""
func (a Auth) UserID() string {
	if a.CurrentUser == nil {
		return ""
	}
	return a.CurrentUser.ID
}

// App is the single state container of a client process. Writers receive
// the cells they own at construction; everything else sees views.
type App struct {
	auth  *Cell[Auth]
	cart  *Cell[[]cart.Line]
	likes *Cell[domain.LikeList]
}

// NewApp creates an empty, signed-out container
func NewApp() *App {
	return &App{
		auth:  NewCell(Auth{}),
		cart:  NewCell([]cart.Line{}),
		likes: NewCell(domain.LikeList{}),
	}
}

func (a *App) Auth() View[Auth]             { return a.auth.View() }
func (a *App) Cart() View[[]cart.Line]      { return a.cart.View() }
func (a *App) Likes() View[domain.LikeList] { return a.likes.View() }

// AuthCell is handed to the session manager only
func (a *App) AuthCell() *Cell[Auth] { return a.auth }

// CartCell is handed to cart commands only
func (a *App) CartCell() *Cell[[]cart.Line] { return a.cart }

// LikesCell is handed to the like list only
func (a *App) LikesCell() *Cell[domain.LikeList] { return a.likes }

// Clear resets every cell to its signed-out value
func (a *App) Clear() {
	a.auth.Set(Auth{})
	a.cart.Set([]cart.Line{})
	a.likes.Set(domain.LikeList{})
}
