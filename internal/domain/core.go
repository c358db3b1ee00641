package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity holds the fields every backend record carries
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// CoreOutput is the envelope every endpoint answers with
type CoreOutput struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Pagination is the envelope of every paged list endpoint
type Pagination struct {
	TotalPages   int  `json:"totalPages,omitempty"`
	TotalResults int  `json:"totalResults"`
	NextPage     int  `json:"nextPage,omitempty"`
	HasNextPage  bool `json:"hasNextPage"`
}

// Token is the credential pair issued on login and signup
type Token struct {
	Token string `json:"token"`
	CSRF  string `json:"csrf"`
}

// Empty reports whether no credentials are present
func (t Token) Empty() bool {
	return t.Token == ""
}

// SortState orders item feeds
type SortState string

const (
	SortNewest    SortState = "createdAt desc"
	SortPriceDesc SortState = "price desc"
	SortPriceAsc  SortState = "price asc"
)

// SortStates lists the accepted sort states in display order
var SortStates = []SortState{SortNewest, SortPriceDesc, SortPriceAsc}

// Valid reports whether s is a known sort state
func (s SortState) Valid() bool {
	for _, known := range SortStates {
		if s == known {
			return true
		}
	}
	return false
}

// DeliveryFee is added to every order summary
var DeliveryFee = decimal.NewFromInt(2500)
