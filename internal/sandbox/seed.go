package sandbox

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/storefront/internal/domain"
)

// Demo accounts created by Seed
const (
	SeedProviderEmail = "seller@storefront.test"
	SeedConsumerEmail = "buyer@storefront.test"
	SeedPassword      = "storefront"
)

type seedItem struct {
	name     string
	category string
	price    int64
	stock    int
}

var seedItems = []seedItem{
	{"Linen shirt", "Fashion", 39000, 20},
	{"Wool scarf", "Fashion", 25000, 15},
	{"Canvas sneakers", "Fashion", 59000, 8},
	{"Denim jacket", "Fashion", 89000, 5},
	{"Leather belt", "Fashion", 32000, 12},
	{"Cotton socks (3 pairs)", "Fashion", 9000, 50},
	{"Green tea 100g", "Food", 12000, 40},
	{"Honey 500g", "Food", 18000, 25},
	{"Granola", "Food", 8500, 60},
	{"Dark chocolate", "Food", 4500, 80},
	{"Olive oil 1L", "Food", 21000, 18},
	{"Ceramic mug", "Living", 14000, 30},
	{"Linen tablecloth", "Living", 45000, 6},
	{"Desk lamp", "Living", 67000, 9},
	{"Scented candle", "Living", 19000, 22},
	{"Cushion cover", "Living", 16000, 14},
	{"Wall clock", "Living", 38000, 7},
	{"Wireless earbuds", "Digital", 129000, 10},
	{"USB-C charger", "Digital", 29000, 35},
	{"Mechanical keyboard", "Digital", 149000, 4},
	{"Phone stand", "Digital", 11000, 45},
	{"Webcam", "Digital", 79000, 6},
	{"Laptop sleeve", "Digital", 27000, 16},
}

// Seed creates a provider and a consumer account and a small catalogue
// owned by the provider.
func (s *Store) Seed() error {
	provider, err := s.createAccount(domain.SignUpInput{
		Email:    SeedProviderEmail,
		Name:     "Demo Seller",
		Password: SeedPassword,
		Phone:    "010-0000-0001",
		Address1: "1 Market Street",
		Role:     domain.RoleProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to seed provider: %w", err)
	}

	if _, err := s.createAccount(domain.SignUpInput{
		Email:    SeedConsumerEmail,
		Name:     "Demo Buyer",
		Password: SeedPassword,
		Phone:    "010-0000-0002",
		Address1: "22 Harbour Road",
		Role:     domain.RoleConsumer,
	}); err != nil {
		return fmt.Errorf("failed to seed consumer: %w", err)
	}

	for _, it := range seedItems {
		s.addItem(provider.user, domain.ItemInput{
			Name:         it.name,
			Price:        decimal.NewFromInt(it.price),
			Stock:        it.stock,
			CategoryName: it.category,
			Infos:        []domain.InfoItem{{Key: "Origin", Value: "Sandbox"}},
		})
	}
	return nil
}
