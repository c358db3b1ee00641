package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/tair/storefront/internal/domain"
)

type account struct {
	user         domain.User
	passwordHash []byte
	csrf         string
}

type orderItemRecord struct {
	item       domain.OrderItem
	consumerID string
	providerID string
}

type refundRecord struct {
	refund     domain.Refund
	consumerID string
	providerID string
}

// Store is the in-memory state of the sandbox backend
type Store struct {
	mu sync.RWMutex

	accounts map[string]*account
	byEmail  map[string]string

	categories []*domain.Category
	items      map[string]*domain.Item
	itemOrder  []string

	orders     map[string]*domain.Order
	orderOrder []string
	orderItems map[string]*orderItemRecord
	refunds    []*refundRecord

	likes   map[string][]string
	reviews map[string][]domain.Review
	images  []domain.Image

	passwordCost int
	now          func() time.Time
}

// NewStore creates an empty store. passwordCost is the bcrypt cost, zero
// selects bcrypt.DefaultCost.
func NewStore(passwordCost int) *Store {
	if passwordCost == 0 {
		passwordCost = bcrypt.DefaultCost
	}
	return &Store{
		accounts:     make(map[string]*account),
		byEmail:      make(map[string]string),
		items:        make(map[string]*domain.Item),
		orders:       make(map[string]*domain.Order),
		orderItems:   make(map[string]*orderItemRecord),
		likes:        make(map[string][]string),
		reviews:      make(map[string][]domain.Review),
		passwordCost: passwordCost,
		now:          time.Now,
	}
}

func (s *Store) entity() domain.Entity {
	now := s.now().UTC()
	return domain.Entity{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

// Accounts

func (s *Store) createAccount(in domain.SignUpInput) (*account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, taken := s.byEmail[email]; taken {
		return nil, conflict("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = domain.RoleConsumer
	}

	acc := &account{
		user: domain.User{
			Entity:   s.entity(),
			Email:    email,
			Name:     in.Name,
			Role:     role,
			Phone:    in.Phone,
			Address1: in.Address1,
		},
		passwordHash: hash,
		csrf:         uuid.NewString(),
	}
	s.accounts[acc.user.ID] = acc
	s.byEmail[email] = acc.user.ID
	return acc, nil
}

func (s *Store) authenticate(in domain.SignInInput) (*account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(in.Email))]
	if !ok {
		return nil, unauthorized("wrong email or password")
	}
	acc := s.accounts[id]
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(in.Password)); err != nil {
		return nil, unauthorized("wrong email or password")
	}
	acc.csrf = uuid.NewString()
	return acc, nil
}

// session returns a copy of the account's user and its csrf token
func (s *Store) session(userID string) (domain.User, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return domain.User{}, "", false
	}
	return acc.user, acc.csrf, true
}

func (s *Store) endSession(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[userID]; ok {
		acc.csrf = uuid.NewString()
	}
}

func (s *Store) editProfile(userID string, in domain.EditProfileInput) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return domain.User{}, notFound("user not found")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if owner, taken := s.byEmail[email]; taken && owner != userID {
		return domain.User{}, conflict("email is already registered")
	}
	delete(s.byEmail, acc.user.Email)
	s.byEmail[email] = userID

	acc.user.Email = email
	acc.user.Name = in.Name
	acc.user.Phone = in.Phone
	acc.user.Address1 = in.Address1
	acc.user.UpdatedAt = s.now().UTC()
	return acc.user, nil
}

func (s *Store) changePassword(userID string, in domain.ChangePasswordInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return notFound("user not found")
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(in.CurrentPassword)); err != nil {
		return badRequest("current password is wrong")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.passwordCost)
	if err != nil {
		return err
	}
	acc.passwordHash = hash
	return nil
}

// Catalog

func (s *Store) listCategories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	return out
}

func (s *Store) categoryTitle(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.ID == id {
			return c.Title, nil
		}
	}
	return "", notFound("category not found")
}

// categoryNamed finds a category by title, creating it when missing. Caller
// holds the write lock.
func (s *Store) categoryNamed(title string) *domain.Category {
	title = strings.TrimSpace(title)
	for _, c := range s.categories {
		if strings.EqualFold(c.Title, title) {
			return c
		}
	}
	c := &domain.Category{Entity: s.entity(), Title: title}
	s.categories = append(s.categories, c)
	return c
}

// itemFilter selects items for a feed
type itemFilter struct {
	query      string
	categoryID string
	providerID string
}

func (f itemFilter) match(item *domain.Item) bool {
	if f.query != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.query)) {
		return false
	}
	if f.categoryID != "" && (item.Category == nil || item.Category.ID != f.categoryID) {
		return false
	}
	if f.providerID != "" && (item.Provider == nil || item.Provider.ID != f.providerID) {
		return false
	}
	return true
}

func (s *Store) listItems(f itemFilter, order domain.SortState) []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0)
	// newest first
	for i := len(s.itemOrder) - 1; i >= 0; i-- {
		item := s.items[s.itemOrder[i]]
		if f.match(item) {
			out = append(out, *item)
		}
	}

	switch order {
	case domain.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SalePrice.LessThan(out[j].SalePrice) })
	case domain.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SalePrice.GreaterThan(out[j].SalePrice) })
	}
	return out
}

func (s *Store) getItem(id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, notFound("item not found")
	}
	return *item, nil
}

func (s *Store) addItem(provider domain.User, in domain.ItemInput) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := provider
	item := &domain.Item{
		Entity:        s.entity(),
		Name:          strings.TrimSpace(in.Name),
		Provider:      &owner,
		SalePrice:     in.Price,
		Stock:         in.Stock,
		ProductImages: append([]string(nil), in.Images...),
		Category:      s.categoryNamed(in.CategoryName),
		Infos:         numberInfos(in.Infos),
	}
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)
	return *item
}

func (s *Store) editItem(providerID, itemID string, in domain.ItemInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ownedItem(providerID, itemID)
	if err != nil {
		return err
	}
	item.Name = strings.TrimSpace(in.Name)
	item.SalePrice = in.Price
	item.Stock = in.Stock
	item.Category = s.categoryNamed(in.CategoryName)
	item.Infos = numberInfos(in.Infos)
	if in.Images != nil {
		item.ProductImages = append([]string(nil), in.Images...)
	}
	item.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) deleteItem(providerID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedItem(providerID, itemID); err != nil {
		return err
	}
	delete(s.items, itemID)
	for i, id := range s.itemOrder {
		if id == itemID {
			s.itemOrder = append(s.itemOrder[:i], s.itemOrder[i+1:]...)
			break
		}
	}
	for user, ids := range s.likes {
		s.likes[user] = removeID(ids, itemID)
	}
	return nil
}

// ownedItem requires the write lock
func (s *Store) ownedItem(providerID, itemID string) (*domain.Item, error) {
	item, ok := s.items[itemID]
	if !ok {
		return nil, notFound("item not found")
	}
	if item.Provider == nil || item.Provider.ID != providerID {
		return nil, forbidden("item belongs to another provider")
	}
	return item, nil
}

func numberInfos(infos []domain.InfoItem) []domain.InfoItem {
	out := make([]domain.InfoItem, len(infos))
	for i, info := range infos {
		out[i] = domain.InfoItem{ID: i + 1, Key: info.Key, Value: info.Value}
	}
	return out
}

// attachImages records uploaded files against an item or a review
func (s *Store) attachImages(user domain.User, imagableType, imagableID string, paths []string) ([]domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *[]string
	switch imagableType {
	case "Item":
		item, err := s.ownedItem(user.ID, imagableID)
		if err != nil {
			return nil, err
		}
		target = &item.ProductImages
	case "Review":
		review, ok := s.review(imagableID)
		if !ok {
			return nil, notFound("review not found")
		}
		if review.Commenter == nil || review.Commenter.ID != user.ID {
			return nil, forbidden("review belongs to another user")
		}
		target = &review.Images
	default:
		return nil, badRequest("imagable_type must be Item or Review")
	}

	images := make([]domain.Image, 0, len(paths))
	for _, path := range paths {
		img := domain.Image{Entity: s.entity(), ImagableType: imagableType, ImagableID: imagableID, ImagePath: path}
		images = append(images, img)
		*target = append(*target, path)
	}
	s.images = append(s.images, images...)
	return images, nil
}

// review finds a stored review by id. Caller holds the lock.
func (s *Store) review(id string) (*domain.Review, bool) {
	for itemID := range s.reviews {
		list := s.reviews[itemID]
		for i := range list {
			if list[i].ID == id {
				return &list[i], true
			}
		}
	}
	return nil, false
}

// Orders

func (s *Store) createOrder(consumer domain.User, in domain.CreateOrderInput) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// check every line before touching stock
	for _, line := range in.CreateOrderItems {
		item, ok := s.items[line.ItemID]
		if !ok {
			return nil, notFound("item " + line.ItemID + " not found")
		}
		if item.Stock < line.Count {
			return nil, badRequest(item.Name + " is out of stock")
		}
	}

	buyer := consumer
	order := &domain.Order{
		Entity:         s.entity(),
		Consumer:       &buyer,
		Destination:    in.Destination,
		DeliverRequest: in.DeliverRequest,
		Total:          domain.DeliveryFee,
	}
	order.OrderedAt = order.CreatedAt.Format(time.RFC3339)

	for _, line := range in.CreateOrderItems {
		item := s.items[line.ItemID]
		item.Stock -= line.Count
		order.Total = order.Total.Add(item.SalePrice.Mul(decimal.NewFromInt(int64(line.Count))))

		snapshot := *item
		rec := &orderItemRecord{
			item: domain.OrderItem{
				Entity:  s.entity(),
				OrderID: order.ID,
				Item:    &snapshot,
				Count:   line.Count,
				Status:  domain.OrderChecking,
			},
			consumerID: consumer.ID,
		}
		if item.Provider != nil {
			rec.providerID = item.Provider.ID
		}
		s.orderItems[rec.item.ID] = rec
		order.OrderItems = append(order.OrderItems, rec.item)
	}

	s.orders[order.ID] = order
	s.orderOrder = append(s.orderOrder, order.ID)
	return s.orderView(order), nil
}

// orderView returns a copy of order with current item statuses. Caller
// holds the lock.
func (s *Store) orderView(order *domain.Order) *domain.Order {
	view := *order
	view.OrderItems = make([]domain.OrderItem, len(order.OrderItems))
	for i, oi := range order.OrderItems {
		view.OrderItems[i] = s.orderItems[oi.ID].item
	}
	return &view
}

func (s *Store) consumerOrders(consumerID string) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0)
	for i := len(s.orderOrder) - 1; i >= 0; i-- {
		order := s.orders[s.orderOrder[i]]
		if order.Consumer != nil && order.Consumer.ID == consumerID {
			out = append(out, *s.orderView(order))
		}
	}
	return out
}

func (s *Store) providerOrderItems(providerID string) []domain.OrderItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.OrderItem, 0)
	for i := len(s.orderOrder) - 1; i >= 0; i-- {
		for _, oi := range s.orders[s.orderOrder[i]].OrderItems {
			if rec := s.orderItems[oi.ID]; rec.providerID == providerID {
				out = append(out, rec.item)
			}
		}
	}
	return out
}

// cancelOrderItem lets the buyer cancel a line still being checked
func (s *Store) cancelOrderItem(consumerID, orderItemID string) (domain.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orderItems[orderItemID]
	if !ok {
		return domain.OrderItem{}, notFound("order item not found")
	}
	if rec.consumerID != consumerID {
		return domain.OrderItem{}, forbidden("order item belongs to another user")
	}
	if !rec.item.Status.CanCancel() {
		return domain.OrderItem{}, badRequest("only orders being checked can be canceled")
	}

	rec.item.Status = domain.OrderCanceled
	rec.item.UpdatedAt = s.now().UTC()
	if rec.item.Item != nil {
		if item, ok := s.items[rec.item.Item.ID]; ok {
			item.Stock += rec.item.Count
		}
	}
	return rec.item, nil
}

// updateOrderItem moves a line one step forward on behalf of its provider
func (s *Store) updateOrderItem(providerID, orderItemID string, next domain.OrderStatus) (domain.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orderItems[orderItemID]
	if !ok {
		return domain.OrderItem{}, notFound("order item not found")
	}
	if rec.providerID != providerID {
		return domain.OrderItem{}, forbidden("order item belongs to another provider")
	}
	if !next.Valid() || next == domain.OrderCanceled || !rec.item.Status.CanTransition(next) {
		return domain.OrderItem{}, badRequest("cannot move order from " + string(rec.item.Status) + " to " + string(next))
	}

	rec.item.Status = next
	rec.item.UpdatedAt = s.now().UTC()
	return rec.item, nil
}

// Refunds

func (s *Store) requestRefund(consumer domain.User, in domain.RequestRefundInput) (domain.OrderItem, domain.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orderItems[in.OrderItemID]
	if !ok {
		return domain.OrderItem{}, domain.Refund{}, notFound("order item not found")
	}
	if rec.consumerID != consumer.ID {
		return domain.OrderItem{}, domain.Refund{}, forbidden("order item belongs to another user")
	}
	if !rec.item.Status.CanRefund() {
		return domain.OrderItem{}, domain.Refund{}, badRequest("only delivered orders can be refunded")
	}
	if in.Count < 1 || in.Count > rec.item.Refundable() {
		return domain.OrderItem{}, domain.Refund{}, badRequest("refund count exceeds the refundable quantity")
	}
	if in.Status == domain.RefundRefunded && in.RefundPay == nil {
		return domain.OrderItem{}, domain.Refund{}, badRequest("refundPay is required for a refund")
	}

	refundee := consumer
	orderItem := rec.item
	refund := domain.Refund{
		Entity:             s.entity(),
		OrderItem:          &orderItem,
		Count:              in.Count,
		ProblemTitle:       in.ProblemTitle,
		ProblemDescription: in.ProblemDescription,
		Status:             in.Status,
		Refundee:           &refundee,
		RecallPlace:        in.RecallPlace,
		RecallDay:          in.RecallDay,
		RecallTitle:        in.RecallTitle,
		RecallDescription:  in.RecallDescription,
		SendPlace:          in.SendPlace,
		SendDay:            in.SendDay,
	}
	if in.Status == domain.RefundRefunded {
		pay := *in.RefundPay
		refund.RefundPay = &pay
	}

	rec.item.Refunded += in.Count
	s.refunds = append(s.refunds, &refundRecord{refund: refund, consumerID: consumer.ID, providerID: rec.providerID})
	return rec.item, refund, nil
}

func (s *Store) listRefunds(match func(*refundRecord) bool) []domain.Refund {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Refund, 0)
	for i := len(s.refunds) - 1; i >= 0; i-- {
		if match(s.refunds[i]) {
			out = append(out, s.refunds[i].refund)
		}
	}
	return out
}

// Likes

func (s *Store) likeList(user domain.User) domain.LikeList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner := user
	list := domain.LikeList{
		Entity:    domain.Entity{ID: user.ID},
		CreatedBy: &owner,
		Items:     make([]domain.Item, 0, len(s.likes[user.ID])),
	}
	for _, id := range s.likes[user.ID] {
		if item, ok := s.items[id]; ok {
			list.Items = append(list.Items, *item)
		}
	}
	return list
}

func (s *Store) like(userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return notFound("item not found")
	}
	for _, id := range s.likes[userID] {
		if id == itemID {
			return nil
		}
	}
	s.likes[userID] = append(s.likes[userID], itemID)
	return nil
}

func (s *Store) unlike(userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return notFound("item not found")
	}
	s.likes[userID] = removeID(s.likes[userID], itemID)
	return nil
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Reviews

func (s *Store) createReview(commenter domain.User, in domain.CreateReviewInput) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[in.ItemID]
	if !ok {
		return domain.Review{}, notFound("item not found")
	}

	author := commenter
	review := domain.Review{
		Entity:    s.entity(),
		Commenter: &author,
		ItemID:    in.ItemID,
		Content:   strings.TrimSpace(in.Content),
		Rating:    in.Rating,
		Images:    append([]string(nil), in.Images...),
	}
	review.ReviewedAt = review.CreatedAt.Format(time.RFC3339)

	s.reviews[in.ItemID] = append(s.reviews[in.ItemID], review)
	item.AvgRating = averageRating(s.reviews[in.ItemID])
	return review, nil
}

// itemReviews lists an item's reviews newest first with their average
func (s *Store) itemReviews(itemID string) ([]domain.Review, float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[itemID]; !ok {
		return nil, 0, notFound("item not found")
	}
	list := s.reviews[itemID]
	out := make([]domain.Review, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, averageRating(list), nil
}

func averageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	// one decimal place
	return float64(int(avg*10+0.5)) / 10
}
