package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	"github.com/shopstudy/shopstudy-backend/pkg/kv"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
	"github.com/shopstudy/shopstudy-backend/pkg/metrics"
)

const (
	profilesKey    = "user_profiles"
	currentUserKey = "current_user_id"
	lastUserIDKey  = "last_user_id"
)

// Store owns durable CRUD over user records. All records are serialized
// together under one key, so every mutation is a whole-collection
// read-modify-write. That keeps write cost proportional to the user count
// and makes concurrent writers a lost-update hazard; the intended usage is
// a single interactive writer, and nothing here adds locking beyond that.
//
// Mutations against a missing record are deliberate no-ops. A diagnostic
// counter and debug log make them observable without changing the contract.
type Store struct {
	kv      kv.Store
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
	clock   func() time.Time
}

// StoreParams groups the store's dependencies.
type StoreParams struct {
	KV      kv.Store
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Clock   func() time.Time
}

// NewStore builds a store over the given key-value backend.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, errors.New("kv store is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		kv:      params.KV,
		logg:    params.Logger,
		metrics: params.Metrics,
		clock:   clock,
	}, nil
}

// CreateUser allocates the next sequential id, persists a fresh record with
// empty collections and default preferences, and returns it.
func (s *Store) CreateUser(ctx context.Context, username, email string) (UserRecord, error) {
	id, err := s.nextUserID(ctx)
	if err != nil {
		return UserRecord{}, err
	}
	user := newUserRecord(id, username, email, s.clock())
	if err := s.SaveUser(ctx, user); err != nil {
		return UserRecord{}, err
	}
	return user, nil
}

// User returns the record with the given id, or nil when absent. Absence is
// a valid result, not an error.
func (s *Store) User(ctx context.Context, id int) (*UserRecord, error) {
	users, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			user := users[i]
			return &user, nil
		}
	}
	return nil, nil
}

// UserByUsername scans for the first record with the given username. No
// password check happens here; this system has no real authentication.
func (s *Store) UserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	users, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			user := users[i]
			return &user, nil
		}
	}
	return nil, nil
}

// SaveUser upserts the record by id: replaces when present, appends when
// new. This is the single mutation primitive; every higher-level mutation
// funnels through it.
func (s *Store) SaveUser(ctx context.Context, user UserRecord) error {
	users, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}
	return s.saveAll(ctx, users)
}

// SetCurrentUser points the active-user marker at the given id.
func (s *Store) SetCurrentUser(ctx context.Context, id int) error {
	return s.kv.Set(ctx, currentUserKey, []byte(strconv.Itoa(id)))
}

// CurrentUserID returns the active-user pointer, reporting whether one is set.
func (s *Store) CurrentUserID(ctx context.Context) (int, bool, error) {
	raw, err := s.kv.Get(ctx, currentUserKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// CurrentUser resolves the active-user pointer to its record. Returns nil
// when no user is active or the pointed-at record is gone.
func (s *Store) CurrentUser(ctx context.Context) (*UserRecord, error) {
	id, ok, err := s.CurrentUserID(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return s.User(ctx, id)
}

// Logout clears the active-user pointer. The records themselves stay.
func (s *Store) Logout(ctx context.Context) error {
	return s.kv.Delete(ctx, currentUserKey)
}

// TouchLastLogin stamps the record's last login time.
func (s *Store) TouchLastLogin(ctx context.Context, userID int) error {
	return s.mutateUser(ctx, "touch_last_login", userID, func(user *UserRecord) {
		user.LastLoginAt = s.clock()
	})
}

// AddToCart merges the product into the cart: an existing line for the same
// product gains quantity, otherwise a new line is appended.
func (s *Store) AddToCart(ctx context.Context, product catalog.Product, quantity, userID int) error {
	return s.mutateUser(ctx, "add_to_cart", userID, func(user *UserRecord) {
		for i := range user.CurrentCart {
			if user.CurrentCart[i].ProductID == product.ID {
				user.CurrentCart[i].Quantity += quantity
				return
			}
		}
		user.CurrentCart = append(user.CurrentCart, newCartItem(product, quantity, s.clock()))
	})
}

// UpdateCartItemQuantity sets the line's quantity; zero or less removes the
// line so the cart never holds a zero-quantity item.
func (s *Store) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity, userID int) error {
	return s.mutateUser(ctx, "update_cart_item_quantity", userID, func(user *UserRecord) {
		for i := range user.CurrentCart {
			if user.CurrentCart[i].ID != itemID {
				continue
			}
			if quantity <= 0 {
				user.CurrentCart = append(user.CurrentCart[:i], user.CurrentCart[i+1:]...)
			} else {
				user.CurrentCart[i].Quantity = quantity
			}
			return
		}
	})
}

// RemoveFromCart drops the line with the given item id, if present.
func (s *Store) RemoveFromCart(ctx context.Context, itemID string, userID int) error {
	return s.mutateUser(ctx, "remove_from_cart", userID, func(user *UserRecord) {
		kept := user.CurrentCart[:0]
		for _, item := range user.CurrentCart {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		user.CurrentCart = kept
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context, userID int) error {
	return s.mutateUser(ctx, "clear_cart", userID, func(user *UserRecord) {
		user.CurrentCart = []CartItem{}
	})
}

// ToggleFavorite flips the product's membership in the favorites set and
// returns the resulting state: true means now favorited.
func (s *Store) ToggleFavorite(ctx context.Context, productID, userID int) (bool, error) {
	favorited := false
	err := s.mutateUser(ctx, "toggle_favorite", userID, func(user *UserRecord) {
		for i, id := range user.Favorites {
			if id == productID {
				user.Favorites = append(user.Favorites[:i], user.Favorites[i+1:]...)
				return
			}
		}
		user.Favorites = append(user.Favorites, productID)
		favorited = true
	})
	return favorited, err
}

// IsFavorite reports the product's membership in the favorites set. A
// missing user reads as not favorited.
func (s *Store) IsFavorite(ctx context.Context, productID, userID int) (bool, error) {
	user, err := s.User(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.HasFavorite(productID), nil
}

// PurchaseInput captures one completed checkout.
type PurchaseInput struct {
	Cart      []CartItem
	OrderID   int
	UserID    int
	Currency  string
	IsGift    bool
	Recipient *Recipient
	Message   string
}

// CompletePurchase appends the purchase record, bumps the running totals,
// fans a gift record out to the recipient when one resolves, and clears the
// cart. The purchaser and recipient writes are two independent
// read-modify-write passes: if the process dies between them, the sender
// side stands and the recipient side is lost. A missing recipient record is
// skipped without error; the sender's giftsSent entry is still created.
// Likewise a storage failure on the recipient write is logged, not
// returned: the purchase is already committed at that point, so the
// reception copy is at most once and may be lost.
func (s *Store) CompletePurchase(ctx context.Context, input PurchaseInput) error {
	now := s.clock()
	purchase := newPurchaseRecord(input.Cart, input.OrderID, input.UserID, input.Currency, input.IsGift, input.Recipient, input.Message, now)

	var gift *GiftRecord
	if input.IsGift && input.Recipient != nil {
		productIDs := make([]int, 0, len(input.Cart))
		for _, item := range input.Cart {
			productIDs = append(productIDs, item.ProductID)
		}
		gift = &GiftRecord{
			ID:          uuid.NewString(),
			ProductIDs:  productIDs,
			FromUserID:  input.UserID,
			ToUserID:    input.Recipient.ID,
			Message:     input.Message,
			SentAt:      now,
			TotalAmount: purchase.TotalAmount,
		}
	}

	err := s.mutateUser(ctx, "complete_purchase", input.UserID, func(user *UserRecord) {
		user.PurchaseHistory = append(user.PurchaseHistory, purchase)
		user.TotalPurchases = user.TotalPurchases.Add(purchase.TotalAmount)
		user.TotalItemsPurchased += CartUnits(input.Cart)
		if gift != nil {
			user.GiftsSent = append(user.GiftsSent, *gift)
		}
		user.CurrentCart = []CartItem{}
	})
	if err != nil {
		return err
	}

	if gift != nil {
		if err := s.mutateUser(ctx, "receive_gift", gift.ToUserID, func(user *UserRecord) {
			user.GiftsReceived = append(user.GiftsReceived, *gift)
		}); err != nil {
			if s.logg != nil {
				lctx := s.logg.WithFields(ctx, map[string]any{"gift_id": gift.ID, "to_user_id": gift.ToUserID})
				s.logg.Error(lctx, "gift reception write failed after purchase commit", err)
			}
		}
	}
	return nil
}

// UpdateSettings partially updates the preference fields. Nil means leave
// unchanged.
func (s *Store) UpdateSettings(ctx context.Context, userID int, currency, language *string) error {
	return s.mutateUser(ctx, "update_settings", userID, func(user *UserRecord) {
		if currency != nil {
			user.PreferredCurrency = *currency
		}
		if language != nil {
			user.PreferredLanguage = *language
		}
	})
}

// mutateUser runs the read-mutate-write cycle shared by every higher-level
// mutation. A missing record makes the whole call a no-op.
func (s *Store) mutateUser(ctx context.Context, op string, userID int, mutate func(*UserRecord)) error {
	users, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].ID == userID {
			mutate(&users[i])
			return s.saveAll(ctx, users)
		}
	}

	s.metrics.IncNotFoundNoOp(op)
	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{"op": op, "user_id": userID})
		s.logg.Debug(lctx, "store mutation no-op: user record not found")
	}
	return nil
}

func (s *Store) loadAll(ctx context.Context) ([]UserRecord, error) {
	raw, err := s.kv.Get(ctx, profilesKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []UserRecord{}, nil
		}
		return nil, err
	}

	var users []UserRecord
	if err := json.Unmarshal(raw, &users); err != nil {
		// Malformed blob reads as empty, matching the historical contract,
		// but an operator should hear about the data loss.
		s.metrics.IncDecodeFailure()
		if s.logg != nil {
			s.logg.Error(ctx, "persisted profiles failed to decode, treating as empty", err)
		}
		return []UserRecord{}, nil
	}
	return users, nil
}

func (s *Store) saveAll(ctx context.Context, users []UserRecord) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, profilesKey, raw)
}

func (s *Store) nextUserID(ctx context.Context) (int, error) {
	lastID := 0
	raw, err := s.kv.Get(ctx, lastUserIDKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return 0, err
	}
	if err == nil {
		if parsed, parseErr := strconv.Atoi(string(raw)); parseErr == nil {
			lastID = parsed
		}
	}
	nextID := lastID + 1
	if err := s.kv.Set(ctx, lastUserIDKey, []byte(strconv.Itoa(nextID))); err != nil {
		return 0, err
	}
	return nextID, nil
}
