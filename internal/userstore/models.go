package userstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
)

// UserRecord is the persisted per-user entity: profile, cart, favorites,
// purchase and gift history, running totals and preferences. The store is
// the only writer; everything else reads projections of it.
type UserRecord struct {
	ID                  int              `json:"id"`
	Username            string           `json:"username"`
	Email               string           `json:"email"`
	Favorites           []int            `json:"favorites"`
	CurrentCart         []CartItem       `json:"current_cart"`
	PurchaseHistory     []PurchaseRecord `json:"purchase_history"`
	GiftsReceived       []GiftRecord     `json:"gifts_received"`
	GiftsSent           []GiftRecord     `json:"gifts_sent"`
	TotalPurchases      decimal.Decimal  `json:"total_purchases"`
	TotalItemsPurchased int              `json:"total_items_purchased"`
	LastLoginAt         time.Time        `json:"last_login_at"`
	PreferredCurrency   string           `json:"preferred_currency"`
	PreferredLanguage   string           `json:"preferred_language"`
}

func newUserRecord(id int, username, email string, now time.Time) UserRecord {
	return UserRecord{
		ID:                  id,
		Username:            username,
		Email:               email,
		Favorites:           []int{},
		CurrentCart:         []CartItem{},
		PurchaseHistory:     []PurchaseRecord{},
		GiftsReceived:       []GiftRecord{},
		GiftsSent:           []GiftRecord{},
		TotalPurchases:      decimal.Zero,
		LastLoginAt:         now,
		PreferredCurrency:   string(enums.CurrencyUSD),
		PreferredLanguage:   string(enums.LanguageEnglish),
	}
}

// HasFavorite reports whether the product id is in the favorites set.
func (u UserRecord) HasFavorite(productID int) bool {
	for _, id := range u.Favorites {
		if id == productID {
			return true
		}
	}
	return false
}

// CartItem is one cart line. The product is a snapshot taken when the item
// was added, not a live reference. The id is a local token, not the product
// id, since the same product can be re-added after removal.
type CartItem struct {
	ID        string          `json:"id"`
	ProductID int             `json:"product_id"`
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

func newCartItem(product catalog.Product, quantity int, now time.Time) CartItem {
	return CartItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		AddedAt:   now,
	}
}

// TotalPrice returns price x quantity for the line.
func (c CartItem) TotalPrice() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartTotal sums the line totals of a cart.
func CartTotal(cart []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// CartUnits sums the quantities of a cart.
func CartUnits(cart []CartItem) int {
	units := 0
	for _, item := range cart {
		units += item.Quantity
	}
	return units
}

// PurchaseRecord is an immutable receipt created once per completed
// checkout. Line items are copied out of the cart so later product edits
// cannot rewrite history.
type PurchaseRecord struct {
	ID            string          `json:"id"`
	OrderID       int             `json:"order_id"`
	UserID        int             `json:"user_id"`
	PurchasedAt   time.Time       `json:"purchased_at"`
	Items         []PurchasedItem `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	IsGift        bool            `json:"is_gift"`
	GiftRecipient *Recipient      `json:"gift_recipient,omitempty"`
	GiftMessage   string          `json:"gift_message,omitempty"`
}

// PurchasedItem is a frozen cart line inside a purchase record.
type PurchasedItem struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// Recipient identifies the directory user a gift was addressed to.
type Recipient struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newPurchaseRecord(cart []CartItem, orderID, userID int, currency string, isGift bool, recipient *Recipient, message string, now time.Time) PurchaseRecord {
	items := make([]PurchasedItem, 0, len(cart))
	for _, item := range cart {
		items = append(items, PurchasedItem{
			ProductID: item.Product.ID,
			Title:     item.Product.Title,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Image:     item.Product.Image,
		})
	}
	return PurchaseRecord{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		UserID:        userID,
		PurchasedAt:   now,
		Items:         items,
		TotalAmount:   CartTotal(cart),
		Currency:      currency,
		IsGift:        isGift,
		GiftRecipient: recipient,
		GiftMessage:   message,
	}
}

// GiftRecord is written to the sender's giftsSent and, when the recipient
// record resolves, to the recipient's giftsReceived. Both sides hold the
// same content.
type GiftRecord struct {
	ID          string          `json:"id"`
	ProductIDs  []int           `json:"product_ids"`
	FromUserID  int             `json:"from_user_id"`
	ToUserID    int             `json:"to_user_id"`
	Message     string          `json:"message,omitempty"`
	SentAt      time.Time       `json:"sent_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
