package session

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/internal/currency"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// Snapshot is the derived view of the active session. Every field is
// recomputed from the persisted record after each mutation; nothing here is
// a source of truth.
type Snapshot struct {
	Authenticated      bool                  `json:"authenticated"`
	User               *userstore.UserRecord `json:"user,omitempty"`
	CartItemCount      int                   `json:"cartItemCount"`
	TotalAmountSpent   decimal.Decimal       `json:"totalAmountSpent"`
	FavoriteProductIDs []int                 `json:"favoriteProductIds"`
	GiftsSentCount     int                   `json:"giftsSentCount"`
	Currency           string                `json:"currency"`
	Language           string                `json:"language"`
	ExchangeRates      currency.RateTable    `json:"exchangeRates,omitempty"`
}

// Projector keeps an observable session snapshot in sync with the store.
// Mutating operations re-read the persisted record and notify subscribers
// with the rebuilt snapshot.
type Projector struct {
	store *userstore.Store
	rates *currency.Service
	logg  *logger.Logger

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

// ProjectorParams groups the projector's dependencies.
type ProjectorParams struct {
	Store  *userstore.Store
	Rates  *currency.Service
	Logger *logger.Logger
}

// NewProjector builds a projector in the logged-out state.
func NewProjector(params ProjectorParams) (*Projector, error) {
	if params.Store == nil {
		return nil, errors.New("user store is required")
	}
	if params.Rates == nil {
		return nil, errors.New("currency service is required")
	}
	return &Projector{
		store: params.Store,
		rates: params.Rates,
		logg:  params.Logger,
		snap:  emptySnapshot(),
		subs:  map[int]func(Snapshot){},
	}, nil
}

func emptySnapshot() Snapshot {
	return Snapshot{
		TotalAmountSpent:   decimal.Zero,
		FavoriteProductIDs: []int{},
		Currency:           string(enums.CurrencyUSD),
		Language:           string(enums.LanguageEnglish),
	}
}

// Snapshot returns the current session view.
func (p *Projector) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Subscribe registers an observer for snapshot changes and returns its
// unsubscribe function. Observers run synchronously after each change.
func (p *Projector) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// LoadCurrentUser restores the session from the persisted active-user
// pointer, if one is set. Called once at startup.
func (p *Projector) LoadCurrentUser(ctx context.Context) error {
	return p.resync(ctx)
}

// Login activates the given user and projects their record.
func (p *Projector) Login(ctx context.Context, userID int) error {
	if err := p.store.SetCurrentUser(ctx, userID); err != nil {
		return err
	}
	return p.resync(ctx)
}

// Logout clears the active-user pointer and resets the snapshot to the
// logged-out defaults. The stored record itself survives.
func (p *Projector) Logout(ctx context.Context) error {
	if err := p.store.Logout(ctx); err != nil {
		return err
	}
	p.publish(emptySnapshot())
	return nil
}

// Resync rebuilds the snapshot from the persisted record. Cart, favorite
// and purchase mutations all route through here after the store write.
func (p *Projector) Resync(ctx context.Context) error {
	return p.resync(ctx)
}

// SetCurrency switches the display currency, persists the preference on
// the active record, and refreshes the rate table. A failed rate refresh
// keeps the currency switch: conversion fails open until rates arrive.
func (p *Projector) SetCurrency(ctx context.Context, code string) error {
	cur, err := enums.ParseCurrency(code)
	if err != nil {
		return err
	}

	user, err := p.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		currencyStr := string(cur)
		if err := p.store.UpdateSettings(ctx, user.ID, &currencyStr, nil); err != nil {
			return err
		}
	}

	var refreshed currency.RateTable
	if err := p.rates.Refresh(ctx); err != nil {
		if p.logg != nil {
			p.logg.Error(p.logg.WithCurrency(ctx, string(cur)), "rate refresh after currency switch failed", err)
		}
	} else if rates, err := p.rates.Rates(ctx); err == nil {
		refreshed = rates
	}

	p.mu.Lock()
	p.snap.Currency = string(cur)
	if refreshed != nil {
		p.snap.ExchangeRates = refreshed
	}
	if user != nil {
		user.PreferredCurrency = string(cur)
		p.snap.User = user
	}
	snap := p.snap
	subs := p.subscribers()
	p.mu.Unlock()

	p.notify(snap, subs)
	return nil
}

// SetLanguage switches the display language and persists the preference on
// the active record.
func (p *Projector) SetLanguage(ctx context.Context, code string) error {
	lang, err := enums.ParseLanguage(code)
	if err != nil {
		return err
	}

	user, err := p.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		langStr := string(lang)
		if err := p.store.UpdateSettings(ctx, user.ID, nil, &langStr); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.snap.Language = string(lang)
	if user != nil {
		user.PreferredLanguage = string(lang)
		p.snap.User = user
	}
	snap := p.snap
	subs := p.subscribers()
	p.mu.Unlock()

	p.notify(snap, subs)
	return nil
}

// ConvertPrice reprices a base-currency amount into the session's display
// currency.
func (p *Projector) ConvertPrice(ctx context.Context, amount decimal.Decimal) decimal.Decimal {
	return p.rates.Convert(ctx, amount, string(enums.CurrencyUSD), p.Snapshot().Currency)
}

// FormatPrice converts and renders a base-currency amount for display.
func (p *Projector) FormatPrice(ctx context.Context, amount decimal.Decimal) string {
	code := p.Snapshot().Currency
	return currency.Format(p.rates.Convert(ctx, amount, string(enums.CurrencyUSD), code), code)
}

func (p *Projector) resync(ctx context.Context) error {
	user, err := p.store.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		p.publish(emptySnapshot())
		return nil
	}

	rates, err := p.rates.Rates(ctx)
	if err != nil {
		// The session still loads; the last good table keeps serving.
		if p.logg != nil {
			p.logg.Error(ctx, "rate table unavailable during session sync", err)
		}
		rates = p.Snapshot().ExchangeRates
	}

	favorites := make([]int, len(user.Favorites))
	copy(favorites, user.Favorites)

	p.publish(Snapshot{
		Authenticated:      true,
		User:               user,
		CartItemCount:      userstore.CartUnits(user.CurrentCart),
		TotalAmountSpent:   user.TotalPurchases,
		FavoriteProductIDs: favorites,
		GiftsSentCount:     len(user.GiftsSent),
		Currency:           user.PreferredCurrency,
		Language:           user.PreferredLanguage,
		ExchangeRates:      rates,
	})
	return nil
}

func (p *Projector) publish(snap Snapshot) {
	p.mu.Lock()
	p.snap = snap
	subs := p.subscribers()
	p.mu.Unlock()

	p.notify(snap, subs)
}

// subscribers must be called with p.mu held.
func (p *Projector) subscribers() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

func (p *Projector) notify(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}
