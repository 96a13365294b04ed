package controllers

import (
	"context"

	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
)

// requireCurrentUser resolves the active session's record. No session or a
// dangling pointer both read as unauthorized.
func requireCurrentUser(ctx context.Context, store *userstore.Store) (*userstore.UserRecord, error) {
	user, err := store.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	return user, nil
}
