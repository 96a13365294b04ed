package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopstudy/shopstudy-backend/api/responses"
	"github.com/shopstudy/shopstudy-backend/api/validators"
	"github.com/shopstudy/shopstudy-backend/internal/catalog"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
	pkgerrors "github.com/shopstudy/shopstudy-backend/pkg/errors"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// Catalog is the product browsing surface the controllers depend on.
type Catalog interface {
	ListProducts(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int) (catalog.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// ProductsList proxies the catalog with optional limit, sort and category.
func ProductsList(client Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sort, err := enums.ParseSortOption(r.URL.Query().Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort option"))
			return
		}

		products, err := client.ListProducts(r.Context(), catalog.ListParams{
			Limit:    limit,
			Sort:     sort,
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// ProductShow fetches a single product by id.
func ProductShow(client Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := strconv.Atoi(chi.URLParam(r, "productId"))
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := client.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// CategoriesList lists the catalog's category names.
func CategoriesList(client Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categories, err := client.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}
