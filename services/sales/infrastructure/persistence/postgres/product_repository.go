package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/salesledger/pkg/database"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
	"github.com/ghuser/salesledger/services/sales/infrastructure/persistence/postgres/db"
)

// productStore implements repositories.ProductStore inside one transaction.
type productStore struct {
	q *db.Queries
}

func (s *productStore) Insert(ctx context.Context, p *models.Product) error {
	if err := models.ValidateStock(p.StockQuantity); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
	}
	if err := s.q.InsertProduct(ctx, productToInsertParams(p)); err != nil {
		if database.PgCode(err) == database.CodeCheckViolation {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}
		return storeErr("insert product", err)
	}
	return nil
}

func (s *productStore) UpdateDetails(ctx context.Context, p *models.Product) error {
	n, err := s.q.UpdateProductDetails(ctx, productToUpdateParams(p))
	if err != nil {
		if database.PgCode(err) == database.CodeCheckViolation {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}
		return storeErr("update product", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, p.ID)
	}
	return nil
}

// Delete removes the product. Rows referenced by order items are protected
// by the RESTRICT foreign key and yield ErrProductInUse.
func (s *productStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.q.DeleteProduct(ctx, id)
	if err != nil {
		if database.PgCode(err) == database.CodeForeignKeyViolation {
			return fmt.Errorf("%w: %s", domain.ErrProductInUse, id)
		}
		return storeErr("delete product", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

// ProductRepository implements repositories.ProductReader against PostgreSQL.
type ProductRepository struct {
	db *database.Database
}

// NewProductRepository returns a ProductRepository backed by the given pool.
func NewProductRepository(d *database.Database) *ProductRepository {
	return &ProductRepository{db: d}
}

// GetByID retrieves a Product by ID. Returns ErrProductNotFound if not found.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := db.New(r.db.DB()).GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, storeErr("query product", err)
	}
	return rowToProduct(row), nil
}

// List retrieves a page of products, newest first, and the total count.
func (r *ProductRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	q := db.New(r.db.DB())

	rows, err := q.ListProducts(ctx, db.ListProductsParams{
		Limit:  int32(opts.Limit),
		Offset: int32(opts.Offset),
	})
	if err != nil {
		return nil, 0, storeErr("query products", err)
	}

	total, err := q.CountProducts(ctx)
	if err != nil {
		return nil, 0, storeErr("count products", err)
	}

	products := make([]*models.Product, len(rows))
	for i, row := range rows {
		products[i] = rowToProduct(row)
	}
	return products, int(total), nil
}
