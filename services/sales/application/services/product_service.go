package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	pkgcache "github.com/ghuser/salesledger/pkg/cache"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
	domainsvcs "github.com/ghuser/salesledger/services/sales/domain/services"
)

// productInvalidator drops cached product read models after stock changes.
type productInvalidator interface {
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// productCache is the read-through cache used for single-product reads.
type productCache interface {
	productInvalidator
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedProduct, error)
	Version(ctx context.Context, id uuid.UUID) (int64, error)
	SetIfVersion(ctx context.Context, p *pkgcache.CachedProduct, version int64) (bool, error)
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name          string
	Category      string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

// UpdateProductInput carries a partial update. Nil fields are left as is.
type UpdateProductInput struct {
	Name          *string
	Category      *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
}

// ProductService manages the product catalogue. Stock changes go through
// the inventory ledger under the same row lock reservations take.
// Single-product reads are served from Redis when available.
type ProductService struct {
	tx    repositories.Transactor
	repo  repositories.ProductReader
	cache productCache
	log   logger.Logger
}

// NewProductService returns a ProductService. cache may be nil.
func NewProductService(tx repositories.Transactor, repo repositories.ProductReader, cache productCache, log logger.Logger) *ProductService {
	return &ProductService{tx: tx, repo: repo, cache: cache, log: log}
}

// Create validates and persists a product.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput, actor string) (*models.Product, error) {
	name, err := models.NewProductName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
	}
	p, err := models.NewProduct(name, in.Category, in.Description, in.Price, in.StockQuantity, actorOrSystem(actor))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
	}
	if err := domainsvcs.ValidateProductForSave(p); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
	}

	err = runInTx(ctx, s.tx, func(tx repositories.Tx) error {
		return tx.Products().Insert(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "stock", p.StockQuantity)
	return p, nil
}

// GetByID retrieves a product using a read-through cache:
//  1. Check Redis first.
//  2. On miss (or cache error), note the entry's invalidation version and
//     query Postgres.
//  3. Asynchronously warm the cache with the Postgres result, unless the
//     entry was invalidated after the version was taken.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	warm := false
	var version int64
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			if p, perr := fromCached(cached); perr == nil {
				return p, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
		}
		if v, verr := s.cache.Version(ctx, id); verr == nil {
			version, warm = v, true
		}
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if warm {
		entry := toCached(p)
		go func() {
			cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, _ = s.cache.SetIfVersion(cctx, entry, version)
		}()
	}
	return p, nil
}

// List returns a page of products plus the total count.
func (s *ProductService) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	products, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// Update applies in to the product while its row is locked. A changed stock
// quantity is written as a ledger delta.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in UpdateProductInput, actor string) (*models.Product, error) {
	var updated *models.Product
	err := runInTx(ctx, s.tx, func(tx repositories.Tx) error {
		locked, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		p := locked[id]
		current := p.StockQuantity

		if err := applyUpdate(p, in); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}
		p.UpdatedBy = actorOrSystem(actor)
		p.UpdatedAt = time.Now().UTC()
		if err := domainsvcs.ValidateProductForSave(p); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidProduct, err)
		}

		if err := tx.Products().UpdateDetails(ctx, p); err != nil {
			return err
		}
		switch delta := p.StockQuantity - current; {
		case delta > 0:
			err = tx.Ledger().Increment(ctx, id, delta)
		case delta < 0:
			err = tx.Ledger().Decrement(ctx, id, -delta)
		}
		if err != nil {
			return fmt.Errorf("adjust stock: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	invalidateProducts(ctx, s.cache, s.log, []uuid.UUID{id})
	return updated, nil
}

// Delete removes a product. Products referenced by any order item are kept
// and ErrProductInUse is returned.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(tx repositories.Tx) error {
		if _, err := tx.Ledger().LockForUpdate(ctx, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	invalidateProducts(ctx, s.cache, s.log, []uuid.UUID{id})
	s.log.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func applyUpdate(p *models.Product, in UpdateProductInput) error {
	if in.Name != nil {
		name, err := models.NewProductName(*in.Name)
		if err != nil {
			return err
		}
		p.Name = name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	return nil
}

// invalidateProducts evicts cache entries. Failures are logged; entries
// expire on their own TTL.
func invalidateProducts(ctx context.Context, c productInvalidator, log logger.Logger, ids []uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}
	if err := c.Delete(ctx, ids...); err != nil {
		log.WarnContext(ctx, "product cache invalidation failed", "products", len(ids), "error", err)
	}
}

func toCached(p *models.Product) *pkgcache.CachedProduct {
	return &pkgcache.CachedProduct{
		ID:            p.ID,
		Name:          p.Name.String(),
		Category:      p.Category,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		CreatedBy:     p.CreatedBy,
		UpdatedBy:     p.UpdatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromCached(c *pkgcache.CachedProduct) (*models.Product, error) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return nil, err
	}
	return &models.Product{
		ID:            c.ID,
		Name:          models.ProductName(c.Name),
		Category:      c.Category,
		Description:   c.Description,
		Price:         price,
		StockQuantity: c.StockQuantity,
		CreatedBy:     c.CreatedBy,
		UpdatedBy:     c.UpdatedBy,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}
