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

// orderStore implements repositories.OrderStore inside one transaction.
type orderStore struct {
	q *db.Queries
}

// Insert writes the header then each item with its line number.
func (s *orderStore) Insert(ctx context.Context, order *models.Order) error {
	if err := s.q.InsertOrder(ctx, orderToInsertParams(order)); err != nil {
		return storeErr("insert order", err)
	}
	for i, it := range order.Items {
		if err := s.q.InsertOrderItem(ctx, orderItemToInsertParams(it, i+1)); err != nil {
			if database.PgCode(err) == database.CodeForeignKeyViolation {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, it.ProductID)
			}
			return storeErr("insert order item", err)
		}
	}
	return nil
}

func (s *orderStore) UpdateStatus(ctx context.Context, order *models.Order) error {
	n, err := s.q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{
		ID:        order.ID,
		Status:    db.OrderStatus(order.Status),
		UpdatedBy: order.UpdatedBy,
		UpdatedAt: order.UpdatedAt,
	})
	if err != nil {
		return storeErr("update order status", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
	}
	return nil
}

// GetForUpdate locks the order row so concurrent cancellations of the same
// order run one after another.
func (s *orderStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row, err := s.q.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		return nil, storeErr("lock order", err)
	}
	items, err := s.q.ListOrderItems(ctx, id)
	if err != nil {
		return nil, storeErr("list order items", err)
	}

	order := rowToOrder(row)
	order.Items = make([]models.OrderItem, len(items))
	for i, it := range items {
		order.Items[i] = rowToOrderItem(it)
	}
	return order, nil
}

// OrderRepository implements repositories.OrderReader against PostgreSQL.
type OrderRepository struct {
	db *database.Database
}

// NewOrderRepository returns an OrderRepository backed by the given pool.
func NewOrderRepository(d *database.Database) *OrderRepository {
	return &OrderRepository{db: d}
}

// GetByID returns the order with items and resolved products.
// Returns ErrOrderNotFound if not found.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	q := db.New(r.db.DB())
	row, err := q.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		return nil, storeErr("query order", err)
	}

	orders := []*models.Order{rowToOrder(row)}
	if err := attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders[0], nil
}

// List returns a page of orders, newest first, plus the total count.
func (r *OrderRepository) List(ctx context.Context, opts repositories.QueryOpts) ([]*models.Order, int, error) {
	q := db.New(r.db.DB())

	rows, err := q.ListOrders(ctx, db.ListOrdersParams{
		Limit:  int32(opts.Limit),
		Offset: int32(opts.Offset),
	})
	if err != nil {
		return nil, 0, storeErr("query orders", err)
	}

	total, err := q.CountOrders(ctx)
	if err != nil {
		return nil, 0, storeErr("count orders", err)
	}

	orders := make([]*models.Order, len(rows))
	for i, row := range rows {
		orders[i] = rowToOrder(row)
	}
	if err := attachItems(ctx, q, orders); err != nil {
		return nil, 0, err
	}
	return orders, int(total), nil
}

// attachItems loads the items of every order in one query.
func attachItems(ctx context.Context, q *db.Queries, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		byID[o.ID] = o
	}

	rows, err := q.ListOrderItemsWithProducts(ctx, ids)
	if err != nil {
		return storeErr("list order items", err)
	}
	for _, row := range rows {
		o, ok := byID[row.SalesOrderItem.OrderID]
		if !ok {
			continue
		}
		item := rowToOrderItem(row.SalesOrderItem)
		item.Product = rowToProduct(row.SalesProduct)
		o.Items = append(o.Items, item)
	}
	return nil
}
