package postgres

import (
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/infrastructure/persistence/postgres/db"
)

func rowToProduct(row db.SalesProduct) *models.Product {
	return &models.Product{
		ID:            row.ID,
		Name:          models.ProductName(row.Name),
		Category:      row.Category,
		Description:   row.Description,
		Price:         row.Price,
		StockQuantity: int(row.StockQuantity),
		CreatedBy:     row.CreatedBy,
		UpdatedBy:     row.UpdatedBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func productToInsertParams(p *models.Product) db.InsertProductParams {
	return db.InsertProductParams{
		ID:            p.ID,
		Name:          p.Name.String(),
		Category:      p.Category,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: int32(p.StockQuantity),
		CreatedBy:     p.CreatedBy,
		UpdatedBy:     p.UpdatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func productToUpdateParams(p *models.Product) db.UpdateProductDetailsParams {
	return db.UpdateProductDetailsParams{
		ID:          p.ID,
		Name:        p.Name.String(),
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price,
		UpdatedBy:   p.UpdatedBy,
		UpdatedAt:   p.UpdatedAt,
	}
}

// rowToOrder maps the order header. Items are attached by the caller.
func rowToOrder(row db.SalesOrder) *models.Order {
	return &models.Order{
		ID:        row.ID,
		Total:     row.Total,
		Status:    models.Status(row.Status),
		CreatedBy: row.CreatedBy,
		UpdatedBy: row.UpdatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func rowToOrderItem(row db.SalesOrderItem) models.OrderItem {
	return models.OrderItem{
		ID:        row.ID,
		OrderID:   row.OrderID,
		ProductID: row.ProductID,
		Quantity:  int(row.Quantity),
		UnitPrice: row.UnitPrice,
		Subtotal:  row.Subtotal,
		CreatedAt: row.CreatedAt,
	}
}

func orderToInsertParams(o *models.Order) db.InsertOrderParams {
	return db.InsertOrderParams{
		ID:        o.ID,
		Total:     o.Total,
		Status:    db.OrderStatus(o.Status),
		CreatedBy: o.CreatedBy,
		UpdatedBy: o.UpdatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func orderItemToInsertParams(it models.OrderItem, lineNo int) db.InsertOrderItemParams {
	return db.InsertOrderItemParams{
		ID:        it.ID,
		OrderID:   it.OrderID,
		ProductID: it.ProductID,
		LineNo:    int32(lineNo),
		Quantity:  int32(it.Quantity),
		UnitPrice: it.UnitPrice,
		Subtotal:  it.Subtotal,
		CreatedAt: it.CreatedAt,
	}
}
