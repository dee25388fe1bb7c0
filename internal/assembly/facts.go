package assembly

import (
	"context"
	"log/slog"

	"dwcli/pkg/contracts/domain"
)

// SalesFact assembles the sales fact: each conformed line resolves its
// customer and product surrogate keys by natural-key lookup against the
// dimensions produced in the same run. A miss yields a nil surrogate and
// the row is still emitted; hard enforcement belongs to the quality rule
// engine, not to assembly.
func (a *Assembler) SalesFact(
	ctx context.Context,
	sales []domain.ConformedSale,
	customers []domain.CustomerDimRow,
	products []domain.ProductDimRow,
) []domain.SalesFactRow {
	customerKey := make(map[string]int, len(customers))
	for _, c := range customers {
		customerKey[c.CustomerID] = c.CustomerKey
	}
	productKey := make(map[string]int, len(products))
	for _, p := range products {
		productKey[p.ProductNumber] = p.ProductKey
	}

	var orphanProducts, orphanCustomers int
	rows := make([]domain.SalesFactRow, 0, len(sales))
	for _, s := range sales {
		row := domain.SalesFactRow{
			OrderNumber:   s.OrderNumber,
			ProductNumber: s.ProductNumber,
			CustomerID:    s.CustomerID,
			OrderDate:     s.OrderDate,
			ShipDate:      s.ShipDate,
			DueDate:       s.DueDate,
			Quantity:      s.Quantity,
			UnitPrice:     s.UnitPrice,
			Amount:        s.LineAmount,
		}
		if key, ok := productKey[s.ProductNumber]; ok {
			k := key
			row.ProductKey = &k
		} else {
			orphanProducts++
		}
		if key, ok := customerKey[s.CustomerID]; ok {
			k := key
			row.CustomerKey = &k
		} else {
			orphanCustomers++
		}
		rows = append(rows, row)
	}

	if orphanProducts > 0 || orphanCustomers > 0 {
		a.logger.WarnContext(ctx, "fact lines with unresolved dimension references",
			slog.Int("orphan_product_refs", orphanProducts),
			slog.Int("orphan_customer_refs", orphanCustomers))
	}
	a.logger.InfoContext(ctx, "sales fact assembled", slog.Int("rows", len(rows)))
	return rows
}
