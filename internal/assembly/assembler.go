// Package assembly produces the dimensional presentation layer from
// conformed records: surrogate key assignment, dimension enrichment, and
// fact assembly with soft referential integrity.
package assembly

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"dwcli/pkg/contracts/domain"
)

// Assembler builds dimension and fact rows. Surrogate key assignment is
// deterministic: identical conformed input reproduces identical keys,
// which downstream fact rows rely on within the same run.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates a dimensional assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble builds the full dimensional layer. The two dimension builds
// share no mutable state and run in parallel; fact assembly joins
// against both once they are done.
func (a *Assembler) Assemble(ctx context.Context, conformed domain.ConformedLayer) (domain.DimensionalLayer, error) {
	var out domain.DimensionalLayer

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Customers = a.CustomerDim(gctx, conformed.Customers, conformed.Demographics, conformed.Locations)
		return nil
	})
	g.Go(func() error {
		out.Products = a.ProductDim(gctx, conformed.Products, conformed.Categories)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.DimensionalLayer{}, err
	}

	out.Sales = a.SalesFact(ctx, conformed.Sales, out.Customers, out.Products)
	return out, nil
}
