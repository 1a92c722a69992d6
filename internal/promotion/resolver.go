package promotion

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Resolver maps promotion codes to descriptors and discount amounts.
type Resolver struct {
	table  *Table
	logger zerolog.Logger
	// No mutex needed - the table is read-only after initialisation
}

// ResolverConfig holds configuration for the promotion resolver.
type ResolverConfig struct {
	// FilePaths lists provisioned rule files. Their rules are overlaid on the
	// built-in table in order, so later files win.
	FilePaths []string
}

// NewResolver creates a resolver over the built-in rules plus every file in config.
// All files are loaded concurrently at initialisation time; any failure aborts.
func NewResolver(ctx context.Context, config *ResolverConfig, loader Loader, logger zerolog.Logger) (*Resolver, error) {
	if config == nil {
		config = &ResolverConfig{}
	}

	logger = logger.With().Str("component", "promotion-resolver").Logger()

	logger.Info().
		Int("file_count", len(config.FilePaths)).
		Msg("initialising promotion resolver")

	type loadResult struct {
		index int
		table *Table
		err   error
	}

	resultChan := make(chan loadResult, len(config.FilePaths))
	var wg sync.WaitGroup

	for i, filePath := range config.FilePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			table, err := loader.Load(ctx, path)
			resultChan <- loadResult{
				index: index,
				table: table,
				err:   err,
			}
		}(i, filePath)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(config.FilePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	table := DefaultTable()
	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", config.FilePaths[i]).
				Msg("failed to load promotion file")
			return nil, fmt.Errorf("failed to load promotion file %s: %w", config.FilePaths[i], result.err)
		}
		table.overlay(result.table)
		logger.Info().
			Str("file", config.FilePaths[i]).
			Int("size", result.table.Size()).
			Msg("promotion file loaded")
	}

	logger.Info().
		Int("total_promotions", table.Size()).
		Msg("promotion resolver initialised successfully")

	return &Resolver{table: table, logger: logger}, nil
}

// NewStaticResolver creates a resolver over table without loading any files.
// A nil table means the built-in rules.
func NewStaticResolver(table *Table, logger zerolog.Logger) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{
		table:  table,
		logger: logger.With().Str("component", "promotion-resolver").Logger(),
	}
}

// Lookup returns the descriptor for code without computing a discount.
func (r *Resolver) Lookup(code string) (Descriptor, bool) {
	return r.table.Lookup(code)
}

// Resolve looks code up and computes its discount against subtotal.
// Unknown codes produce a Rejection with ReasonInvalidCode.
func (r *Resolver) Resolve(code string, subtotal decimal.Decimal) Resolution {
	d, ok := r.table.Lookup(code)
	if !ok {
		r.logger.Debug().
			Str("promo_code", code).
			Msg("promotion code not recognised")
		return Resolution{
			Discount:  decimal.Zero,
			Rejection: &Rejection{Code: code, Reason: ReasonInvalidCode},
		}
	}

	discount := d.Discount(subtotal)

	r.logger.Debug().
		Str("promo_code", d.Code).
		Str("kind", d.Kind.String()).
		Str("discount", discount.String()).
		Msg("promotion code resolved")

	return Resolution{Promotion: &d, Discount: discount}
}
