package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/nutricoach/nutricoach/internal/catalog"
	"github.com/nutricoach/nutricoach/internal/repository"
)

// newRepriceCmd changes a product price directly in the store. Products
// already referenced by an order keep their price.
func newRepriceCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reprice <product-id> <price>",
		Short: "Change the price of a product that has not been ordered yet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[1], err)
			}

			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}

			repo, err := repository.NewRepository(cfg.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.RunMigrations(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			cat := catalog.New(repo, newCatalogCache(ctx, cfg, log), log)
			if err := cat.UpdatePrice(ctx, id, price); err != nil {
				if errors.Is(err, repository.ErrPriceLocked) {
					return fmt.Errorf("product %d already appears in orders; its price cannot change", id)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "product %d now costs %s\n", id, price.StringFixed(2))
			return nil
		},
	}
}
