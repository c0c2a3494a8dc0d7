package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/rxflow/internal/store"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}

	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

// catalogFile is the YAML shape accepted by catalog import.
type catalogFile struct {
	Products []store.Product `yaml:"products"`
}

func newCatalogImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import products from a YAML file into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading catalog file: %w", err)
			}

			var file catalogFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parsing catalog file: %w", err)
			}
			if len(file.Products) == 0 {
				return fmt.Errorf("no products found in %s", args[0])
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := buildEngine(ctx, log)
			if err != nil {
				return err
			}
			defer eng.close()

			if eng.loader == nil {
				return fmt.Errorf("catalog import requires the sqlite store backend")
			}

			for _, p := range file.Products {
				if p.ID == "" || p.Name == "" {
					return fmt.Errorf("product entries need both id and name (got id=%q name=%q)", p.ID, p.Name)
				}
				if err := eng.loader.Upsert(ctx, p); err != nil {
					return fmt.Errorf("importing product %s: %w", p.ID, err)
				}
			}

			fmt.Printf("imported %d product(s)\n", len(file.Products))
			return nil
		},
	}
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := buildEngine(ctx, log)
			if err != nil {
				return err
			}
			defer eng.close()

			if eng.products == nil {
				return fmt.Errorf("catalog list requires the sqlite store backend")
			}

			products, err := eng.products.List(ctx)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Println("catalog is empty")
				return nil
			}
			for _, p := range products {
				stock := "in stock"
				if !p.InStock {
					stock = "out of stock"
				}
				rx := ""
				if p.RequiresPrescription {
					rx = " [rx]"
				}
				fmt.Printf("%-16s %-32s %8.2f  %s%s\n", p.ID, p.Name, p.Price, stock, rx)
			}
			return nil
		},
	}
	return cmd
}
