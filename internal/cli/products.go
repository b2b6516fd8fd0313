package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"MockShop/internal/catalog"
)

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := a.requireSession(cmd)
			if err != nil {
				return err
			}

			products, err := a.api.Products(ctx)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}

			if len(products) == 0 {
				fmt.Fprintln(a.out, "No products found.")
				return nil
			}

			fmt.Fprintf(a.out, "%-4s  %-24s  %10s  %s\n", "ID", "NAME", "PRICE", "RATING")
			for _, p := range products {
				fmt.Fprintf(a.out, "%-4d  %-24s  %10.2f  %.1f\n", p.ID, p.Name, p.Price, p.Rating)
			}
			return nil
		},
	}
}

func (a *app) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("product id %q is not a number", args[0])
			}

			ctx, err := a.requireSession(cmd)
			if err != nil {
				return err
			}

			p, err := a.api.Product(ctx, id)
			if err != nil {
				return fmt.Errorf("get product %d: %w", id, err)
			}

			a.printProduct(p)
			return nil
		},
	}
}

func (a *app) commentCmd() *cobra.Command {
	var c catalog.Comment

	cmd := &cobra.Command{
		Use:   "comment <product-id>",
		Short: "Add a rated comment to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("product id %q is not a number", args[0])
			}
			if c.Content == "" {
				return fmt.Errorf("--content is required")
			}

			ctx, err := a.requireSession(cmd)
			if err != nil {
				return err
			}

			created, err := a.api.AddComment(ctx, id, c)
			if err != nil {
				return fmt.Errorf("add comment: %w", err)
			}

			fmt.Fprintf(a.out, "Comment %d added by %s (%.1f)\n", created.ID, created.Username, created.Rating)
			return nil
		},
	}

	cmd.Flags().StringVarP(&c.Content, "content", "c", "", "comment text")
	cmd.Flags().Float64VarP(&c.Rating, "rating", "r", 5, "rating from 0 to 5")
	cmd.Flags().StringVar(&c.Username, "as", "", "display name (the signed-in user when empty)")
	return cmd
}

func (a *app) printProduct(p catalog.Product) {
	fmt.Fprintf(a.out, "Product:  %d\n", p.ID)
	fmt.Fprintf(a.out, "  Name:    %s\n", p.Name)
	fmt.Fprintf(a.out, "  Price:   %.2f\n", p.Price)
	fmt.Fprintf(a.out, "  Rating:  %.1f\n", p.Rating)
	fmt.Fprintf(a.out, "  Arrived: %s\n", p.ArrivalDate)
	if p.Description != "" {
		fmt.Fprintf(a.out, "  About:   %s\n", p.Description)
	}

	if len(p.Comments) == 0 {
		fmt.Fprintln(a.out, "  No comments yet.")
		return
	}

	fmt.Fprintln(a.out, "  Comments:")
	for _, c := range p.Comments {
		fmt.Fprintf(a.out, "    - %s (%.1f) %s: %s\n", c.Username, c.Rating, c.Date, c.Content)
	}
}
