package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"storefront/apiclient"
	"storefront/models"
)

var stdout io.Writer = os.Stdout

func commands() []command {
	var (
		email, password string
		query           apiclient.ProductQuery
		minPrice        float64
		maxPrice        float64
		address         models.ShippingAddress
		payment         string
	)

	return []command{
		{
			name:    "login",
			usage:   "login --email E --password P",
			summary: "Log in and save the session token",
			flags: func(fs *pflag.FlagSet) {
				fs.StringVar(&email, "email", "", "account email")
				fs.StringVar(&password, "password", "", "account password")
			},
			run: func(ctx context.Context, env *environment, _ []string) error {
				session, err := env.client.Login(ctx, email, password)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(env.stateDir, 0o700); err != nil {
					return err
				}
				if err := os.WriteFile(env.sessionPath(), []byte(session.Token), 0o600); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "logged in as %s (%s)\n", session.User.Name, session.User.Role)
				return nil
			},
		},
		{
			name:    "products",
			usage:   "products [--keyword K] [--category C]",
			summary: "List the catalog",
			flags: func(fs *pflag.FlagSet) {
				fs.StringVar(&query.Keyword, "keyword", "", "match name or description")
				fs.StringVar(&query.Category, "category", "", "exact category")
				fs.Float64Var(&minPrice, "min-price", 0, "lowest price")
				fs.Float64Var(&maxPrice, "max-price", 0, "highest price")
			},
			run: func(ctx context.Context, env *environment, _ []string) error {
				if minPrice > 0 {
					query.MinPrice = &minPrice
				}
				if maxPrice > 0 {
					query.MaxPrice = &maxPrice
				}
				products, err := env.client.ListProducts(ctx, query)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
				for _, p := range products {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.ID.Hex(), p.Name, p.Category, p.Price, p.Stock)
				}
				return w.Flush()
			},
		},
		{
			name:    "cart add",
			usage:   "cart add <product-id>",
			summary: "Add one unit of a product to the local cart",
			run: func(ctx context.Context, env *environment, args []string) error {
				if len(args) != 1 {
					return fmt.Errorf("expected a product id")
				}
				product, err := env.client.GetProduct(ctx, args[0])
				if err != nil {
					return err
				}
				cart, err := env.cart()
				if err != nil {
					return err
				}
				if err := cart.Add(*product); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "added %s, %d item(s) in cart\n", product.Name, cart.Count())
				return nil
			},
		},
		{
			name:    "cart list",
			usage:   "cart list",
			summary: "Show the local cart with checkout totals",
			run: func(_ context.Context, env *environment, _ []string) error {
				cart, err := env.cart()
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY")
				for _, item := range cart.Items() {
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\n", item.ProductID, item.Name, item.Price, item.Quantity)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				q := cart.Quote()
				fmt.Fprintf(stdout, "\nitems %.2f  tax %.2f  shipping %.2f  total %.2f\n",
					q.ItemsPrice, q.TaxPrice, q.ShippingPrice, q.TotalPrice)
				return nil
			},
		},
		{
			name:    "cart set",
			usage:   "cart set <product-id> <quantity>",
			summary: "Change a quantity; 0 removes the line",
			run: func(_ context.Context, env *environment, args []string) error {
				if len(args) != 2 {
					return fmt.Errorf("expected a product id and a quantity")
				}
				qty, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				cart, err := env.cart()
				if err != nil {
					return err
				}
				return cart.UpdateQuantity(args[0], qty)
			},
		},
		{
			name:    "cart remove",
			usage:   "cart remove <product-id>",
			summary: "Remove a line from the local cart",
			run: func(_ context.Context, env *environment, args []string) error {
				if len(args) != 1 {
					return fmt.Errorf("expected a product id")
				}
				cart, err := env.cart()
				if err != nil {
					return err
				}
				return cart.Remove(args[0])
			},
		},
		{
			name:    "cart clear",
			usage:   "cart clear",
			summary: "Empty the local cart",
			run: func(_ context.Context, env *environment, _ []string) error {
				cart, err := env.cart()
				if err != nil {
					return err
				}
				return cart.Clear()
			},
		},
		{
			name:    "checkout",
			usage:   "checkout --address A --city C ...",
			summary: "Place an order from the local cart",
			flags: func(fs *pflag.FlagSet) {
				fs.StringVar(&address.Address, "address", "", "street address")
				fs.StringVar(&address.City, "city", "", "city")
				fs.StringVar(&address.PostalCode, "postal-code", "", "postal code")
				fs.StringVar(&address.Country, "country", "", "country")
				fs.StringVar(&address.Phone, "phone", "", "contact phone")
				fs.StringVar(&payment, "payment", "card", "payment method")
			},
			run: func(ctx context.Context, env *environment, _ []string) error {
				client, err := env.authed()
				if err != nil {
					return err
				}
				cart, err := env.cart()
				if err != nil {
					return err
				}
				order, err := cart.Checkout(ctx, client, address, payment)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "order %s placed, total %.2f (%s)\n", order.ID.Hex(), order.TotalPrice, order.OrderStatus)
				return nil
			},
		},
		{
			name:    "orders",
			usage:   "orders",
			summary: "List your orders",
			run: func(ctx context.Context, env *environment, _ []string) error {
				client, err := env.authed()
				if err != nil {
					return err
				}
				orders, err := client.MyOrders(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tPLACED\tSTATUS\tPAID\tTOTAL")
				for _, o := range orders {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%.2f\n",
						o.ID.Hex(), o.CreatedAt.Format("2006-01-02 15:04"), o.OrderStatus, o.IsPaid, o.TotalPrice)
				}
				return w.Flush()
			},
		},
	}
}
