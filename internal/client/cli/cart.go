package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophshop/internal/client/cart"
)

var errUsage = errors.New("usage")

// syncCart refreshes the cart after sign-in; failures only get logged.
func (a *App) syncCart(ctx context.Context) {
	if err := a.cart.Fetch(ctx); err != nil {
		a.log.Warn(ctx, "cart fetch failed", "error", err)
	}
}

// Cart fetches the cart and prints it.
func (a *App) Cart(ctx context.Context, _ []string) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	if err := a.cart.Fetch(ctx); err != nil {
		return err
	}
	a.printCart(a.cart.State())
	return nil
}

// Add puts a product into the cart: "add <product-id> [quantity]".
func (a *App) Add(ctx context.Context, args []string) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: add <product-id> [quantity]", errUsage)
	}

	qty := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: quantity must be a number", errUsage)
		}
		qty = n
	}

	if err := a.cart.Add(ctx, args[0], qty); err != nil {
		return err
	}
	a.printCart(a.cart.State())
	return nil
}

// Inc adds one unit of an item.
func (a *App) Inc(ctx context.Context, args []string) error {
	return a.step(ctx, args, 1)
}

// Dec removes one unit of an item; an item never drops below one.
func (a *App) Dec(ctx context.Context, args []string) error {
	return a.step(ctx, args, -1)
}

func (a *App) step(ctx context.Context, args []string, delta int) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	id, err := a.itemID(args)
	if err != nil {
		return err
	}
	if err := a.cart.UpdateQuantity(ctx, id, delta); err != nil {
		return err
	}
	a.printCart(a.cart.State())
	return nil
}

// Remove drops an item from the cart: "rm <item-or-product-id>".
func (a *App) Remove(ctx context.Context, args []string) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	id, err := a.itemID(args)
	if err != nil {
		return err
	}
	if err := a.cart.Remove(ctx, id); err != nil {
		return err
	}
	a.printCart(a.cart.State())
	return nil
}

// Clear empties the cart.
func (a *App) Clear(ctx context.Context, _ []string) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	if err := a.cart.Clear(ctx); err != nil {
		return err
	}
	a.println("Cart is empty")
	return nil
}

// itemID accepts either a line-item ID or a product ID.
func (a *App) itemID(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: <item-or-product-id>", errUsage)
	}
	if item, ok := a.cart.Find(args[0]); ok {
		return item.ID, nil
	}
	return args[0], nil
}

func (a *App) printCart(st cart.State) {
	if len(st.Items) == 0 {
		a.println("Cart is empty")
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tNAME\tQTY\tPRICE\tTOTAL")
	for _, it := range st.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.ProductID, it.Name, it.Quantity, formatMoney(it.Price), formatMoney(it.Total()))
	}
	_ = tw.Flush()
	a.println(fmt.Sprintf("%d item(s), subtotal %s", st.Count(), formatMoney(st.Subtotal())))
}

// formatMoney renders an amount of minor units with two decimals.
func formatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
