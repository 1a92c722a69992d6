// Command shopper drives the caffinity client against a remote store.
//
//	shopper menu
//	shopper cart
//	shopper add P001 2
//	shopper qty <lineId> 3
//	shopper remove <lineId>
//	shopper checkout -promo DISKON10 -tip 5000
//	shopper orders
//	shopper order <id>
//	shopper admin orders
//	shopper admin status <id> processing
//	shopper admin stats
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"caffinity/internal/cart"
	"caffinity/internal/checkout"
	"caffinity/internal/config"
	"caffinity/internal/model"
	"caffinity/internal/pricing"
	"caffinity/internal/promotion"
	"caffinity/internal/remote"
	"caffinity/internal/session"
	"caffinity/internal/tracker"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage: shopper <menu|cart|add|qty|remove|clear|checkout|orders|order|admin> [args]")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the client components around one session.
type app struct {
	session   *session.Session
	store     *remote.Client
	cart      *cart.Synchronizer
	promos    *promotion.Applied
	submitter *checkout.Submitter
	tracker   *tracker.Tracker
	address   string
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)
	defer a.session.Close()

	if cfg.AccessToken == "" {
		return errors.New("CAFFINITY_TOKEN is required")
	}
	a.session.OnExpire(func() {
		fmt.Fprintln(os.Stderr, "Your session has expired. Sign in again to continue.")
	})
	if err := a.session.Login(ctx, cfg.AccessToken); err != nil {
		return err
	}

	defer a.cart.Wait()
	return a.dispatch(ctx, args, out)
}

func newApp(cfg *config.ClientConfig, logger zerolog.Logger) *app {
	sess := session.New(logger)
	store := remote.NewClient(remote.Config{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout,
		BreakerFailures:    uint32(cfg.BreakerFailures),
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}, sess, logger)

	sync := cart.New(store, sess, logger)
	sess.Subscribe(sync.OnAuthChange)

	promos := promotion.NewApplied(promotion.NewStaticResolver(nil, logger))
	t := tracker.New(store, logger)
	sess.Subscribe(func(context.Context, bool) { t.Invalidate() })

	return &app{
		session:   sess,
		store:     store,
		cart:      sync,
		promos:    promos,
		submitter: checkout.New(store, sync, promos, cfg.DeliveryAddress, logger),
		tracker:   t,
		address:   cfg.DeliveryAddress,
	}
}

func (a *app) dispatch(ctx context.Context, args []string, out io.Writer) error {
	switch args[0] {
	case "menu":
		return a.menu(ctx, out)
	case "cart":
		return a.showCart(out)
	case "add":
		if len(args) != 3 {
			return errUsage
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		product, err := a.store.GetProduct(ctx, args[1])
		if err != nil {
			return err
		}
		if err := a.cart.AddItem(ctx, *product, qty); err != nil {
			return err
		}
		return a.showCart(out)
	case "qty":
		if len(args) != 3 {
			return errUsage
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := a.cart.SetQuantity(ctx, args[1], qty); err != nil {
			return err
		}
		return a.showCart(out)
	case "remove":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.cart.RemoveItem(ctx, args[1]); err != nil {
			return err
		}
		return a.showCart(out)
	case "clear":
		a.cart.Clear(ctx)
		a.cart.Wait()
		return a.showCart(out)
	case "checkout":
		return a.checkout(ctx, args[1:], out)
	case "orders":
		orders, err := a.tracker.MyOrders(ctx)
		if err != nil {
			return err
		}
		printOrders(out, orders)
		return nil
	case "order":
		if len(args) != 2 {
			return errUsage
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		order, err := a.tracker.Order(ctx, id)
		if err != nil {
			return err
		}
		printOrder(out, order)
		return nil
	case "admin":
		return a.admin(ctx, args[1:], out)
	}
	return errUsage
}

func (a *app) menu(ctx context.Context, out io.Writer) error {
	products, err := a.store.ListProducts(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, rupiah(p.Price))
	}
	return w.Flush()
}

func (a *app) showCart(out io.Writer) error {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tPRODUCT\tQTY\tPRICE\tTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.LineID, l.Name, l.Quantity, rupiah(l.UnitPrice), rupiah(l.LineTotal()))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	summary := pricing.NewCalculator(pricing.SummaryFees()).Compute(lines, nil, decimal.Zero)
	fmt.Fprintf(out, "\n%d items, subtotal %s, total %s\n", a.cart.Count(), rupiah(summary.Subtotal), rupiah(summary.Total))
	return nil
}

func (a *app) checkout(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(out)
	promo := fs.String("promo", "", "promotion code")
	tipText := fs.String("tip", "", "tip amount")
	address := fs.String("address", a.address, "delivery address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lines := a.cart.Lines()
	calc := pricing.NewCalculator(pricing.CheckoutFees())

	if *promo != "" {
		subtotal := calc.Compute(lines, nil, decimal.Zero).Subtotal
		if res := a.promos.Apply(*promo, subtotal); !res.OK() {
			return fmt.Errorf("invalid promo code %q", *promo)
		}
	}

	tip, err := pricing.ParseTip(*tipText)
	if err != nil {
		return err
	}

	var applied *promotion.Descriptor
	if d, ok := a.promos.Current(); ok {
		applied = &d
	}

	breakdown := calc.Compute(lines, applied, tip)
	confirmation, err := a.submitter.Submit(ctx, checkout.Request{
		Lines:     lines,
		Breakdown: breakdown,
		Promotion: applied,
		Address:   *address,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Order %s placed (%s)\n", confirmation.OrderNumber, confirmation.Status)
	printBreakdown(out, confirmation.Breakdown)
	fmt.Fprintf(out, "Delivering to %s in %s\n", confirmation.Address, confirmation.EstimatedDelivery)
	return nil
}

func (a *app) admin(ctx context.Context, args []string, out io.Writer) error {
	if !a.session.IsOperator() {
		return errors.New("operator role required")
	}
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "orders":
		orders, err := a.tracker.AllOrders(ctx)
		if err != nil {
			return err
		}
		printOrders(out, orders)
		return nil
	case "status":
		if len(args) != 3 {
			return errUsage
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[1])
		}
		order, err := a.tracker.UpdateStatus(ctx, id, model.OrderStatus(args[2]))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %s is now %s\n", checkout.OrderNumber(order.ID), order.Status)
		return nil
	case "stats":
		stats, err := a.tracker.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Income:    %s\nOrders:    %d\nCustomers: %d\nProducts:  %d\n",
			rupiah(stats.Income), stats.TotalOrders, stats.TotalCustomers, stats.TotalProducts)
		return nil
	}
	return errUsage
}

func printOrders(out io.Writer, orders []model.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tSTATUS\tTOTAL\tPLACED\tNEXT")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
			checkout.OrderNumber(o.ID), o.Status, rupiah(o.Totals.Total),
			o.CreatedAt.Format("2006-01-02 15:04"), tracker.Options(o))
	}
	w.Flush()
}

func printOrder(out io.Writer, o *model.Order) {
	fmt.Fprintf(out, "%s (%s)\n", checkout.OrderNumber(o.ID), o.Status)
	for _, l := range o.Lines {
		fmt.Fprintf(out, "  %dx %s @ %s\n", l.Quantity, l.Name, rupiah(l.UnitPrice))
	}
	printBreakdown(out, o.Totals)
}

func printBreakdown(out io.Writer, b model.PricingBreakdown) {
	fmt.Fprintf(out, "  Subtotal  %s\n  Tax       %s\n  Delivery  %s\n  Platform  %s\n  Discount -%s\n  Tip       %s\n  Total     %s\n",
		rupiah(b.Subtotal), rupiah(b.Tax), rupiah(b.DeliveryFee), rupiah(b.PlatformFee),
		rupiah(b.Discount), rupiah(b.Tip), rupiah(b.Total))
}

func rupiah(d decimal.Decimal) string {
	return "Rp " + d.StringFixed(0)
}
