// Command storefrontctl is the operator tool for the storefront database:
// schema migration, the order back office, catalog edits, settings and the
// event relay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/events"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/settings"
)

var Version = "dev"

var output string

func main() {
	rootCmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operate the olive oil storefront",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "output format (yaml, json)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(productsCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withPool loads the config, connects and hands the pool to fn.
func withPool(ctx context.Context, fn func(cfg config.Config, pool *pgxpool.Pool) error) error {
	cfg := config.Load()
	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()
	return fn(cfg, pool)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				return db.Migrate(cmd.Context(), pool)
			})
		},
	}
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect and update orders",
	}

	var (
		q             string
		status        string
		limit, offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				found, err := order.NewService(order.NewPGRepo(pool)).List(cmd.Context(), order.Filter{
					Q: q, Status: order.Status(status), Limit: limit, Offset: offset,
				})
				if err != nil {
					return err
				}
				out := make([]order.View, len(found))
				for i, o := range found {
					out[i] = order.NewView(o)
				}
				return render(cmd.OutOrStdout(), output, out)
			})
		},
	}
	list.Flags().StringVarP(&q, "query", "q", "", "match order id, customer name or email")
	list.Flags().StringVarP(&status, "status", "s", "", "filter by status")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum results")
	list.Flags().IntVar(&offset, "offset", 0, "skip this many results")

	show := &cobra.Command{
		Use:   "show [order-id]",
		Short: "Show one order with its tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				o, err := order.NewService(order.NewPGRepo(pool)).Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, order.NewView(*o))
			})
		},
	}

	setStatus := &cobra.Command{
		Use:   "set-status [order-id] [status]",
		Short: "Change an order's status",
		Long: `Change an order's status. Any status may follow any other; the change
is recorded in the outbox and published as order.status_changed.

Statuses: pending, processing, shipped, completed, cancelled`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				o, err := order.NewService(order.NewPGRepo(pool)).UpdateStatus(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, order.NewView(*o))
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Order counts per status and revenue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				st, err := order.NewService(order.NewPGRepo(pool)).Stats(cmd.Context())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, st)
			})
		},
	}

	cmd.AddCommand(list, show, setStatus, stats)
	return cmd
}

// withCatalog loads the catalog from the database and hands fn a Manager
// writing through to it.
func withCatalog(ctx context.Context, fn func(m *product.Manager, c *product.Catalog) error) error {
	return withPool(ctx, func(_ config.Config, pool *pgxpool.Pool) error {
		repo := product.NewPGRepo(pool)
		c := product.NewCatalog(repo)
		if st := c.Refresh(ctx); st.Err != nil {
			return fmt.Errorf("load catalog: %w", st.Err)
		}
		return fn(product.NewManager(repo, c), c)
	})
}

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect and edit the catalog",
	}

	var (
		q        string
		category string
		sortBy   string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List products as the storefront shows them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd.Context(), func(_ *product.Manager, c *product.Catalog) error {
				return render(cmd.OutOrStdout(), output, c.Filter(product.Query{
					Search: q, Category: product.Category(category), Sort: product.ParseSort(sortBy),
				}))
			})
		},
	}
	list.Flags().StringVarP(&q, "query", "q", "", "match name or description")
	list.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	list.Flags().StringVar(&sortBy, "sort", "featured", "featured, price-asc, price-desc, rating or name")

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Create or update products from a YAML or JSON list",
		Long: `Create or update products from a YAML or JSON list ("-" reads stdin).
Entries without an id are created; entries with an id replace that product.
Nothing is written unless every entry is valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			ps, err := decodeProducts(in)
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), func(m *product.Manager, _ *product.Catalog) error {
				created, updated, err := m.Import(cmd.Context(), ps)
				fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", created, updated)
				return err
			})
		},
	}

	setStock := &cobra.Command{
		Use:       "set-stock [product-id] [in|out]",
		Short:     "Mark a product in or out of stock",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"in", "out"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var inStock bool
			switch args[1] {
			case "in":
				inStock = true
			case "out":
			default:
				return fmt.Errorf("stock must be in or out, got %q", args[1])
			}
			return withCatalog(cmd.Context(), func(m *product.Manager, _ *product.Catalog) error {
				p, err := m.SetStock(cmd.Context(), args[0], inStock)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), output, p)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete [product-id]",
		Short: "Remove a product from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(m *product.Manager, c *product.Catalog) error {
				if err := m.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s, %d products left\n", args[0], len(c.State().Products))
				return nil
			})
		},
	}

	cmd.AddCommand(list, importCmd, setStock, del)
	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Store-wide settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings checkout uses (defaults when no row exists)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(_ config.Config, pool *pgxpool.Pool) error {
				s := settings.NewProvider(settings.NewPGRepo(pool)).Load(cmd.Context())
				return render(cmd.OutOrStdout(), output, s)
			})
		},
	})
	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Order event outbox",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Publish pending outbox events once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), func(cfg config.Config, pool *pgxpool.Pool) error {
				var pub events.Publisher = events.Log{}
				if len(cfg.KafkaBrokers) > 0 {
					k := events.NewKafka(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic)
					defer k.Close()
					pub = k
				}
				n, err := events.NewRelay(events.NewPGOutbox(pool), pub, "storefrontctl").Flush(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %d events\n", n)
				return nil
			})
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign a development bearer token with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			tok, err := auth.NewVerifier(cfg.JWTSecret).Sign(auth.Identity{UserID: args[0], Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
