package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/Alcereo/inventory-gateway/pkg/client"
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/Alcereo/inventory-gateway/pkg/crypt"
	"github.com/Alcereo/inventory-gateway/pkg/reports"
	"github.com/Alcereo/inventory-gateway/pkg/session"
	"github.com/Alcereo/inventory-gateway/pkg/storage"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const usage = `Usage: inventory [flags] <command> [args]

Commands:
  login <email> <password>
  register <email> <password>
  logout
  status
  items
  add-item
  delete-item <id>
  sales
  sell <item-id> <quantity>
  reports

Flags:
`

func main() {
	_ = godotenv.Load()

	flags := buildFlags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if err := viper.BindPFlags(flags); err != nil {
		log.Fatal(err)
	}
	_ = viper.BindEnv("gateway-url", "INVENTORY_GATEWAY_URL")
	_ = viper.BindEnv("storage-key", "INVENTORY_STORAGE_KEY")
	setupLogging(viper.GetString("log-level"))

	args := flags.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
		os.Exit(2)
	}

	app, err := newApp(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	defer app.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildFlags() *pflag.FlagSet {
	home, _ := os.UserHomeDir()
	flags := pflag.NewFlagSet("inventory", pflag.ContinueOnError)
	flags.String("gateway-url", "http://localhost:8080", "gateway base url")
	flags.String("session-file", filepath.Join(home, ".inventory", "session.yaml"), "file keeping the signed-in session")
	flags.String("storage-key", "", "passphrase encrypting the session file")
	flags.Bool("memory", false, "keep the session in memory only")
	flags.String("log-level", "warn", "log level: trace, debug, info, warn")
	flags.Duration("interval", reports.DefaultInterval, "report refresh interval")
	flags.Duration("duration", 0, "stop reports after this long (0 runs until interrupted)")
	flags.String("name", "", "item name")
	flags.String("description", "", "item description")
	flags.Float64("purchase-price", 0, "item purchase price")
	flags.Float64("selling-price", 0, "item selling price")
	flags.Int("quantity", 0, "item quantity")
	flags.Int("threshold", 0, "low stock threshold")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	return flags
}

func setupLogging(level string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.WarnLevel
	}
	log.SetLevel(parsed)
	log.SetOutput(os.Stderr)
}

type application struct {
	out       io.Writer
	store     *session.Store
	inventory *session.Inventory
}

func newApp(out io.Writer) (*application, error) {
	gateway, err := client.New(viper.GetString("gateway-url"), nil)
	if err != nil {
		return nil, err
	}

	var values storage.Storage
	if viper.GetBool("memory") {
		values = storage.NewGoCacheStorage()
	} else {
		var encryptor *crypt.Encryptor
		if key := viper.GetString("storage-key"); key != "" {
			encryptor = crypt.NewEncryptor(key)
		}
		values = storage.NewFileStorage(viper.GetString("session-file"), encryptor)
	}

	store := session.NewStore(gateway, values, log.NewEntry(log.StandardLogger()))
	return &application{
		out:       out,
		store:     store,
		inventory: session.NewInventory(store, gateway),
	}, nil
}

func (app *application) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login", "register":
		if len(args) != 2 {
			return fmt.Errorf("%s requires <email> <password>", command)
		}
		if fields := session.ValidateCredentials(args[0], args[1]); fields != nil {
			fmt.Fprint(app.out, session.RenderFieldErrors(fields))
			return errors.New(session.InvalidCredentials)
		}
		if command == "login" {
			app.store.Login(ctx, args[0], args[1])
		} else {
			app.store.Register(ctx, args[0], args[1])
			if app.store.Snapshot().Authenticated() {
				fmt.Fprintln(app.out, "Registration successful. You are now logged in.")
			}
		}
		return app.showView()
	case "logout":
		app.store.Logout()
		return app.showView()
	case "status":
		app.store.CheckSession(ctx)
		return app.showView()
	case "items":
		items, err := app.inventory.Items(ctx)
		if err != nil {
			return app.explain(err)
		}
		return app.print(items)
	case "add-item":
		created, err := app.inventory.AddItem(ctx, common.NewItem{
			Name:              viper.GetString("name"),
			Description:       viper.GetString("description"),
			PurchasePrice:     viper.GetFloat64("purchase-price"),
			SellingPrice:      viper.GetFloat64("selling-price"),
			Quantity:          viper.GetInt("quantity"),
			LowStockThreshold: viper.GetInt("threshold"),
		})
		if err != nil {
			return app.explain(err)
		}
		return app.print(created)
	case "delete-item":
		if len(args) != 1 {
			return errors.New("delete-item requires <id>")
		}
		if err := app.inventory.DeleteItem(ctx, args[0]); err != nil {
			return app.explain(err)
		}
		fmt.Fprintf(app.out, "Item %s deleted\n", args[0])
		return nil
	case "sales":
		sales, err := app.inventory.Sales(ctx)
		if err != nil {
			return app.explain(err)
		}
		return app.print(sales)
	case "sell":
		if len(args) != 2 {
			return errors.New("sell requires <item-id> <quantity>")
		}
		var quantity int
		if _, err := fmt.Sscanf(args[1], "%d", &quantity); err != nil {
			return fmt.Errorf("quantity must be an integer: %w", err)
		}
		sale, err := app.inventory.Sell(ctx, common.NewSale{ItemId: args[0], Quantity: quantity})
		if err != nil {
			return app.explain(err)
		}
		return app.print(sale)
	case "reports":
		return app.watchReports(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (app *application) watchReports(ctx context.Context) error {
	if duration := viper.GetDuration("duration"); duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	refresher := reports.NewRefresher(app.inventory, viper.GetDuration("interval"), log.NewEntry(log.StandardLogger()))
	refresher.OnUpdate(func(report reports.Report) {
		fmt.Fprintf(app.out, "[%s] sales: %d units, revenue %.2f; items: %d, low stock: %d\n",
			report.FetchedAt.Format(time.Kitchen),
			report.UnitsSold,
			report.Revenue,
			len(report.Items),
			len(report.LowStock),
		)
	})
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	refresher.Stop()

	if _, err := refresher.Latest(); err != nil {
		return app.explain(err)
	}
	return nil
}

func (app *application) showView() error {
	view := session.SelectView(app.store.Snapshot())
	fmt.Fprintln(app.out, view.Render())
	return nil
}

func (app *application) explain(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprint(app.out, session.RenderFieldErrors(apiErr.Fields))
		if apiErr.Status == 401 {
			return errors.New(session.SessionExpired + ". Please login again.")
		}
		return errors.New(apiErr.Message)
	}
	if errors.Is(err, session.ErrNotSignedIn) {
		return errors.New("not signed in: run `inventory login <email> <password>`")
	}
	return err
}

func (app *application) print(value interface{}) error {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(app.out, string(bytes))
	return err
}
