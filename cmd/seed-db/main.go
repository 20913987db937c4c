package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shoply/storefront/internal/storage/postgres"
)

type itemJSON struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Slug     string          `json:"slug"`
	Category string          `json:"category"`
	Label    string          `json:"label"`
}

func main() {
	var (
		databaseURL  string
		itemsFile    string
		sessionToken string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file")
	flag.StringVar(&sessionToken, "session-token", "", "demo session token to seed (or SHOP_SEED_SESSION_TOKEN env)")
	flag.StringVar(&pepper, "session-pepper", "", "HMAC pepper for session token hashing (or SHOP_SESSION_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sessionToken == "" {
		sessionToken = os.Getenv("SHOP_SEED_SESSION_TOKEN")
	}
	if pepper == "" {
		pepper = os.Getenv("SHOP_SESSION_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, sessionToken, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile, sessionToken, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, pool, itemsFile); err != nil {
		return errors.Wrap(err, "seed items")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if sessionToken != "" {
		if err := seedDemoUser(ctx, pool, sessionToken, pepper); err != nil {
			return errors.Wrap(err, "seed demo user")
		}
	}

	return nil
}

const upsertItemSQL = `INSERT INTO items (id, title, price, slug, category, label)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		slug = EXCLUDED.slug,
		category = EXCLUDED.category,
		label = EXCLUDED.label`

func seedItems(ctx context.Context, pool *pgxpool.Pool, itemsFile string) error {
	slog.Info("reading items file", slog.String("path", itemsFile))

	data, err := os.ReadFile(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var items []itemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse items JSON")
	}

	slog.Info("upserting items", slog.Int("count", len(items)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, it := range items {
		g.Go(func() error {
			if _, err := pool.Exec(gCtx, upsertItemSQL,
				it.ID, it.Title, it.Price, it.Slug, it.Category, it.Label,
			); err != nil {
				return errors.Wrapf(err, "upsert item %s", it.Slug)
			}

			slog.Info("upserted item", slog.String("slug", it.Slug), slog.String("title", it.Title))
			return nil
		})
	}

	return g.Wait()
}

const upsertCouponSQL = `INSERT INTO coupons (id, code, amount)
	VALUES ($1, $2, $3)
	ON CONFLICT (code) DO UPDATE SET amount = EXCLUDED.amount`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding coupons")

	coupons := []struct {
		id     string
		code   string
		amount decimal.Decimal
	}{
		{"cpn-welcome10", "WELCOME10", decimal.NewFromInt(10)},
		{"cpn-save5", "SAVE5", decimal.NewFromInt(5)},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL, c.id, c.code, c.amount); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("amount", c.amount.String()))
	}

	return nil
}

const (
	upsertUserSQL = `INSERT INTO users (id, username)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	upsertSessionSQL = `INSERT INTO sessions (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at`
)

func seedDemoUser(ctx context.Context, pool *pgxpool.Pool, sessionToken, pepper string) error {
	slog.Info("seeding demo user and session")

	if _, err := pool.Exec(ctx, upsertUserSQL, "usr-demo", "demo"); err != nil {
		return errors.Wrap(err, "upsert demo user")
	}

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(sessionToken))
	tokenHash := hex.EncodeToString(mac.Sum(nil))

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	if _, err := pool.Exec(ctx, upsertSessionSQL, "sess-demo", "usr-demo", tokenHash, expiresAt); err != nil {
		return errors.Wrap(err, "upsert demo session")
	}

	slog.Info("upserted demo session", slog.String("user", "demo"), slog.Time("expires_at", expiresAt))

	return nil
}
