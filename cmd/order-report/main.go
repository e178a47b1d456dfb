// Команда order-report выгружает заказы, статьи с низким остатком и сводку в XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/app"
	"github.com/vladislavdragonenkov/orderdesk/internal/report"
)

const defaultTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := app.DefaultConfig()
	flags := flag.NewFlagSet("order-report", flag.ContinueOnError)
	flags.SetOutput(stdout)

	var out string
	flags.StringVar(&cfg.StorageDriver, "driver", envOr("ORDERDESK_STORAGE_DRIVER", cfg.StorageDriver), "storage driver: memory|postgres|sqlite|mysql")
	flags.StringVar(&cfg.PostgresDSN, "postgres-dsn", os.Getenv("ORDERDESK_POSTGRES_DSN"), "PostgreSQL DSN")
	flags.StringVar(&cfg.GormDSN, "gorm-dsn", envOr("ORDERDESK_GORM_DSN", cfg.GormDSN), "sqlite/mysql DSN")
	flags.StringVar(&out, "out", "orders-"+time.Now().Format("20060102")+".xlsx", "output file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	// Отчёт только читает данные: схему не трогаем.
	cfg.PostgresAutoMigrate = false

	logger := log.WithField("component", "order-report")
	runtime, err := app.NewRuntime(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = runtime.Close() }()

	data, err := report.Collect(ctx, runtime.Orders, runtime.Articles, time.Now().UTC())
	if err != nil {
		return err
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := report.Write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	_, _ = fmt.Fprintf(stdout, "report written: %s orders=%d low_stock=%d\n", out, len(data.Orders), len(data.LowStock))
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
