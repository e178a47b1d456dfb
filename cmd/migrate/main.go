// Команда migrate управляет схемой PostgreSQL: up, down, ensure и status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vladislavdragonenkov/orderdesk/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

var errDSNRequired = errors.New("ORDERDESK_POSTGRES_DSN (or -dsn) is required")

// schema: операции Store, которые нужны командам миграции.
type schema interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	EnsureSchema(ctx context.Context) error
	MigrationStatus(ctx context.Context) (int64, int, error)
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	var (
		direction string
		steps     int
		dsn       string
	)
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(stdout)
	flags.StringVar(&direction, "direction", "up", "migration direction: up|down|status|ensure")
	flags.IntVar(&steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flags.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: ORDERDESK_POSTGRES_DSN)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	action, err := parseDirection(direction)
	if err != nil {
		return err
	}

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(getenv("ORDERDESK_POSTGRES_DSN"))
	}
	if dsn == "" {
		return errDSNRequired
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	return apply(ctx, store, action, steps, stdout)
}

func parseDirection(raw string) (string, error) {
	switch d := strings.ToLower(strings.TrimSpace(raw)); d {
	case "up", "down", "ensure", "status":
		return d, nil
	default:
		return "", fmt.Errorf("unsupported direction: %s (use up|down|status|ensure)", raw)
	}
}

func apply(ctx context.Context, s schema, direction string, steps int, stdout io.Writer) error {
	var err error
	switch direction {
	case "up":
		err = s.MigrateUp(ctx, steps)
	case "down":
		err = s.MigrateDown(ctx, steps)
	case "ensure":
		err = s.EnsureSchema(ctx)
	}
	if err != nil {
		return fmt.Errorf("migrate %s failed: %w", direction, err)
	}

	version, count, err := s.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "%s ok: version=%d applied=%d\n", direction, version, count)
	return nil
}
