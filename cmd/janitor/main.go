package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jose-valero/camguard-bot/internal/infra/storage"
)

// mismo horizonte que el historial en memoria
const retention = 7 * 24 * time.Hour

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	db, closeDB, err := storage.OpenPool(ctx, dsn)
	if err != nil {
		return fmt.Sprintf("open: %v", err), nil
	}
	defer closeDB()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	decisions, history, err := storage.NewLedgerRepo(db).PruneOlderThan(cctx, retention)
	if err != nil {
		slog.Error("ledger prune", "err", err)
		return fmt.Sprintf("prune: %v", err), nil
	}
	slog.Info("ledger pruned", "decisions", decisions, "history", history)
	return fmt.Sprintf("ok decisions=%d history=%d", decisions, history), nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	lambda.Start(handler)
}
