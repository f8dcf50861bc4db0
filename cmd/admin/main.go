// Command admin runs operator tasks against the rollbook database.
package main

import (
	"context"
	"fmt"
	"os"

	"rollbook/internal/auth"
	"rollbook/internal/config"
	"rollbook/internal/store"
)

func main() {
	cfg := config.Load()
	cli := &commandLine{
		connect: func(ctx context.Context) (*store.DB, error) {
			return store.NewDB(ctx, cfg.DatabaseURL, store.PoolOptions{MaxOpen: 2, MaxIdle: 1})
		},
	}
	cli.users = func(ctx context.Context) (auth.UserStore, func(), error) {
		db, err := cli.connect(ctx)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return auth.NewRepository(db.Client), func() { _ = db.Close() }, nil
	}

	if err := cli.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
