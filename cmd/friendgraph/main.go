package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/vidfriends/friendgraph/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("friendgraph exited", "error", err)
		os.Exit(1)
	}
}
