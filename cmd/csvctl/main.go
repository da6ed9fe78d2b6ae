// Command csvctl imports, inspects and exports CSV batches from the shell.
//
// It shares the server's configuration (environment and .env) and store,
// so files imported here show up in the API and vice versa. Logs go to
// stderr; data goes to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/JonMunkholm/csvbatch/internal/core/fields" // Register system field schemas
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", userError(err))
		a.close()
		os.Exit(exitCodeFor(err))
	}
}
