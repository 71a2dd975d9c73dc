package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	// Ctrl-C cancels the running command, so put aborts its multipart upload.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:           "uploadctl",
		Short:         "Upload course assets to a teetimes API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("TEETIMES_API_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("TEETIMES_TOKEN"), "admin bearer token")

	rootCmd.AddCommand(loginCmd(&opts))
	rootCmd.AddCommand(putCmd(&opts))
	return rootCmd
}

type globalOptions struct {
	apiURL string
	token  string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
