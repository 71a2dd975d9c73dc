package main

import (
	"fmt"
	"os"

	"github.com/Vovarama1992/teetimes/internal/upload"
	"github.com/spf13/cobra"
)

func loginCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Print an admin token for the password in TEETIMES_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("TEETIMES_PASSWORD")
			if password == "" {
				return fmt.Errorf("TEETIMES_PASSWORD is not set")
			}
			token, err := upload.NewClient(opts.apiURL, "").Login(cmd.Context(), password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
