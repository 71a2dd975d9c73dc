package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/teetimes/internal/upload"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func putCmd(opts *globalOptions) *cobra.Command {
	var (
		concurrency int
		name        string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file in parallel parts and print the asset id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.token == "" {
				return errors.New("no token: pass --token or set TEETIMES_TOKEN")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			log := zap.NewNop().Sugar()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer l.Sync()
				log = l.Sugar()
			}

			out := cmd.ErrOrStderr()
			var sent int64
			coord := upload.NewCoordinator(
				upload.NewClient(opts.apiURL, opts.token),
				upload.WithConcurrency(concurrency),
				upload.WithLogger(log),
				upload.WithProgress(func(p upload.Progress) {
					if p.Err != nil {
						fmt.Fprintf(out, "part %d failed: %v\n", p.PartNumber, p.Err)
						return
					}
					sent += p.Bytes
					fmt.Fprintf(out, "[%d/%d] %s / %s\n", p.Done, p.Total,
						humanize.IBytes(uint64(sent)), humanize.IBytes(uint64(info.Size())))
				}),
			)

			asset, err := coord.Upload(cmd.Context(), name, f, info.Size())
			if err != nil {
				var upErr *upload.Error
				if errors.As(err, &upErr) {
					return fmt.Errorf("%d part(s) failed, upload %s aborted: %w", len(upErr.Parts), upErr.UploadID, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s/%s\n", asset.ID, asset.CDN, asset.Key)
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "parallel part uploads (0 = min(parts, 8))")
	cmd.Flags().StringVar(&name, "name", "", "file name to store (defaults to the local name)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log coordinator activity")
	return cmd
}
