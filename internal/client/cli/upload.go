package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/storage"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/upload"
)

// NewUploadCommand creates the batch upload command.
func NewUploadCommand(_ *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload attachments and print their remote objects",
		Long: `Validate and upload files the way the composer does, wait for every
transfer and print the resulting objects as JSON. The command fails when any
file was rejected or did not upload.

Example:
  feedsync upload --s3-endpoint http://127.0.0.1:9000 a.png b.jpg`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			st, err := storage.NewS3Storage(ctx, cfg.S3, logger)
			if err != nil {
				return err
			}
			previews := preview.NewMemoryRegistry(logger)
			defer previews.Close()

			q := upload.NewQueue(st, previews, upload.Options{
				MaxFiles:    cfg.Upload.MaxFiles,
				Concurrency: cfg.Upload.Concurrency,
				Validator:   upload.NewValidator(cfg.Upload.AllowedTypes, cfg.Upload.MaxFileSize),
				Prober:      upload.ImageProber{},
				Notifier:    noticePrinter(cmd.ErrOrStderr()),
				Logger:      logger,
			})
			defer q.Close()

			return uploadFiles(cmd, q, args)
		},
	}
	return cmd
}

func uploadFiles(cmd *cobra.Command, q *upload.Queue, paths []string) error {
	files := make([]models.LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := models.NewDiskFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	res := q.Add(files)
	q.Wait()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(q.Attachments()); err != nil {
		return err
	}

	if n := len(res.Rejected); n > 0 {
		return fmt.Errorf("%d of %d files rejected", n, len(paths))
	}
	if q.HasFailed() {
		return fmt.Errorf("some uploads failed")
	}
	return nil
}
