package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"assetopt/internal/app"
	appErrors "assetopt/internal/errors"
	"assetopt/internal/infra/fs"
	"assetopt/internal/infra/s3store"
	"assetopt/internal/logging"
	"assetopt/internal/presentation"
)

func newVariantsCommand(f *flags) *cobra.Command {
	var widths []int
	var quality int

	cmd := &cobra.Command{
		Use:   "variants <source> <destination-base>",
		Short: "Write responsive width variants of one image",
		Long: "Writes {destination-base}-{width}w.webp for every width not larger than the source.\n" +
			"Widths default to 640, 1024, 1400 and 1920.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, base := args[0], strings.TrimSuffix(args[1], ".webp")
			if _, err := os.Stat(src); err != nil {
				return appErrors.Wrap(appErrors.NotFound, "stat", src, err)
			}
			if quality <= 0 || quality > 100 {
				return appErrors.Wrap(appErrors.InvalidConfig, "variants", "", fmt.Errorf("quality must be in (0, 100], got %d", quality))
			}

			generator := app.VariantGenerator{Codec: newCodec(), Widths: widths, Quality: quality}
			result, err := generator.Generate(cmd.Context(), src, base)
			if err != nil {
				return err
			}
			printer := &presentation.Printer{Writer: os.Stdout, Verbose: f.verbose}
			printer.PrintVariants(result)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&widths, "widths", nil, "Comma-separated variant widths")
	cmd.Flags().IntVarP(&quality, "quality", "q", app.DefaultVariantQuality, "WebP quality")
	return cmd
}

func newClassifyCommand(f *flags) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "classify <path>...",
		Short: "Show the preset and output path a run would use for each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stdout, os.Stderr, cfg.Verbose)
			planner, err := newPlanner(cfg, logger)
			if err != nil {
				return err
			}

			planner.Layout.SourceRoot = absolute(cfg.SourceRoot)
			planner.Layout.BrandRoot = absolute(cfg.BrandRoot())
			planner.Layout.ClientsRoot = absolute(cfg.ClientsRoot())

			printer := &presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose}
			for _, arg := range args {
				job, err := planner.PlanFile(absolute(arg), client)
				if err != nil {
					return err
				}
				printer.PrintClassification(arg, job)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Classify as work of this client instead of a brand asset")
	return cmd
}

func newPublishCommand(f *flags) *cobra.Command {
	var prefix string
	var bucket string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the destination tree to an S3-compatible bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("prefix") {
				cfg.Publish.Prefix = prefix
			}
			if cmd.Flags().Changed("bucket") {
				cfg.Publish.Bucket = bucket
			}

			client, err := s3store.New(s3store.Options{
				Endpoint:  cfg.Publish.Endpoint,
				Region:    cfg.Publish.Region,
				Bucket:    cfg.Publish.Bucket,
				AccessKey: cfg.Publish.AccessKey,
				SecretKey: cfg.Publish.SecretKey,
				UseSSL:    cfg.Publish.UseSSL,
			})
			if err != nil {
				return appErrors.Wrap(appErrors.InvalidConfig, "publish", "", err)
			}
			if err := client.EnsureBucket(cmd.Context()); err != nil {
				return appErrors.Wrap(appErrors.IOFailure, "publish", cfg.Publish.Bucket, err)
			}

			logger := logging.New(os.Stdout, os.Stderr, cfg.Verbose)
			publisher := &app.Publisher{
				FS:       fs.OSFS{},
				Uploader: client,
				Prefix:   cfg.Publish.Prefix,
				Logger:   logger,
				OnUpload: func(key string) { logger.Verbosef("uploaded %s", key) },
			}
			result, err := publisher.Publish(cmd.Context(), cfg.DestRoot)
			if err != nil {
				return err
			}
			printer := &presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose}
			printer.PrintPublished(result, cfg.Publish.Bucket)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix inside the bucket")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket name")
	return cmd
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
