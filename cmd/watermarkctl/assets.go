package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/assets"
	"github.com/aliskhannn/watermarker/internal/config"
	"github.com/aliskhannn/watermarker/internal/storage/file"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage watermark overlay assets",
}

var assetsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the packaged overlays to the configured bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := cmd.Context()
		storage, err := file.NewStorage(
			ctx,
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.BucketName,
			cfg.Assets.Prefix,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			return err
		}

		src := assets.Embedded()
		names, err := src.Names()
		if err != nil {
			return err
		}

		for _, name := range names {
			rc, err := src.Load(ctx, name)
			if err != nil {
				return err
			}

			dst, err := storage.Save(ctx, name, rc, -1, "image/png")
			rc.Close()
			if err != nil {
				return err
			}

			zlog.Logger.Info().Str("object", dst).Msg("asset uploaded")
		}

		return nil
	},
}

func init() {
	assetsCmd.AddCommand(assetsPushCmd)
	rootCmd.AddCommand(assetsCmd)
}
