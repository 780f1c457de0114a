package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarker/internal/assets"
	"github.com/aliskhannn/watermarker/internal/model"
	"github.com/aliskhannn/watermarker/internal/processor"
)

var applyCmd = &cobra.Command{
	Use:   "apply [image...]",
	Short: "Watermark local images",
	Long: `Watermark one or more local images. One input produces one PNG,
several inputs produce a single zip archive, exactly like the HTTP service.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		position, _ := flags.GetString("position")
		scale, _ := flags.GetFloat64("scale")
		opacity, _ := flags.GetFloat64("opacity")
		color, _ := flags.GetString("color")
		text, _ := flags.GetString("text")
		fontPath, _ := flags.GetString("font")
		fontSize, _ := flags.GetFloat64("font-size")
		alpha, _ := flags.GetUint8("alpha")
		assetsDir, _ := flags.GetString("assets")
		workers, _ := flags.GetInt("workers")
		outDir, _ := flags.GetString("out")

		spec := model.Spec{
			Position: model.ParsePosition(position),
			Scale:    scale,
			Opacity:  opacity,
			Variant:  model.ParseVariant(color),
			Text:     text,
		}
		if err := spec.Validate(); err != nil {
			return err
		}

		opts := []assets.Option{assets.WithTextStyle(fontSize, alpha)}
		if fontPath != "" {
			f, err := assets.LoadFont(fontPath)
			if err != nil {
				return err
			}
			opts = append(opts, assets.WithFont(f))
		}

		src := assets.Embedded()
		if assetsDir != "" {
			src = assets.NewFSSource(os.DirFS(assetsDir))
		}

		uploads := make([]model.Upload, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			uploads = append(uploads, model.Upload{
				Filename:    filepath.Base(path),
				ContentType: http.DetectContentType(data),
				Data:        data,
			})
		}

		p := processor.New(assets.NewResolver(src, opts...), workers)
		res, err := p.Process(cmd.Context(), model.BatchRequest{Uploads: uploads, Spec: spec})
		if err != nil {
			return err
		}

		for _, s := range res.Skipped {
			zlog.Logger.Warn().Str("filename", s.Filename).Str("reason", s.Reason).Msg("skipped")
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", outDir, err)
		}

		dst := filepath.Join(outDir, res.Filename)
		if err := os.WriteFile(dst, res.Payload, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d processed, %d skipped)\n", dst, res.Processed, len(res.Skipped))
		return nil
	},
}

func init() {
	applyCmd.Flags().String("position", string(model.Center), "top-left, top-right, bottom-left, bottom-right or center")
	applyCmd.Flags().Float64("scale", model.DefaultScale, "overlay scale in (0, 1]")
	applyCmd.Flags().Float64("opacity", model.DefaultOpacity, "overlay opacity in (0, 1]")
	applyCmd.Flags().String("color", string(model.Black), "overlay color: black or white")
	applyCmd.Flags().String("text", "", "draw this text instead of the packaged overlay")
	applyCmd.Flags().String("font", "", "TrueType font for --text")
	applyCmd.Flags().Float64("font-size", assets.DefaultFontSize, "point size for --text")
	applyCmd.Flags().Uint8("alpha", assets.DefaultTextAlpha, "text alpha, 0-255")
	applyCmd.Flags().String("assets", "", "directory holding watermark_black.png and watermark_white.png")
	applyCmd.Flags().Int("workers", 1, "images processed concurrently")
	applyCmd.Flags().StringP("out", "o", ".", "output directory")

	rootCmd.AddCommand(applyCmd)
}
