// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/epub-atlas/internal/cache"
	"github.com/pdiddy/epub-atlas/internal/embed"
	"github.com/pdiddy/epub-atlas/internal/epub"
	"github.com/pdiddy/epub-atlas/internal/mentions"
	"github.com/pdiddy/epub-atlas/pkg/types"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Insert map figures into an EPUB after the paragraphs that mention them",
	Long: `Embed reads an EPUB, a mentions file (paragraph index + place name per
entry), and a map-image cache directory, then inserts a figure for every
mention whose place resolves to a cached image. Unresolvable mentions are
reported and skipped; the run continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		mentionsPath, _ := cmd.Flags().GetString("mentions")
		report, _ := cmd.Flags().GetString("report")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		cacheDir := stringOpt(cmd, "cache-dir", "cache_dir")

		cfg := types.EmbedderConfig{
			FigureClass:     stringOpt(cmd, "figure-class", "embed.figure_class"),
			FigureStyle:     stringOpt(cmd, "figure-style", "embed.figure_style"),
			CaptionTemplate: stringOpt(cmd, "caption", "embed.caption_template"),
			Strategy:        types.EmbedStrategy(stringOpt(cmd, "strategy", "embed.strategy")),
			MaxImageWidth:   intOpt(cmd, "max-width", "embed.max_image_width"),
		}

		embedder, err := embed.New(cfg)
		if err != nil {
			return err
		}

		pkg, err := epub.Read(input)
		if err != nil {
			return err
		}

		ms, err := mentions.Load(mentionsPath)
		if err != nil {
			return err
		}

		c, err := cache.Open(cacheDir, cache.Options{})
		if err != nil {
			return err
		}
		defer c.Close()

		images, err := c.Snapshot()
		if err != nil {
			return fmt.Errorf("loading cached images: %w", err)
		}

		res, err := embedder.EmbedAll(pkg, ms, images, os.Stdout)
		if err != nil {
			return err
		}

		fmt.Printf("\nEmbed summary: %d embedded, %d skipped (total: %d)\n",
			res.Embedded, res.Skipped(), res.Total())

		if report != "" {
			if err := writeReport(report, res); err != nil {
				return err
			}
			fmt.Println("Report written to", report)
		}

		if dryRun {
			fmt.Println("Dry run: output not written.")
			return nil
		}
		if err := pkg.WriteFile(output); err != nil {
			return err
		}
		fmt.Println("Wrote", output)
		return nil
	},
}

func writeReport(path string, res *types.EmbedResult) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// stringOpt reads a flag, falling back to the config file when the flag
// was not given on the command line.
func stringOpt(cmd *cobra.Command, flag, key string) string {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, _ := cmd.Flags().GetString(flag)
	return v
}

func intOpt(cmd *cobra.Command, flag, key string) int {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	v, _ := cmd.Flags().GetInt(flag)
	return v
}

func init() {
	defaults := types.DefaultEmbedderConfig()

	embedCmd.Flags().String("input", "", "input EPUB file")
	embedCmd.Flags().String("output", "", "output EPUB file")
	embedCmd.Flags().String("mentions", "", "mentions file (YAML or JSON)")
	embedCmd.Flags().String("cache-dir", ".cache_maps", "map image cache directory")
	embedCmd.Flags().String("strategy", string(defaults.Strategy), "embedding strategy: external or inline")
	embedCmd.Flags().String("caption", defaults.CaptionTemplate, "figure caption template with {place} placeholder")
	embedCmd.Flags().String("figure-class", defaults.FigureClass, "CSS class for inserted figures")
	embedCmd.Flags().String("figure-style", defaults.FigureStyle, "inline style for inserted figures")
	embedCmd.Flags().Int("max-width", defaults.MaxImageWidth, "maximum image width in pixels")
	embedCmd.Flags().String("report", "", "write a YAML embed report to this path")
	embedCmd.Flags().Bool("dry-run", false, "run the embedder without writing the output EPUB")

	_ = embedCmd.MarkFlagRequired("input")
	_ = embedCmd.MarkFlagRequired("output")
	_ = embedCmd.MarkFlagRequired("mentions")

	rootCmd.AddCommand(embedCmd)
}
