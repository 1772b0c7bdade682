package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/epub-atlas/internal/cache"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen PLACE",
	Short: "Derive the cache key for a map request",
	Long: `Keygen prints the cache key a fetched map image must be stored under so
the embedder can resolve the place name back to it. Fetchers outside this
tool should call this (or reimplement the same derivation) before writing
into the cache directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoom, _ := cmd.Flags().GetInt("zoom")
		size, _ := cmd.Flags().GetString("size")
		mapType, _ := cmd.Flags().GetString("map-type")

		fmt.Println(cache.Key(args[0], zoom, size, mapType))
		return nil
	},
}

func init() {
	keygenCmd.Flags().Int("zoom", 12, "map zoom level")
	keygenCmd.Flags().String("size", "600x400", "map image size")
	keygenCmd.Flags().String("map-type", "roadmap", "map type")

	rootCmd.AddCommand(keygenCmd)
}
