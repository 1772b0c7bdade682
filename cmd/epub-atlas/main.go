// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the epub-atlas CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the epub-atlas CLI.
var rootCmd = &cobra.Command{
	Use:   "epub-atlas",
	Short: "Embed maps into EPUB books at the paragraphs that mention them",
	Long: `epub-atlas inserts map figures into EPUB files directly after the
paragraphs where places are mentioned. Place extraction and map fetching
happen upstream; this tool consumes their outputs (a mentions file and a
map-image cache) and rewrites the book.

Subcommands: embed runs the embedder over a book, inspect prints the
paragraph census the mention indices refer to, and keygen derives the
cache key an external fetcher should store an image under.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./epub-atlas.yaml or ~/.config/epub-atlas/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("epub-atlas")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "epub-atlas"))
		}
	}

	viper.SetEnvPrefix("EPUB_ATLAS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
