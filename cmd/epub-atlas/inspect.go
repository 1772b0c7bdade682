// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/epub-atlas/internal/epub"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the paragraph census of an EPUB",
	Long: `Inspect lists an EPUB's spine documents with their paragraph counts and
global index ranges. Mention files refer to these global indices, so this
is the reference for lining up AI output with the book.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := epub.Read(args[0])
		if err != nil {
			return err
		}

		refs, err := epub.BuildIndex(pkg)
		if err != nil {
			return err
		}

		start := 0
		for _, d := range pkg.Subdocuments() {
			n := len(d.Paragraphs())
			if n == 0 {
				fmt.Printf("%-40s  0 paragraphs\n", d.Path)
				continue
			}
			fmt.Printf("%-40s  %d paragraphs (global %d..%d)\n", d.Path, n, start, start+n-1)
			start += n
		}
		fmt.Printf("\nTotal: %d documents, %d paragraphs\n", len(pkg.Subdocuments()), len(refs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
