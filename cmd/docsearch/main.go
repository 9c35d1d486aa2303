// Package main is the entry point for the docsearch tool.
// docsearch extracts the text of the tutorial site's pages into a search
// index, searches it from the terminal, and serves the exported site with
// search-and-highlight navigation.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
