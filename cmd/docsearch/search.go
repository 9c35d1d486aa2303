package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/f4ah6o/docsearch-go/internal/config"
	"github.com/f4ah6o/docsearch-go/internal/search"
	"github.com/f4ah6o/docsearch-go/internal/store"
)

var (
	searchJSON   bool
	searchLimit  int
	searchSQLite bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the text index",
	Long: `With a query, prints the matching records and the page each one links to.
Without one, starts an interactive session: type a query to search, ":go N"
to follow result N, ":q" to quit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if len(args) == 1 {
			return runSearch(ctx, cfg, args[0], cmd.OutOrStdout())
		}
		return runREPL(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default search.max_results)")
	searchCmd.Flags().BoolVar(&searchSQLite, "sqlite", false, "search the SQLite store instead of the JSON index")
	rootCmd.AddCommand(searchCmd)
}

func limitFor(cfg *config.Config) int {
	if searchLimit > 0 {
		return searchLimit
	}
	return cfg.Search.MaxResults
}

func runSearch(ctx context.Context, cfg *config.Config, query string, w io.Writer) error {
	table, err := loadPageMap(cfg)
	if err != nil {
		return err
	}

	var records []search.TextRecord
	if searchSQLite {
		if cfg.SQLite == "" {
			return fmt.Errorf("sqlite path is not configured")
		}
		db, err := store.Open(cfg.SQLite)
		if err != nil {
			return fmt.Errorf("failed to open index database: %w", err)
		}
		defer db.Close()
		if records, err = db.Search(ctx, query, limitFor(cfg)); err != nil {
			return err
		}
	} else {
		index := search.NewIndex(search.NewLoader(cfg.IndexLocation()))
		records = index.Search(ctx, search.SearchOptions{Query: query, MaxResults: limitFor(cfg)})
	}

	results := search.Resolve(records, query, table)
	if searchJSON {
		return search.FormatJSON(w, results)
	}
	search.FormatResults(w, results, query)
	return nil
}

func runREPL(ctx context.Context, cfg *config.Config, in io.Reader, w io.Writer) error {
	table, err := loadPageMap(cfg)
	if err != nil {
		return err
	}
	index, closeIndex, err := openIndex(cfg, searchSQLite)
	if err != nil {
		return err
	}
	defer closeIndex()

	session := search.NewSession(index, limitFor(cfg))
	session.Open(ctx)

	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}
	prompt := func() {
		if interactive {
			fmt.Fprint(w, "search> ")
		}
	}

	var last []search.TextRecord
	scanner := bufio.NewScanner(in)
	for prompt(); scanner.Scan(); prompt() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == ":q" || line == ":quit":
			session.Close()
			return nil
		case strings.HasPrefix(line, ":go "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":go ")))
			if err != nil || n < 1 || n > len(last) {
				fmt.Fprintf(w, "no result %q\n", strings.TrimPrefix(line, ":go "))
				continue
			}
			if link, ok := session.Select(last[n-1], table); ok {
				fmt.Fprintln(w, link)
				last = nil
				session.Open(ctx)
			} else {
				fmt.Fprintf(w, "%s has no page\n", table.DisplayName(last[n-1].File))
			}
		default:
			session.SetQuery(line)
			last = session.Results(ctx)
			results := search.Resolve(last, line, table)
			if searchJSON {
				if err := search.FormatJSON(w, results); err != nil {
					return err
				}
				continue
			}
			search.FormatResults(w, results, line)
		}
	}
	return scanner.Err()
}
