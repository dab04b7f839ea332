package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/scrypster/lineage/internal/config"
	"github.com/scrypster/lineage/internal/crawl"
	"github.com/scrypster/lineage/internal/kittyapi"
	"github.com/scrypster/lineage/internal/storage/sqlite"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	IDs               []string
	IDsFile           string
	ParentLevels      int
	ChildLevels       int
	ChildParentLevels int
	Out               string
	NoCache           bool
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch [ids...]",
		Short: "Crawl family trees for the given kitty ids",
		Long: `Crawl family trees for the given kitty ids and write a bulk document.

Ids may be given as arguments, via --ids (comma separated), or one per
line in a file via --ids-file. Lines starting with # are skipped.

Example:
  lineage-fetch fetch 101 102 --parents 2 --children 1 --out family.json
  lineage-fetch fetch --ids-file roots.txt --parents 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args)
		},
	}

	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "comma separated kitty ids")
	cmd.Flags().StringVar(&opts.IDsFile, "ids-file", "", "file with one kitty id per line")
	cmd.Flags().IntVar(&opts.ParentLevels, "parents", 2, "ancestor generations to follow")
	cmd.Flags().IntVar(&opts.ChildLevels, "children", 0, "descendant generations to follow")
	cmd.Flags().IntVar(&opts.ChildParentLevels, "child-parent-levels", 0, "ancestor levels to fetch for each discovered child")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "skip the local payload cache")

	return cmd
}

func runFetch(opts *FetchOptions, args []string) error {
	roots, err := collectRoots(opts, args)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no kitty ids given")
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	client := kittyapi.NewClient(kittyapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	var cache *sqlite.PayloadCache
	if !opts.NoCache {
		cache, err = openCache(cfg.Crawl.CachePath)
		if err != nil {
			color.Yellow("cache unavailable (%v), fetching without it", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	crawler := crawl.New(client, cache, crawl.Config{
		ParentLevels:      opts.ParentLevels,
		ChildLevels:       opts.ChildLevels,
		ChildParentLevels: opts.ChildParentLevels,
		Delay:             time.Duration(cfg.Crawl.DelayMS) * time.Millisecond,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Fetching %d root(s), %d parent level(s), %d child level(s)...",
		len(roots), opts.ParentLevels, opts.ChildLevels)

	doc, err := crawler.Run(ctx, roots)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	if len(doc.Errors) > 0 {
		color.Yellow("%d id(s) failed:", len(doc.Errors))
		for _, fe := range doc.Errors {
			fmt.Fprintf(os.Stderr, "  %d: %s\n", fe.ID, fe.Reason)
		}
	}
	color.Green("Fetched %d kitties", len(doc.Kitties))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')

	if opts.Out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}
	color.Green("Wrote %s", opts.Out)
	return nil
}

func collectRoots(opts *FetchOptions, args []string) ([]int64, error) {
	seen := make(map[int64]struct{})
	var roots []int64
	add := func(value string) error {
		value = strings.TrimSpace(value)
		if value == "" || strings.HasPrefix(value, "#") {
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid kitty id %q", value)
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			roots = append(roots, id)
		}
		return nil
	}

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if err := add(part); err != nil {
				return nil, err
			}
		}
	}
	for _, part := range opts.IDs {
		if err := add(part); err != nil {
			return nil, err
		}
	}
	if opts.IDsFile != "" {
		f, err := os.Open(opts.IDsFile)
		if err != nil {
			return nil, fmt.Errorf("open ids file: %w", err)
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if err := add(scanner.Text()); err != nil {
				return nil, err
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read ids file: %w", err)
		}
	}
	return roots, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadConfig(), nil
	}
	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}
	return cfg, nil
}

func openCache(path string) (*sqlite.PayloadCache, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return sqlite.Open(path)
}
