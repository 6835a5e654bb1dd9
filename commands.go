package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/scipunch/tvfeed/catalog"
	"github.com/scipunch/tvfeed/feed"
	"github.com/scipunch/tvfeed/server"
)

func categoriesCmd() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the categories of the master feed",
		Action: func(cctx *cli.Context) error {
			conf, err := loadConfig(cctx)
			if err != nil {
				return err
			}
			client, store, err := newClient(conf)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			if err := client.LoadInitialData(cctx.Context); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for i, c := range client.Categories() {
				kind := "feed"
				if c.HasSubcategories() {
					kind = fmt.Sprintf("%d subcategories", len(c.Subcategories))
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", i, c.Name, kind)
			}
			return w.Flush()
		},
	}
}

func browseCmd() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Show the contents of a category or subcategory",
		Description: `Subcategories are addressed by a dot separated path of indexes,
each one into the folder list of the level above:

tvfeed browse --category 1 --subcategory 2.0 --item 3`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "category",
				Usage:    "category index",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "subcategory",
				Usage: "subcategory path, e.g. 2.0",
			},
			&cli.IntFlag{
				Name:  "item",
				Usage: "show details of the item at this index",
				Value: -1,
			},
		},
		Action: func(cctx *cli.Context) error {
			path, err := feed.ParsePath(cctx.String("subcategory"))
			if err != nil {
				return err
			}

			conf, err := loadConfig(cctx)
			if err != nil {
				return err
			}
			client, store, err := newClient(conf)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			if err := client.LoadInitialData(cctx.Context); err != nil {
				return err
			}
			contents, err := client.Navigate(cctx.Context, cctx.Int("category"), path)
			if err != nil {
				return err
			}

			if item := cctx.Int("item"); item >= 0 {
				client.SelectItem(item)
				current, ok := client.CurrentItem()
				if !ok {
					return fmt.Errorf("no item at index %d", item)
				}
				printItem(current)
				return nil
			}

			printContents(contents)
			return nil
		},
	}
}

func printContents(contents feed.Contents) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if contents.Folder != nil {
		fmt.Fprintf(w, "# %s\n", contents.Folder.Title)
	}
	if contents.IsFolder() {
		for i, s := range contents.Subcategories {
			marker := "feed"
			if s.IsNested() {
				marker = "folder"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", i, s.Title, marker)
		}
		return
	}
	for i, m := range contents.Media {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, m.Title, m.PubDate)
	}
}

func printItem(item catalog.MediaItem) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "title\t%s\n", item.Title)
	fmt.Fprintf(w, "published\t%s\n", item.PubDate)
	fmt.Fprintf(w, "video\t%s\n", item.VideoURL)
	fmt.Fprintf(w, "image\t%s\n", item.ImgURL)
	fmt.Fprintf(w, "thumbnail\t%s\n", item.ThumbURL)
	if item.Description != "" {
		fmt.Fprintf(w, "description\t%s\n", item.Description)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the feed client over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "listen address, overrides the config",
				EnvVars: []string{"TVFEED_LISTEN"},
			},
		},
		Action: func(cctx *cli.Context) error {
			conf, err := loadConfig(cctx)
			if err != nil {
				return err
			}
			if cctx.IsSet("listen") {
				conf.ListenAddr = cctx.String("listen")
			}

			client, store, err := newClient(conf)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			// Serve even without a master feed; /health reports zero categories
			if err := client.LoadInitialData(cctx.Context); err != nil {
				slog.Warn("starting without master feed", "error", err)
			}

			engine := server.NewServer(server.NewHandler(client, store))
			return server.Serve(cctx.Context, server.DefaultConfig(conf.ListenAddr), engine)
		},
	}
}

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the response cache",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache statistics",
				Action: func(cctx *cli.Context) error {
					conf, err := loadConfig(cctx)
					if err != nil {
						return err
					}
					store, err := openStore(conf)
					if err != nil {
						return err
					}
					defer store.Close()

					stats, err := store.Stats()
					if err != nil {
						return err
					}
					fmt.Printf("backend: %s\nentries: %d\nbytes: %d\n", stats.Backend, stats.Entries, stats.Bytes)
					if !stats.OldestEntry.IsZero() {
						fmt.Printf("oldest: %s\n", stats.OldestEntry.Format(time.RFC3339))
					}
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Remove all cache entries",
				Action: func(cctx *cli.Context) error {
					conf, err := loadConfig(cctx)
					if err != nil {
						return err
					}
					store, err := openStore(conf)
					if err != nil {
						return err
					}
					defer store.Close()

					if err := store.Clear(); err != nil {
						return fmt.Errorf("failed to clear cache: %w", err)
					}
					slog.Info("cache cleared successfully")
					return nil
				},
			},
		},
	}
}
