package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

var listFlags client.ListParams

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listFlags.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&listFlags.PerPage, "per-page", 10, "Items per page (max 100)")
	cmd.Flags().StringVar(&listFlags.Search, "search", "", "Full-text search")
	cmd.Flags().StringVar(&listFlags.OrderBy, "orderby", "", "Sort field (date, title, ...)")
	cmd.Flags().StringVar(&listFlags.Order, "order", "", "Sort direction: asc or desc")
}

func init() {
	addListFlags(postsCmd)
	postsCmd.Flags().Int64Var(&listFlags.Category, "category", 0, "Only posts in this category ID")
	addListFlags(eventsCmd)
	eventsCmd.Flags().BoolVar(&eventsUpcoming, "upcoming", false, "Hide past events")
	addListFlags(pagesCmd)
	browseCmd.Flags().IntVar(&listFlags.PerPage, "per-page", 10, "Posts per tab")

	rootCmd.AddCommand(postsCmd, postCmd, categoriesCmd, eventsCmd, eventCmd,
		pagesCmd, pageCmd, membersCmd, browseCmd)
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ── posts ────────────────────────────────────────────────────────────────────

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List blog posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts := app.cms.FetchBlogPosts(cmd.Context(), listFlags)
		return printPosts(posts)
	},
}

func printPosts(posts []client.Post) error {
	if jsonOutput() {
		return printJSON(posts)
	}
	if len(posts) == 0 {
		fmt.Println("No posts.")
		return nil
	}
	w := table()
	fmt.Fprintln(w, "ID\tDATE\tSLUG\tTITLE\tAUTHOR")
	for _, p := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, dateOnly(p.Date), p.Slug, truncate(p.Title, 60), p.Author)
	}
	return w.Flush()
}

var postCmd = &cobra.Command{
	Use:   "post <slug>",
	Short: "Show one blog post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := app.cms.FetchBlogPostBySlug(cmd.Context(), args[0])
		if p == nil {
			return fmt.Errorf("post %q not found", args[0])
		}
		if jsonOutput() {
			return printJSON(p)
		}
		fmt.Printf("%s\n%s · %s\n\n%s\n", p.Title, p.Author, dateOnly(p.Date), p.Content)
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List post categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cats := app.cms.FetchCategories(cmd.Context())
		if jsonOutput() {
			return printJSON(cats)
		}
		w := table()
		fmt.Fprintln(w, "ID\tSLUG\tNAME\tPOSTS")
		for _, c := range cats {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", c.ID, c.Slug, c.Name, c.Count)
		}
		return w.Flush()
	},
}

// ── events ───────────────────────────────────────────────────────────────────

var eventsUpcoming bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		events := app.cms.FetchEvents(cmd.Context(), listFlags)
		if eventsUpcoming {
			upcoming := events[:0]
			for _, e := range events {
				if !e.IsPast {
					upcoming = append(upcoming, e)
				}
			}
			events = upcoming
		}
		if jsonOutput() {
			return printJSON(events)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		w := table()
		fmt.Fprintln(w, "DATE\tTIME\tTITLE\tLOCATION\t")
		for _, e := range events {
			past := ""
			if e.IsPast {
				past = "(past)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.EventDate, e.Time, truncate(e.Title, 50), e.Location, past)
		}
		return w.Flush()
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <slug>",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := app.cms.FetchEventBySlug(cmd.Context(), args[0])
		if e == nil {
			return fmt.Errorf("event %q not found", args[0])
		}
		if jsonOutput() {
			return printJSON(e)
		}
		fmt.Printf("%s\n", e.Title)
		fmt.Printf("When:  %s %s\n", e.EventDate, e.Time)
		if e.Location != "" {
			fmt.Printf("Where: %s\n", e.Location)
		}
		if e.Link != "" {
			fmt.Printf("Link:  %s\n", e.Link)
		}
		fmt.Printf("\n%s\n", e.Content)
		return nil
	},
}

// ── pages ────────────────────────────────────────────────────────────────────

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List static pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		pages := app.cms.FetchPages(cmd.Context(), listFlags)
		if jsonOutput() {
			return printJSON(pages)
		}
		w := table()
		fmt.Fprintln(w, "ID\tSLUG\tTITLE\tMODIFIED")
		for _, p := range pages {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Slug, p.Title, dateOnly(p.Modified))
		}
		return w.Flush()
	},
}

var pageCmd = &cobra.Command{
	Use:   "page <slug>",
	Short: "Show one static page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := app.cms.FetchPageBySlug(cmd.Context(), args[0])
		if p == nil {
			return fmt.Errorf("page %q not found", args[0])
		}
		if jsonOutput() {
			return printJSON(p)
		}
		fmt.Printf("%s\n\n%s\n", p.Title, p.Content)
		return nil
	},
}

// ── members ──────────────────────────────────────────────────────────────────

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List public member profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		members := app.cms.FetchMembers(cmd.Context())
		if jsonOutput() {
			return printJSON(members)
		}
		w := table()
		fmt.Fprintln(w, "ID\tNICKNAME\tPOSITION\tCOMPANY")
		for _, m := range members {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.UserID, m.Nickname, m.Position, m.Company)
		}
		return w.Flush()
	},
}

// ── browse ───────────────────────────────────────────────────────────────────

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Switch between category tabs interactively",
	Long: `browse lists the categories and reads a category ID (or 0 for all
posts) per line from stdin. Typing a new ID while the previous tab is still
loading abandons it; only the latest tab is printed. An empty line or EOF
quits.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cats := app.cms.FetchCategories(ctx)
	for _, c := range cats {
		fmt.Printf("  [%d] %s (%d)\n", c.ID, c.Name, c.Count)
	}
	fmt.Println("  [0] All posts")

	tabs := app.cms.NewCategoryTabs(listFlags)
	var wg sync.WaitGroup
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("category> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			break
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil || id < 0 {
			fmt.Println("enter a category ID")
			continue
		}
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			posts, applied := tabs.Select(ctx, id)
			if !applied {
				return
			}
			fmt.Printf("\n── category %d ──\n", id)
			printPosts(posts) //nolint:errcheck
		}(id)
	}
	// The latest tab still prints when input ends before it loads.
	wg.Wait()
	return in.Err()
}

func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
