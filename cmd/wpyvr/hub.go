package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

func init() {
	addListFlags(hubListCmd)
	commentCmd.Flags().StringVar(&commentParent, "reply-to", "", "Parent comment ID")

	hubCmd.AddCommand(hubListCmd, hubShowCmd, likeCmd, unlikeCmd, commentsCmd, commentCmd)
	rootCmd.AddCommand(hubCmd)
}

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Read and engage with community hub posts",
}

func parsePostID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post ID %q", arg)
	}
	return id, nil
}

func printStats(s *client.HubStats) error {
	if jsonOutput() {
		return printJSON(s)
	}
	fmt.Printf("♥ %d  💬 %d  🔥 %.2f\n", s.LikesCount, s.CommentsCount, s.HotScore)
	return nil
}

// ── hub list / show ──────────────────────────────────────────────────────────

var hubListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hub posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts := app.cms.FetchHubPosts(cmd.Context(), listFlags)
		if jsonOutput() {
			return printJSON(posts)
		}
		if len(posts) == 0 {
			fmt.Println("No hub posts.")
			return nil
		}
		w := table()
		fmt.Fprintln(w, "ID\tSLUG\tTITLE\tLIKES\tCOMMENTS\tHOT")
		for _, p := range posts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.2f\n",
				p.ID, p.Slug, truncate(p.Title, 50), p.LikesCount, p.CommentsCount, p.HotScore)
		}
		return w.Flush()
	},
}

var hubShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show a hub post with fresh counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := app.cms.FetchHubPostBySlug(ctx, args[0])
		if p == nil {
			return fmt.Errorf("hub post %q not found", args[0])
		}
		if s := app.cms.FetchHubPostStats(ctx, p.ID); s != nil {
			p.ApplyStats(*s)
		}
		if jsonOutput() {
			return printJSON(p)
		}
		fmt.Printf("%s\n%s · %s\n\n%s\n\n", p.Title, p.Author, dateOnly(p.Date), p.Content)
		s := p.Stats()
		return printStats(&s)
	},
}

// ── like / unlike ────────────────────────────────────────────────────────────

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like a hub post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLike(cmd, args[0], true)
	},
}

var unlikeCmd = &cobra.Command{
	Use:   "unlike <post-id>",
	Short: "Remove your like from a hub post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLike(cmd, args[0], false)
	},
}

func runLike(cmd *cobra.Command, arg string, like bool) error {
	id, err := parsePostID(arg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	token, err := app.session(ctx)
	if err != nil {
		return err
	}
	var stats *client.HubStats
	if like {
		stats, err = app.cms.LikeHubPost(ctx, token, id)
	} else {
		stats, err = app.cms.UnlikeHubPost(ctx, token, id)
	}
	if err != nil {
		return app.authFailed(err)
	}
	return printStats(stats)
}

// ── comments ─────────────────────────────────────────────────────────────────

var commentParent string

var commentsCmd = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "List comments on a hub post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePostID(args[0])
		if err != nil {
			return err
		}
		comments := app.cms.FetchHubComments(cmd.Context(), id)
		if jsonOutput() {
			return printJSON(comments)
		}
		if len(comments) == 0 {
			fmt.Println("No comments yet.")
			return nil
		}
		for _, c := range comments {
			fmt.Printf("%s · %s\n  %s\n\n", c.AuthorName, dateOnly(c.Date), c.Content)
		}
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> <text...>",
	Short: "Comment on a hub post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parsePostID(args[0])
		if err != nil {
			return err
		}
		var parent int64
		if commentParent != "" {
			if parent, err = parsePostID(commentParent); err != nil {
				return fmt.Errorf("--reply-to: %w", err)
			}
		}
		ctx := cmd.Context()
		token, err := app.session(ctx)
		if err != nil {
			return err
		}
		in := client.CommentInput{
			PostID:  id,
			Content: strings.Join(args[1:], " "),
			Parent:  parent,
		}
		if ident := app.bridge.Identity(); ident != nil {
			in.AuthorName = ident.DisplayName
			in.AuthorEmail = ident.Email
		}
		c, err := app.cms.SubmitHubComment(ctx, token, in)
		if err != nil {
			return app.authFailed(err)
		}
		if jsonOutput() {
			return printJSON(c)
		}
		fmt.Printf("✓ Comment #%d posted\n", c.ID)
		return nil
	},
}
