package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRepliesCommand creates the replies command.
func NewRepliesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "replies <post-id>",
		Short:         "Fetch and print the replies of a post",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplies(rootOpts, args[0], cmd)
		},
	}
}

func runReplies(opts *RootOptions, postID string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	a, err := openApp(cmd, opts, f)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.engine.FetchReplies(commandContext(cmd), postID)
	if res.Err != nil {
		return outputOpError(f, res.Err)
	}

	snap := a.engine.Snapshot()
	entry, _ := snap.ReplyEntry(postID)
	views := replyViews(entry.Replies, snap.Session.UserID)
	if f.Format == "json" {
		return f.Success(views)
	}
	writePosts(f.Writer, views, "No replies")
	return nil
}

// ReplyOptions holds flags for the reply command.
type ReplyOptions struct {
	*RootOptions
	Show bool
}

// NewReplyCommand creates the reply command.
func NewReplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reply <post-id> <text>...",
		Short: "Reply to a post",
		Long: `Reply to a post. The text arguments are joined with spaces.

With --show the post's replies are loaded first and refetched once the
reply is confirmed, and the whole thread is printed.

Example:
  feedsync reply p1 "Nice one"
  feedsync reply --show p1 Nice one`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReply(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Show, "show", false, "print the thread after replying")

	return cmd
}

func runReply(opts *ReplyOptions, postID, text string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	a, err := openApp(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	viewer := a.engine.Snapshot().Session.UserID

	if !opts.Show {
		res := a.engine.SubmitReply(ctx, postID, text)
		if res.Err != nil {
			return outputOpError(f, res.Err)
		}
		view := newReplyView(res.Value, viewer)
		if f.Format == "json" {
			return f.Success(view)
		}
		fmt.Fprintln(f.Writer, "Replied")
		writePost(f.Writer, view, "")
		return nil
	}

	if res := a.engine.FetchReplies(ctx, postID); res.Err != nil {
		return outputOpError(f, res.Err)
	}
	submitted, refreshed := a.engine.SubmitReplyAndRefresh(ctx, postID, text)
	if submitted.Err != nil {
		return outputOpError(f, submitted.Err)
	}
	if refreshed.Err != nil {
		return outputOpError(f, refreshed.Err)
	}

	entry, _ := a.engine.Snapshot().ReplyEntry(postID)
	views := replyViews(entry.Replies, viewer)
	if f.Format == "json" {
		return f.Success(views)
	}
	writePosts(f.Writer, views, "No replies")
	return nil
}
