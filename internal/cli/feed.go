package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/feedsync/internal/domain"
)

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Fetch and print the feed",
		Long: `Fetch the feed from the server and print it, newest first as the
server orders it. Reaction counts are shown next to each post; a * marks
your own reaction.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(rootOpts, cmd)
		},
	}
}

func runFeed(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	a, err := openApp(cmd, opts, f)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.engine.FetchFeed(commandContext(cmd))
	if res.Err != nil {
		return outputOpError(f, res.Err)
	}

	snap := a.engine.Snapshot()
	views := postViews(snap.Feed, snap.Session.UserID)
	if f.Format == "json" {
		return f.Success(views)
	}
	writePosts(f.Writer, views, "No posts")
	return nil
}

// PostOptions holds flags for the post command.
type PostOptions struct {
	*RootOptions
	Refresh bool
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post <text>...",
		Short: "Publish a post",
		Long: `Publish a post. The arguments are joined with spaces.

With --refresh the feed is fetched again after the post is confirmed and
printed instead of the new post.

Example:
  feedsync post "Hello everyone"
  feedsync post --refresh Hello everyone`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "refetch and print the feed after posting")

	return cmd
}

func runPost(opts *PostOptions, text string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)
	a, err := openApp(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	viewer := a.engine.Snapshot().Session.UserID

	if !opts.Refresh {
		res := a.engine.CreatePost(ctx, text)
		if res.Err != nil {
			return outputOpError(f, res.Err)
		}
		view := newPostView(res.Value, viewer)
		if f.Format == "json" {
			return f.Success(view)
		}
		fmt.Fprintln(f.Writer, "Posted")
		writePost(f.Writer, view, "")
		return nil
	}

	created, refreshed := a.engine.CreatePostAndRefresh(ctx, text)
	if created.Err != nil {
		return outputOpError(f, created.Err)
	}
	if refreshed.Err != nil {
		// The post exists; only the refresh failed.
		f.VerboseLog("post %s created", created.Value.ID)
		return outputOpError(f, refreshed.Err)
	}

	views := postViews(a.engine.Snapshot().Feed, viewer)
	if f.Format == "json" {
		return f.Success(views)
	}
	writePosts(f.Writer, views, "No posts")
	return nil
}

// NewReactCommand creates the react command.
func NewReactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "react <post-id> <type>",
		Short: "Toggle a reaction on a post",
		Long: fmt.Sprintf(`Toggle your reaction of the given type on a post. Reacting again with
the same type removes the reaction. The counts printed are the ones the
server confirmed.

Types: %s`, reactionTypeList()),
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReact(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runReact(opts *RootOptions, postID, reaction string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	a, err := openApp(cmd, opts, f)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.engine.ToggleReaction(commandContext(cmd), postID, domain.ReactionType(reaction))
	if res.Err != nil {
		return outputOpError(f, res.Err)
	}

	view := newPostView(res.Value, a.engine.Snapshot().Session.UserID)
	if f.Format == "json" {
		return f.Success(view)
	}
	writePost(f.Writer, view, "")
	return nil
}

func reactionTypeList() string {
	names := make([]string, len(domain.AllReactionTypes))
	for i, rt := range domain.AllReactionTypes {
		names[i] = string(rt)
	}
	return strings.Join(names, ", ")
}
