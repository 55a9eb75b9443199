package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Terminal access for the password prompt. Replaced in tests.
var (
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword    = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email    string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with email and password.

On success the session token is stored in the database and used by every
later command until logout. Without --password the password is read from
the terminal without echo.

Example:
  feedsync login --email ada@example.com --password secret
  feedsync login --email ada@example.com`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password (prompted when omitted)")

	return cmd
}

func runLogin(opts *LoginOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)

	if !cmd.Flags().Changed("password") {
		password, err := promptPassword(cmd.ErrOrStderr())
		if err != nil {
			return outputError(f, ErrCodeInput, "cannot read password", err)
		}
		opts.Password = password
	}

	a, err := openApp(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.engine.Login(commandContext(cmd), opts.Email, opts.Password)
	if res.Err != nil {
		return outputOpError(f, res.Err)
	}

	view := newSessionView(a.engine.Snapshot().Session)
	if f.Format == "json" {
		return f.Success(view)
	}
	writeSession(f.Writer, view)
	return nil
}

// promptPassword reads a password from the terminal. It fails when stdin is
// not a terminal so scripts get an error instead of a hang.
func promptPassword(w io.Writer) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(w, "Password: ")
	b, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Forget the stored session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(rootOpts, cmd)
		},
	}
}

func runLogout(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	a, err := openApp(cmd, opts, f)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.engine.Logout(commandContext(cmd))
	if res.Err != nil {
		return outputOpError(f, res.Err)
	}

	view := newSessionView(a.engine.Snapshot().Session)
	if f.Format == "json" {
		return f.Success(view)
	}
	fmt.Fprintln(f.Writer, "Logged out")
	return nil
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show whether a session is stored.

The token is not checked with the server; an expired token is only
discovered by the next command that needs it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts)
	a, err := openApp(cmd, opts, f)
	if err != nil {
		return err
	}
	defer a.Close()

	view := newSessionView(a.engine.Snapshot().Session)
	if f.Format == "json" {
		return f.Success(view)
	}
	writeSession(f.Writer, view)
	return nil
}
