package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// MsgAlreadySignedIn is reported by signin when a session is already stored.
const MsgAlreadySignedIn = "already signed in"

type credentialOptions struct {
	*RootOptions
	Email    string
	Password string
	Confirm  string
}

// NewSignUpCommand creates the signup command.
func NewSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Example: `  usersctl signup --email me@example.com --password 'S3cret!pw' --confirm 'S3cret!pw'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.identity().SignUp(cmd.Context(), opts.Email, opts.Password, opts.Confirm)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "sign-up failed", Err: err}
			}
			return opts.output(cmd).Result("Signed up as "+s.Email, s.SessionResponse)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")
	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", "password confirmation")

	return cmd
}

// NewSignInCommand creates the signin command.
func NewSignInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &credentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output(cmd)
			identity := opts.identity()

			current, err := identity.CurrentSession()
			if err != nil {
				return err
			}
			if current != nil {
				return out.Result(fmt.Sprintf("%s as %s", MsgAlreadySignedIn, current.Email), current.SessionResponse)
			}

			s, err := identity.SignIn(cmd.Context(), opts.Email, opts.Password)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "sign-in failed", Err: err}
			}
			return out.Result("Signed in as "+s.Email, s.SessionResponse)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.Password, "password", "", "account password")

	return cmd
}

// NewSignOutCommand creates the signout command.
func NewSignOutCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.output(cmd)
			identity := rootOpts.identity()

			current, err := identity.CurrentSession()
			if err != nil {
				return err
			}
			if current == nil {
				return out.Result("not signed in", nil)
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Sign out %s? [y/N] ", current.Email)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					return out.Result("sign-out cancelled", nil)
				}
			}

			if err := identity.SignOut(); err != nil {
				return err
			}
			return out.Result("Signed out", nil)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}
