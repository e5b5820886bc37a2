package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcadapter "realtime-users/internal/adapter/grpc"
	"realtime-users/internal/usecase/user"
)

const uiHelp = `commands:
  add <name> , <email>   save the form (updates the record being edited)
  edit <n>               load row n into the form
  delete <n>             delete row n
  cancel                 stop editing and clear the form
  list                   print the list again
  quit                   leave`

// Command verbs understood by the ui.
const (
	verbAdd    = "add"
	verbEdit   = "edit"
	verbDelete = "delete"
	verbCancel = "cancel"
	verbList   = "list"
	verbHelp   = "help"
	verbQuit   = "quit"
)

// uiCommand is one parsed input line.
type uiCommand struct {
	verb  string
	row   int // 0-based
	name  string
	email string
}

// parseCommand parses a ui input line. Rows are typed 1-based.
func parseCommand(line string) (uiCommand, error) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	rest = strings.TrimSpace(rest)

	switch verb {
	case verbAdd:
		name, email, _ := strings.Cut(rest, ",")
		return uiCommand{verb: verbAdd, name: name, email: email}, nil
	case verbEdit, verbDelete:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return uiCommand{}, fmt.Errorf("usage: %s <row number>", verb)
		}
		return uiCommand{verb: verb, row: n - 1}, nil
	case verbCancel, verbList, verbHelp:
		return uiCommand{verb: verb}, nil
	case verbQuit, "exit", "q":
		return uiCommand{verb: verbQuit}, nil
	case "":
		return uiCommand{}, nil
	default:
		return uiCommand{}, fmt.Errorf("unknown command %q (type help)", verb)
	}
}

// NewUICommand creates the interactive list command.
func NewUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the live users list",
		Long: `Open the live users list. The list follows every change made by
any client; records are added, edited and deleted with line commands.

` + uiHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := rootOpts.identity().CurrentSession()
			if err != nil {
				return err
			}
			if session == nil {
				return NewExitError(ExitFailure, "not signed in: run usersctl signin first")
			}

			conn, err := grpc.NewClient(rootOpts.GRPC,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpcadapter.WithToken(session.Token, false),
			)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", rootOpts.GRPC, err)
			}
			defer conn.Close()

			log := rootOpts.logger()
			defer func() { _ = log.Sync() }()

			view := NewTerminalView(cmd.OutOrStdout(), rootOpts.Format)
			screen := user.NewScreen(grpcadapter.NewCollectionClient(conn, log), view, log)
			return runUI(cmd.Context(), screen, view, cmd.InOrStdin())
		},
	}
}

// runUI runs screen and feeds it the commands read from in until quit,
// end of input or ctx is done.
func runUI(ctx context.Context, screen *user.Screen, view *TerminalView, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	screenErr := make(chan error, 1)
	go func() { screenErr <- screen.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	err := dispatch(ctx, screen, view, lines)
	cancel()
	if runErr := <-screenErr; runErr != nil {
		return runErr
	}
	return err
}

func dispatch(ctx context.Context, screen *user.Screen, view *TerminalView, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			c, err := parseCommand(line)
			if err != nil {
				view.Println(err.Error())
				view.Prompt()
				continue
			}

			switch c.verb {
			case verbAdd:
				screen.Submit(c.name, c.email)
			case verbEdit:
				screen.Edit(c.row)
			case verbDelete:
				screen.Delete(c.row)
			case verbCancel:
				screen.CancelEdit()
			case verbList:
				screen.Refresh()
			case verbHelp:
				view.Println(uiHelp)
				view.Prompt()
			case verbQuit:
				return nil
			default:
				view.Prompt()
			}
		}
	}
}
