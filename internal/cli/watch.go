package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"realtime-users/internal/adapter/gin/handler"
	apperrors "realtime-users/pkg/errors"
)

// NewWatchCommand creates the watch command, which tails the live feed.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every change of the users list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := rootOpts.identity().CurrentSession()
			if err != nil {
				return err
			}
			if session == nil {
				return NewExitError(ExitFailure, "not signed in: run usersctl signin first")
			}

			endpoint, err := liveURL(rootOpts.Server)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return watchLive(cmd.Context(), endpoint, session.Token, rootOpts.output(cmd))
		},
	}
}

// liveURL turns the REST base URL into the websocket URL of the live feed.
func liveURL(server string) (string, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", server)
	}
	u.Path += "/v1/users/live"
	return u.String(), nil
}

// watchLive prints snapshots until ctx is done or the server ends the feed.
func watchLive(ctx context.Context, endpoint, token string, out *OutputFormatter) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return apperrors.NewAuthError("session rejected by server, sign in again", err)
		}
		return fmt.Errorf("failed to open live feed: %w", err)
	}
	defer ws.Close()

	// unblock ReadMessage on cancel
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if closeErr.Code == websocket.CloseNormalClosure {
					return nil
				}
				return apperrors.NewSyncError("live feed closed by server", closeErr)
			}
			return apperrors.NewSyncError("live feed lost", err)
		}

		var snapshot handler.SnapshotResponse
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("malformed snapshot: %w", err)
		}
		if err := printSnapshot(out, snapshot); err != nil {
			return err
		}
	}
}

func printSnapshot(out *OutputFormatter, snapshot handler.SnapshotResponse) error {
	if out.Format == "json" {
		return out.Result("snapshot", snapshot)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %d user(s) ---", len(snapshot.Users))
	for i, u := range snapshot.Users {
		fmt.Fprintf(&b, "\n%3d. %s <%s>", i+1, u.Name, u.Email)
	}
	return out.Result(b.String(), nil)
}
