package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"nhooyr.io/websocket"

	"github.com/Ramsey-B/fern/pkg/bridge"
	"github.com/Ramsey-B/fern/pkg/report/reporttest"
)

// SimHostOptions holds options for the simhost command.
type SimHostOptions struct {
	URL    string
	Origin string
}

// NewSimHostCommand creates the simhost command.
func NewSimHostCommand() *cobra.Command {
	opts := &SimHostOptions{}

	cmd := &cobra.Command{
		Use:   "simhost",
		Short: "Connect an in-memory demo report to a running server's bridge",
		Long: `Play the part of the host page: connect to the bridge websocket and
answer the session's SDK calls from the in-memory demo report. Session state
pushed by the server is logged.`,
		Example: `  fern simhost --url ws://localhost:3000/api/v1/bridge`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimHost(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "ws://localhost:3000/api/v1/bridge", "Bridge websocket URL")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "Origin header sent with the handshake")

	return cmd
}

// stateSummary is the part of a pushed session state worth logging
type stateSummary struct {
	Phase            string `json:"phase"`
	CurrentPageIndex int    `json:"currentPageIndex"`
	Pages            []struct {
		DisplayName string `json:"displayName"`
	} `json:"pages"`
	LastActionError string `json:"lastActionError"`
}

func runSimHost(cmd *cobra.Command, opts *SimHostOptions) error {
	logger := GetLogger(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dialOpts *websocket.DialOptions
	if opts.Origin != "" {
		dialOpts = &websocket.DialOptions{HTTPHeader: http.Header{"Origin": []string{opts.Origin}}}
	}

	conn, _, err := websocket.Dial(ctx, opts.URL, dialOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "simulated host stopped")

	logger.Infof("Connected to %s", opts.URL)

	responder := bridge.NewResponder(conn, reporttest.NewDemoHost(), logger).
		OnNotify(func(method string, params json.RawMessage) {
			if method != bridge.MethodState {
				return
			}
			var state stateSummary
			if err := json.Unmarshal(params, &state); err != nil {
				logger.WithError(err).Warn("Unreadable session state")
				return
			}

			page := ""
			if state.CurrentPageIndex >= 0 && state.CurrentPageIndex < len(state.Pages) {
				page = state.Pages[state.CurrentPageIndex].DisplayName
			}
			log := logger.WithField("phase", state.Phase).WithField("pages", len(state.Pages)).WithField("page", page)
			if state.LastActionError != "" {
				log.Warnf("Session action failed: %s", state.LastActionError)
				return
			}
			log.Info("Session state")
		})

	if err := responder.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
