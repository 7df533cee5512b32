package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/chatrelay/pkg/llm"
)

const askLongDesc string = `Send one message to a running chat relay and print the reply.

All arguments are joined with spaces into a single message. When
stdout is a terminal the reply is rendered as markdown; use --raw
to print it unchanged.

Examples:
  chatrelay ask "What is a Merkle DAG?"
  chatrelay ask --server http://10.0.0.5:5000 --raw hello there`

const askShortDesc string = "Ask a running relay a question"

const defaultWrapWidth = 100

type askCommander struct {
	serverURL string
	raw       bool
	timeout   time.Duration
}

// askResponse holds either side of the relay's reply.
type askResponse struct {
	llm.ChatResponse
	llm.ErrorResponse
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://127.0.0.1:5000", "Relay server URL")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the reply without markdown rendering")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 2*time.Minute, "Overall request timeout")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, message string) error {
	reply, err := c.send(ctx, message)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	width, tty := terminalWidth(out)
	if c.raw || !tty {
		fmt.Fprintln(out, reply)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("could not create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(reply)
	if err != nil {
		// Unrenderable markdown is still a valid reply.
		fmt.Fprintln(out, reply)
		return nil
	}

	fmt.Fprint(out, rendered)
	return nil
}

// send posts message to the relay and returns its reply text. Relay-side
// failures come back as errors carrying the relay's error message.
func (c *askCommander) send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(llm.ChatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := strings.TrimRight(c.serverURL, "/") + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response: %w", err)
	}

	var result askResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("relay returned %d with unexpected body: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay returned %d: %s", resp.StatusCode, result.Error)
	}

	return result.Reply, nil
}

// terminalWidth reports whether w is a terminal and, if so, its wrap width.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}

	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 || width > defaultWrapWidth {
		width = defaultWrapWidth
	}
	return width, true
}
