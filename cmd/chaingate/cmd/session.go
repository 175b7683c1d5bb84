package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaingate/chaingate/internal/config"
)

var (
	sessionAddr string
	sessionUser string
	sessionPass string
	sessionID   string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions against a running server",
	Long: `Talk to a running chaingate server over its HTTP API.

Examples:
  # Open a session and print its id
  chaingate session create --user analyst1 --password "$CHAINGATE_PASSWORD"

  # Print the security summary (needs an admin session)
  chaingate session stats --session-id <id>`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Authenticate and open a session",
	RunE:  runSessionCreate,
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the security event summary",
	Long: `Print the security event summary of a running server.

Requires a session with admin access or above.`,
	RunE: runSessionStats,
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionAddr, "addr", "", "server address (default: server.http_addr from config)")
	sessionCreateCmd.Flags().StringVar(&sessionUser, "user", "", "user id")
	sessionCreateCmd.Flags().StringVar(&sessionPass, "password", "", "password (prefer passing via $CHAINGATE_PASSWORD)")
	sessionStatsCmd.Flags().StringVar(&sessionID, "session-id", "", "session id from a prior login")
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	rootCmd.AddCommand(sessionCmd)
}

// serverBaseURL resolves the target server address from the flag or the
// loaded configuration.
func serverBaseURL() (string, error) {
	addr := sessionAddr
	if addr == "" {
		cfg, err := config.LoadConfigRaw()
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		addr = cfg.Server.HTTPAddr
	}
	return "http://" + addr, nil
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	if sessionUser == "" {
		return fmt.Errorf("--user is required")
	}
	password := sessionPass
	if password == "" {
		password = os.Getenv("CHAINGATE_PASSWORD")
	}
	if password == "" {
		return fmt.Errorf("no password: pass --password or set CHAINGATE_PASSWORD")
	}

	base, err := serverBaseURL()
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"user_id":  sessionUser,
		"password": password,
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(base+"/v1/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("login request failed: %w\nIs the server running?", err)
	}
	defer resp.Body.Close()

	return printServerResponse(resp)
}

func runSessionStats(cmd *cobra.Command, args []string) error {
	if sessionID == "" {
		return fmt.Errorf("--session-id is required")
	}

	base, err := serverBaseURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodGet, base+"/v1/security/summary", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Session-ID", sessionID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("summary request failed: %w\nIs the server running?", err)
	}
	defer resp.Body.Close()

	return printServerResponse(resp)
}

// printServerResponse re-indents the server's JSON to stdout, or
// surfaces the error payload on non-2xx status.
func printServerResponse(resp *http.Response) error {
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(payload))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		os.Stdout.Write(payload)
		return nil
	}
	pretty.WriteByte('\n')
	_, err = os.Stdout.Write(pretty.Bytes())
	return err
}
