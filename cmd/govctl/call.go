package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: "Send a signed request to the server and print the response",
		Long: `Send a request authenticated with a fresh single-use token.

Example:
  govctl call GET /v1/governance
  govctl call POST /v1/governance/proposals/3/approve`,
		Args: cobra.ExactArgs(2),
		RunE: runCall,
	}
	keyFlag(cmd)
	tokenFlags(cmd)
	cmd.Flags().StringP("server", "s", "http://localhost:8080", "Server base URL")
	cmd.Flags().StringP("data", "d", "", "JSON request body")
	cmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	server, err := cmd.Flags().GetString("server")
	if err != nil {
		return fmt.Errorf("failed to get server flag: %w", err)
	}
	data, err := cmd.Flags().GetString("data")
	if err != nil {
		return fmt.Errorf("failed to get data flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to get timeout flag: %w", err)
	}
	if data != "" && !json.Valid([]byte(data)) {
		return fmt.Errorf("--data is not valid JSON")
	}

	tok, err := issueToken(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var body io.Reader
	if data != "" {
		body = strings.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(server, "/")+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", "govctl")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Status)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Fprintln(out, pretty.String())
	} else if len(raw) > 0 {
		fmt.Fprintln(out, string(raw))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return nil
}
