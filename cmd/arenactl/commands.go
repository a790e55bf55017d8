package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(tournamentsCmd)
	rootCmd.AddCommand(refreshStatusesCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(metricsCmd)

	loginCmd.Flags().String("email", "", "Admin email")
	loginCmd.Flags().String("password", "", "Admin password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	tournamentsCmd.Flags().String("status", "", "Comma separated statuses, e.g. Upcoming,Live")

	pendingCmd.Flags().String("status", "pending", "Status to list; empty for all")

	decideCmd.Flags().String("note", "", "Admin note stored with the decision")
}

var client = &http.Client{Timeout: 15 * time.Second}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as admin and print the bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		return performRequest(http.MethodPost, "/admin/login", map[string]string{
			"email":    email,
			"password": password,
		})
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Println(string(hash))
		return nil
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet <contestant-id>",
	Short: "Show a contestant's wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/contestants/wallet/"+url.PathEscape(args[0]), nil)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <contestant-id>",
	Short: "Compare a stored wallet against its transaction log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/admin/contestants/"+url.PathEscape(args[0])+"/reconcile", nil)
	},
}

var tournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "List tournaments",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		endpoint := "/tournaments"
		if status != "" {
			endpoint += "?status=" + url.QueryEscape(status)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var refreshStatusesCmd = &cobra.Command{
	Use:   "refresh-statuses",
	Short: "Recompute tournament statuses now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/tournaments/update-statuses", nil)
	},
}

// queues maps the CLI's record kinds to their admin list and decision routes.
var queues = map[string]struct{ list, decide string }{
	"deposit":      {list: "/admin/deposits", decide: "/deposits/"},
	"withdrawal":   {list: "/admin/withdrawals", decide: "/withdrawals/"},
	"join-request": {list: "/admin/join-requests", decide: "/join-requests/"},
}

func queueFor(kind string) (struct{ list, decide string }, error) {
	q, ok := queues[kind]
	if !ok {
		return q, fmt.Errorf("unknown kind %q (want deposit, withdrawal or join-request)", kind)
	}
	return q, nil
}

var pendingCmd = &cobra.Command{
	Use:   "pending <deposit|withdrawal|join-request>",
	Short: "List records waiting for an admin decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queueFor(args[0])
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		endpoint := q.list
		if status != "" {
			endpoint += "?status=" + url.QueryEscape(status)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

var decideCmd = &cobra.Command{
	Use:   "decide <deposit|withdrawal|join-request> <id> <approved|rejected>",
	Short: "Approve or reject a pending record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queueFor(args[0])
		if err != nil {
			return err
		}
		note, _ := cmd.Flags().GetString("note")
		return performRequest(http.MethodPut, q.decide+url.PathEscape(args[1]), map[string]string{
			"status":    args[2],
			"adminNote": note,
		})
	},
}

var refundCmd = &cobra.Command{
	Use:   "refund <join-request-id>",
	Short: "Refund the wallet entry fee of a rejected join request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/join-requests/"+url.PathEscape(args[0])+"/refund", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

func performRequest(method, endpoint string, body any) error {
	target := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, target)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
