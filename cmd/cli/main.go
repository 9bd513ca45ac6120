package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bankcore-cli",
		Short: "BankCore CLI tool",
		Long:  `A command line interface for interacting with the BankCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the BankCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	registerCmd := &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Register a user and open their account",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/register", map[string]string{
				"username": args[0],
				"password": args[1],
			})
		},
	}
	rootCmd.AddCommand(registerCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/balance/" + args[0])
		},
	}
	rootCmd.AddCommand(balanceCmd)

	transferCmd := &cobra.Command{
		Use:   "transfer <sender> <receiver> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/transfers", map[string]string{
				"sender_id":   args[0],
				"receiver_id": args[1],
				"amount":      args[2],
			})
		},
	}
	rootCmd.AddCommand(transferCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Credit an account from outside the ledger",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts/"+args[0]+"/deposit", map[string]string{
				"amount": args[1],
			})
		},
	}
	rootCmd.AddCommand(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw <account> <amount>",
		Short: "Debit an account to outside the ledger",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts/"+args[0]+"/withdraw", map[string]string{
				"amount": args[1],
			})
		},
	}
	rootCmd.AddCommand(withdrawCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	conservationCmd := &cobra.Command{
		Use:   "conservation",
		Short: "Check ledger conservation",
		Run: func(cmd *cobra.Command, args []string) {
			checkConservation()
		},
	}

	ledgerCmd.AddCommand(conservationCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func postJSON(path string, payload map[string]string) {
	body, _ := json.Marshal(payload)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}

	fmt.Println(pretty.String())
}

func checkConservation() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/ledger/conservation")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Conservation check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Conservation check PASSED\n")
	fmt.Printf("Total balance: %v\n", result["total_balance"])
	fmt.Printf("Expected balance: %v\n", result["expected_balance"])
}
