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

	"github.com/iho/savingsledger/internal/infrastructure/config"
	"github.com/iho/savingsledger/internal/infrastructure/logger"
	"github.com/iho/savingsledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "savingsledger-cli",
		Short: "Savings ledger CLI tool",
		Long:  `A command line interface for interacting with the savings ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the savings ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(schedulerCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var (
		clientName string
		currency   string
	)
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a savings account",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts/", map[string]any{
				"client_name": clientName,
				"currency":    currency,
			}, http.StatusCreated)
		},
	}
	openCmd.Flags().StringVar(&clientName, "client", "", "Client name")
	openCmd.Flags().StringVar(&currency, "currency", "USD", "Account currency")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get an account by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0])
		},
	}

	var amount string
	depositCmd := &cobra.Command{
		Use:   "deposit [account-id]",
		Short: "Post a deposit",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts/"+args[0]+"/deposits", map[string]any{
				"amount": amount,
			}, http.StatusCreated)
		},
	}
	depositCmd.Flags().StringVar(&amount, "amount", "0", "Amount to deposit")

	var withdrawAmount string
	withdrawCmd := &cobra.Command{
		Use:   "withdraw [account-id]",
		Short: "Post a withdrawal",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts/"+args[0]+"/withdrawals", map[string]any{
				"amount": withdrawAmount,
			}, http.StatusCreated)
		},
	}
	withdrawCmd.Flags().StringVar(&withdrawAmount, "amount", "0", "Amount to withdraw")

	cmd.AddCommand(openCmd, getCmd, depositCmd, withdrawCmd)

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger reporting",
	}

	balanceCmd := &cobra.Command{
		Use:   "balance [account-id]",
		Short: "Show an account's balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/balance")
		},
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency [account-id]",
		Short: "Check ledger consistency for an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			checkConsistency(args[0])
		},
	}

	cmd.AddCommand(balanceCmd, consistencyCmd)

	return cmd
}

func schedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Recurring-charge scheduler operations",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger one collection pass",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/scheduler/run", map[string]any{}, http.StatusOK)
		},
	}

	cmd.AddCommand(runCmd)

	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(false)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			runMigrations(true)
		},
	}

	cmd.AddCommand(upCmd, downCmd)

	return cmd
}

func runMigrations(down bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})

	if down {
		err = postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
	} else {
		err = postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log)
	}
	if err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func checkConsistency(accountID string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/accounts/" + accountID + "/consistency")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	if consistent, ok := result["consistent"].(bool); ok {
		fmt.Printf("Consistent: %v\n", consistent)
	}
	fmt.Printf("Transactions: %v\n", result["transaction_count"])
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp, http.StatusOK)
}

func postJSON(path string, payload map[string]any, wantStatus int) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp, wantStatus)
}

func printResponse(resp *http.Response, wantStatus int) {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != wantStatus {
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
