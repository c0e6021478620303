// hostmasterctl is the admin console for a HostMaster server. It keeps
// a local session and snapshot cache under --data-dir and talks to the
// server's REST API.
package main

import (
	"context"
	"fmt"
	"hostmaster/internal/auth"
	"hostmaster/internal/localstore"
	"hostmaster/internal/models"
	"hostmaster/internal/services"
	"hostmaster/internal/state"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	dataDir   string
)

// env bundles everything a command needs.
type env struct {
	state   *state.State
	auth    *auth.Manager
	records []models.HostingRecord
}

func openEnv(ctx context.Context) (*env, error) {
	store, err := localstore.New(dataDir)
	if err != nil {
		return nil, err
	}

	manager, err := auth.NewManager(store)
	if err != nil {
		return nil, err
	}

	assistant := services.NewAssistantService(
		envOr("HOSTMASTER_AI_URL", "https://generativelanguage.googleapis.com/v1beta"),
		os.Getenv("HOSTMASTER_AI_KEY"),
		envOr("HOSTMASTER_AI_MODEL", "gemini-3-flash-preview"),
		30*time.Second,
	)

	client := state.NewAPIClient(serverURL, 15*time.Second)
	st := state.New(client, store, assistant, services.DueSoonPolicy{WindowDays: 30})
	st.Load(ctx)

	return &env{state: st, auth: manager, records: st.Records()}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireLogin fails the command when no valid session exists.
func requireLogin(e *env) (*models.User, error) {
	user, err := e.auth.CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("not logged in, run: hostmasterctl login")
	}
	return user, nil
}

func main() {
	root := &cobra.Command{
		Use:           "hostmasterctl",
		Short:         "Admin console for the HostMaster hosting panel",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultDataDir := ".hostmaster"
	if home, err := os.UserHomeDir(); err == nil {
		defaultDataDir = filepath.Join(home, ".hostmaster")
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the HostMaster server")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "directory for session and offline cache")

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		listCmd(),
		addCmd(),
		updateCmd(),
		deleteCmd(),
		generateInvoicesCmd(),
		exportCmd(),
		sendCmd(),
		askCmd(),
		notificationsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate as the Super Admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localstore.New(dataDir)
			if err != nil {
				return err
			}
			manager, err := auth.NewManager(store)
			if err != nil {
				return err
			}
			user, err := manager.Login(email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localstore.New(dataDir)
			if err != nil {
				return err
			}
			manager, err := auth.NewManager(store)
			if err != nil {
				return err
			}
			if err := manager.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localstore.New(dataDir)
			if err != nil {
				return err
			}
			manager, err := auth.NewManager(store)
			if err != nil {
				return err
			}
			user, err := manager.CurrentUser()
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hosting records",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			settings := e.state.Settings()
			fmt.Printf("%-15s %-4s %-22s %-24s %-12s %-10s %-9s %s\n",
				"ID", "SN", "CLIENT", "WEBSITE", "RENEWAL", "AMOUNT", "PAYMENT", "INVOICE")
			for _, r := range e.state.Records() {
				invoice := r.InvoiceNumber
				if invoice == "" {
					invoice = "(draft)"
				}
				fmt.Printf("%-15s %-4d %-22s %-24s %-12s %-10s %-9s %s\n",
					r.ID, r.SerialNumber, r.ClientName, r.Website, r.ValidationDate,
					services.FormatAmount(settings.Currency, r.Amount), r.PaymentStatus, invoice)
			}
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var record models.HostingRecord
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a hosting record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if record.ClientName == "" || record.Website == "" {
				return fmt.Errorf("client and website are required")
			}
			if record.Amount < 0 {
				return fmt.Errorf("amount must not be negative")
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			if record.SerialNumber == 0 {
				record.SerialNumber = nextSerial(e.records)
			}
			if record.Status == "" {
				record.Status = "Active"
			}
			if record.PaymentStatus == "" {
				record.PaymentStatus = models.PaymentUnpaid
			}
			if record.InvoiceStatus == "" {
				record.InvoiceStatus = "Draft"
			}

			created := e.state.AddRecord(record)
			e.state.Flush()
			fmt.Printf("Added record %s (#%d)\n", created.ID, created.SerialNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&record.ClientName, "client", "", "client name")
	cmd.Flags().StringVar(&record.Website, "website", "", "hosted website")
	cmd.Flags().StringVar(&record.Email, "email", "", "client email")
	cmd.Flags().StringVar(&record.Phone, "phone", "", "client phone")
	cmd.Flags().IntVar(&record.StorageGB, "storage", 0, "storage in GB")
	cmd.Flags().StringVar(&record.SetupDate, "setup", "", "setup date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&record.ValidationDate, "renewal", "", "renewal date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&record.Amount, "amount", 0, "pre-tax service fee")
	cmd.Flags().StringVar(&record.PaymentMethod, "payment-method", "", "payment method")
	cmd.Flags().StringVar(&record.Notes, "notes", "", "free-form notes")
	return cmd
}

func updateCmd() *cobra.Command {
	var (
		paymentStatus, invoiceStatus, status string
		paidDate, renewal                    string
		amount                               float64
	)
	cmd := &cobra.Command{
		Use:   "update <record-id>",
		Short: "Update fields on a hosting record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("amount") && amount < 0 {
				return fmt.Errorf("amount must not be negative")
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			id := args[0]
			if e.state.Record(id) == nil {
				return fmt.Errorf("record %s not found", id)
			}

			var patch state.RecordPatch
			if cmd.Flags().Changed("payment-status") {
				patch.PaymentStatus = &paymentStatus
			}
			if cmd.Flags().Changed("invoice-status") {
				patch.InvoiceStatus = &invoiceStatus
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}
			if cmd.Flags().Changed("paid-date") {
				patch.PaidDate = &paidDate
			}
			if cmd.Flags().Changed("renewal") {
				patch.ValidationDate = &renewal
			}
			if cmd.Flags().Changed("amount") {
				patch.Amount = &amount
			}

			e.state.UpdateRecord(id, patch)
			e.state.Flush()
			fmt.Printf("Updated record %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&paymentStatus, "payment-status", "", "Paid, Unpaid or Overdue")
	cmd.Flags().StringVar(&invoiceStatus, "invoice-status", "", "invoice status")
	cmd.Flags().StringVar(&status, "status", "", "hosting status")
	cmd.Flags().StringVar(&paidDate, "paid-date", "", "payment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&renewal, "renewal", "", "renewal date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "pre-tax service fee")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a hosting record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			e.state.DeleteRecord(args[0])
			e.state.Flush()
			fmt.Printf("Deleted record %s\n", args[0])
			return nil
		},
	}
}

func generateInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-invoices",
		Short: "Assign invoice numbers to records due for renewal",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			n := e.state.GenerateAutoInvoices()
			e.state.Flush()
			fmt.Printf("Generated %d invoice(s)\n", n)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export <record-id>",
		Short: "Export a plain-text invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			record := e.state.Record(args[0])
			if record == nil {
				return fmt.Errorf("record %s not found", args[0])
			}
			settings := e.state.Settings()
			text := services.RenderInvoiceText(record, &settings)

			if outFile == "" {
				fmt.Println(text)
				return nil
			}
			if err := os.WriteFile(outFile, []byte(text), 0o644); err != nil {
				return err
			}
			fmt.Printf("Invoice written to %s\n", outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the invoice to a file")
	return cmd
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <record-id>",
		Short: "Draft and send the invoice email for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			if err := e.state.SendInvoice(cmd.Context(), args[0]); err != nil {
				return err
			}
			e.state.Flush()
			fmt.Println("Invoice sent")
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant about the hosting data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireLogin(e); err != nil {
				return err
			}

			fmt.Println(e.state.AnalyzeData(strings.Join(args, " ")))
			return nil
		},
	}
}

func notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show notifications raised during this invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range e.state.Notifications() {
				fmt.Printf("[%s] %s: %s\n", n.Type, n.Title, n.Message)
			}
			return nil
		},
	}
}

// nextSerial continues the display ordinal from the highest one seen.
func nextSerial(records []models.HostingRecord) int {
	max := 0
	for _, r := range records {
		if r.SerialNumber > max {
			max = r.SerialNumber
		}
	}
	return max + 1
}
