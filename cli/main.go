package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL     string
	operatorToken string
	Version       = "dev"
)

type device struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DeviceType string    `json:"device_type"`
	Status     string    `json:"status"`
	LastSeen   time.Time `json:"last_seen"`
}

type event struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	EventType  string    `json:"event_type"`
	Severity   string    `json:"severity"`
	DetectedAt time.Time `json:"detected_at"`
	Resolved   bool      `json:"resolved"`
}

type pattern struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Active   bool   `json:"active"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "netsentry",
		Short: "netsentry - IoT security monitoring",
		Long:  "Inspect devices, security events, and detection rules on a netsentry server",
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "netsentry server URL")
	rootCmd.PersistentFlags().StringVar(&operatorToken, "token", os.Getenv("NETSENTRY_OPERATOR_TOKEN"), "Operator token for privileged commands")

	rootCmd.AddCommand(
		statusCmd(),
		devicesCmd(),
		eventsCmd(),
		resolveCmd(),
		patternsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show fleet security status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats struct {
				TotalDevices       int64 `json:"total_devices"`
				OnlineDevices      int64 `json:"online_devices"`
				CompromisedDevices int64 `json:"compromised_devices"`
				ActiveAlerts       int64 `json:"active_alerts"`
				CriticalAlerts     int64 `json:"critical_alerts"`
			}
			if err := fetchJSON("/stats", &stats); err != nil {
				return err
			}

			fmt.Printf("netsentry Status\n")
			fmt.Printf("================\n\n")
			fmt.Printf("Total Devices:   %d\n", stats.TotalDevices)
			fmt.Printf("Online:          %d\n", stats.OnlineDevices)
			fmt.Printf("Compromised:     %d\n", stats.CompromisedDevices)
			fmt.Printf("Active Alerts:   %d\n", stats.ActiveAlerts)
			fmt.Printf("Critical Alerts: %d\n", stats.CriticalAlerts)
			return nil
		},
	}
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"ls", "list"},
		Short:   "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []device
			if err := fetchJSON("/devices", &devices); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tLAST SEEN")
			fmt.Fprintln(w, "--\t----\t----\t------\t---------")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s ago\n",
					d.ID, d.Name, d.DeviceType, d.Status, time.Since(d.LastSeen).Round(time.Second))
			}
			w.Flush()
			return nil
		},
	}
}

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List recent security events",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Events []event `json:"events"`
			}
			if err := fetchJSON("/detect", &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tDEVICE\tTYPE\tSEVERITY\tDETECTED\tRESOLVED")
			fmt.Fprintln(w, "-----\t------\t----\t--------\t--------\t--------")
			for _, e := range resp.Events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
					e.ID, e.DeviceName, e.EventType, e.Severity,
					e.DetectedAt.Format(time.RFC3339), e.Resolved)
			}
			w.Flush()
			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <device-id> [event-id]",
		Short: "Acknowledge an incident and reset the device status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"device_id": args[0]}
			if len(args) == 2 {
				payload["event_id"] = args[1]
			}
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			req, err := http.NewRequest(http.MethodPost, serverURL+"/resolve", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+operatorToken)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, raw)
			}

			var result struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(raw, &result); err != nil {
				return err
			}
			fmt.Println(result.Message)
			return nil
		},
	}
}

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List detection rules, most severe first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Patterns []pattern `json:"patterns"`
			}
			if err := fetchJSON("/patterns", &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSEVERITY\tACTIVE")
			fmt.Fprintln(w, "--\t----\t--------\t------")
			for _, p := range resp.Patterns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", p.ID, p.Name, p.Severity, p.Active)
			}
			w.Flush()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <pattern-id> <on|off>",
		Short: "Enable or disable one detection rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			active := args[1] == "on"
			body, err := json.Marshal(map[string]bool{"active": active})
			if err != nil {
				return err
			}

			resp, err := http.Post(serverURL+"/patterns/"+args[0]+"/toggle", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				raw, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, raw)
			}
			fmt.Printf("pattern %s set active=%v\n", args[0], active)
			return nil
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netsentry version %s\n", Version)
		},
	}
}

func fetchJSON(path string, out any) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
