package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	configFile  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "dupe-guard",
		Short: "dupe-guard CLI - duplicate message remover for chat groups",
		Long:  `A command-line interface for inspecting and maintaining the dupe-guard duplicate cache.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// callAPI performs a request against the server and decodes a JSON response.
// Non-2xx responses exit the CLI.
func callAPI(method, path string, out interface{}) {
	req, err := http.NewRequest(method, serverURL+path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid response: %v\n", err)
			os.Exit(1)
		}
	}
}

type statsResponse struct {
	Groups             int   `json:"groups"`
	UniqueFingerprints int   `json:"unique_fingerprints"`
	DuplicatesRemoved  int64 `json:"duplicates_removed"`
	PerGroup           []struct {
		GroupID            string `json:"group_id"`
		UniqueFingerprints int    `json:"unique_fingerprints"`
		DuplicatesRemoved  int64  `json:"duplicates_removed"`
	} `json:"per_group"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show duplicate cache statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var stats statsResponse
		callAPI(http.MethodGet, "/api/v1/stats", &stats)

		fmt.Println("Duplicate Cache Statistics:")
		fmt.Printf("  Groups:             %d\n", stats.Groups)
		fmt.Printf("  Unique fingerprints: %d\n", stats.UniqueFingerprints)
		fmt.Printf("  Duplicates removed: %d\n", stats.DuplicatesRemoved)

		if len(stats.PerGroup) == 0 {
			return
		}
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "GROUP\tFINGERPRINTS\tREMOVED")
		for _, g := range stats.PerGroup {
			fmt.Fprintf(w, "%s\t%d\t%d\n", g.GroupID, g.UniqueFingerprints, g.DuplicatesRemoved)
		}
		w.Flush()
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List monitored groups",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			MonitorAll bool     `json:"monitor_all"`
			Groups     []string `json:"groups"`
		}
		callAPI(http.MethodGet, "/api/v1/groups", &result)

		if result.MonitorAll {
			fmt.Println("All groups are monitored")
			return
		}
		if len(result.Groups) == 0 {
			fmt.Println("No monitored groups configured")
			return
		}
		for _, g := range result.Groups {
			fmt.Println(g)
		}
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached fingerprint",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Removed int `json:"removed"`
		}
		callAPI(http.MethodPost, "/api/v1/cache/clear", &result)
		fmt.Printf("Cache cleared, %d fingerprints removed\n", result.Removed)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove fingerprints older than the retention window now",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		var result struct {
			Removed int `json:"removed"`
		}
		callAPI(http.MethodPost, "/api/v1/cache/cleanup", &result)
		fmt.Printf("Cleanup finished, %d expired fingerprints removed\n", result.Removed)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Run: func(cmd *cobra.Command, args []string) {
		if !isServerRunning() {
			fmt.Println("Server is not running")
			os.Exit(1)
		}

		var health struct {
			Status    string `json:"status"`
			Version   string `json:"version"`
			Scheduler struct {
				Running   bool   `json:"running"`
				LastSweep string `json:"last_sweep"`
			} `json:"scheduler"`
			Dispatcher struct {
				ActiveGroups int   `json:"active_groups"`
				Dropped      int64 `json:"dropped"`
			} `json:"dispatcher"`
		}
		callAPI(http.MethodGet, "/health", &health)

		fmt.Printf("Status:    %s\n", health.Status)
		fmt.Printf("Version:   %s\n", health.Version)
		fmt.Printf("Scheduler: running=%v\n", health.Scheduler.Running)
		if health.Scheduler.LastSweep != "" {
			fmt.Printf("Last sweep: %s\n", health.Scheduler.LastSweep)
		}
		fmt.Printf("Workers:   %d active, %d chats ignored\n", health.Dispatcher.ActiveGroups, health.Dispatcher.Dropped)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [category]",
	Short: "Show dedup or error events (category: dedup, error)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		category := "dedup"
		if len(args) == 1 {
			category = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		date, _ := cmd.Flags().GetString("date")

		path := "/api/v1/events/" + url.PathEscape(category)
		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if date != "" {
			query.Set("date", date)
		}
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []struct {
				Timestamp string                 `json:"ts"`
				Level     string                 `json:"level"`
				Message   string                 `json:"msg"`
				Fields    map[string]interface{} `json:"fields"`
			} `json:"entries"`
		}
		callAPI(http.MethodGet, path+"?"+query.Encode(), &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLEVEL\tEVENT\tGROUP")
		for _, e := range result.Entries {
			group, _ := e.Fields["group_id"].(string)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Level, truncate(e.Message, 40), group)
		}
		w.Flush()
	},
}

func init() {
	eventsCmd.Flags().IntP("limit", "n", 50, "Maximum number of events")
	eventsCmd.Flags().StringP("search", "s", "", "Only show events containing this text")
	eventsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD), default today")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
