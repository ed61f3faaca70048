package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wlpick/wlpick/internal/config"
	"github.com/wlpick/wlpick/internal/icons"
	"github.com/wlpick/wlpick/internal/logger"
	"github.com/wlpick/wlpick/internal/mode"
	"github.com/wlpick/wlpick/internal/wayland"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List open windows",
	Long: `List all windows currently open on the Wayland compositor.

This command binds the wlr-foreign-toplevel-management protocol, fetches
the current window set and prints one formatted entry per window.`,
	Example: `  # List windows in table format (default)
  wlpick list

  # List windows in JSON format
  wlpick list --format json

  # List only windows matching a query
  wlpick list --match firefox`,
	RunE: runList,
}

var (
	listFormat string
	listMatch  string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().StringVarP(&listMatch, "match", "m", "", "show only entries matching the query tokens")
}

// windowEntry is the JSON projection of one list entry.
type windowEntry struct {
	Title  string `json:"title"`
	AppID  string `json:"app_id"`
	Active bool   `json:"active"`
	Label  string `json:"label"`
}

func runList(cmd *cobra.Command, args []string) error {
	win, conn, err := setupWindowMode(nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer win.Destroy()

	if msg := win.Message(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	entries := collectEntries(win)

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		return printEntryTable(entries)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func collectEntries(win *mode.Window) []windowEntry {
	entries := make([]windowEntry, 0, win.NumEntries())
	for i := 0; i < win.NumEntries(); i++ {
		if listMatch != "" && !win.TokenMatch(i, listMatch) {
			continue
		}
		var flags mode.EntryStateFlags
		label := win.DisplayValue(i, &flags, true)
		h := win.Handle(i)
		entry := windowEntry{
			Label:  label,
			Active: flags&mode.EntryActive != 0,
		}
		if h != nil {
			entry.Title = h.Title
			entry.AppID = h.AppID
		}
		entries = append(entries, entry)
	}
	return entries
}

func printEntryTable(entries []windowEntry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "APP ID\tTITLE\tACTIVE")
	fmt.Fprintln(w, "------\t-----\t------")

	for _, e := range entries {
		active := ""
		if e.Active {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.AppID, e.Title, active)
	}

	return nil
}

// setupWindowMode wires config, logging, the Wayland connection and the
// window mode. reload may be nil for one-shot commands.
func setupWindowMode(reload func()) (*mode.Window, *wayland.TurboConn, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()

	// Flags override the config file.
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if tpl := viper.GetString("window-format"); tpl != "" {
		cfg.WindowFormat = tpl
	}
	logger.Init(cfg.LogLevel, true)

	conn, err := wayland.Connect("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	win := mode.New(conn, icons.NewThemeFetcher(cfg.IconDirs...), cfg.WindowFormat, reload)
	if err := win.Init(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to initialize window mode: %w", err)
	}
	return win, conn, nil
}
