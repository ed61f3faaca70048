package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wlpick/wlpick/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the window set for changes",
	Long: `Watch the compositor's window set and print the entry list every time
a window is opened, closed or updated. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	changed := make(chan struct{}, 1)
	reload := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	win, conn, err := setupWindowMode(reload)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer win.Destroy()

	if msg := win.Message(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithComponent("watch")
	printEntryTable(collectEntries(win))

	// Unblock the dispatch loop on Ctrl-C by closing the connection.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	// Pump events on this thread; entries are only observed between
	// dispatch steps, never concurrently with one.
	for {
		if err := conn.Dispatch(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event dispatch failed: %w", err)
		}
		select {
		case <-changed:
			log.Debug().Int("windows", win.NumEntries()).Msg("window set changed")
			fmt.Println()
			printEntryTable(collectEntries(win))
		default:
		}
	}
}
