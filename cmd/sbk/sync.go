package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/franz/songbook/internal/syncer"
	"github.com/franz/songbook/internal/util"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the library with the remote replica",
	Long: `Push the local library to the configured replica and pull its state
back, last writer wins. By default one round trip is performed; with
--daemon the sync runs on an interval until interrupted.

Sync is best-effort: a failed round trip leaves local data untouched
and is retried on the next interval.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("daemon", false, "keep syncing on an interval")
	syncCmd.Flags().Duration("interval", 5*time.Minute, "sync interval for --daemon")
	syncCmd.Flags().String("url", "", "replica base URL")
	syncCmd.Flags().String("token", "", "replica auth token")

	viper.BindPFlag("sync.url", syncCmd.Flags().Lookup("url"))
	viper.BindPFlag("sync.token", syncCmd.Flags().Lookup("token"))
	viper.BindPFlag("sync.interval", syncCmd.Flags().Lookup("interval"))
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	daemon, _ := cmd.Flags().GetBool("daemon")

	st, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := syncer.Config{
		URL:       viper.GetString("sync.url"),
		AuthToken: viper.GetString("sync.token"),
		Interval:  viper.GetDuration("sync.interval"),
	}

	engine, err := syncer.New(cfg, st, lib)
	if err != nil {
		return err
	}

	if !daemon {
		if err := engine.Sync(ctx); err != nil {
			return err
		}
		util.SuccessLog("Sync complete")
		return nil
	}

	// One sync daemon per database
	lock := flock.New(viper.GetString("db") + ".sync.lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another sync daemon is already running")
	}
	defer lock.Unlock()

	engine.Start()
	defer engine.Stop()
	util.InfoLog("Sync daemon running every %s; Ctrl-C to stop", cfg.Interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	util.InfoLog("Stopping sync daemon")
	return nil
}
