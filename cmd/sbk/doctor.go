package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/songbook/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check library invariants and clean up leftovers",
	Long: `Verify the library's consistency:

- Database integrity (PRAGMA integrity_check)
- Every clip row references an existing file of the recorded size
- Managed files not referenced by any clip row (safe leftovers)
- Clips with no song relation older than a threshold (likely remnants
  of an interrupted edit session)

With --fix, unreferenced files are deleted. With --prune-orphans, old
relation-less clips are deleted as well (row, then file).`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().Bool("fix", false, "delete unreferenced files in the managed directory")
	doctorCmd.Flags().Duration("prune-orphans", 0, "delete relation-less clips older than this (0 = report only)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	fix, _ := cmd.Flags().GetBool("fix")
	pruneAge, _ := cmd.Flags().GetDuration("prune-orphans")

	st, lib, blobs, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	util.InfoLog("=== Songbook Doctor ===")
	util.InfoLog("Database: %s", viper.GetString("db"))
	util.InfoLog("Clips:    %s", blobs.Dir())
	util.InfoLog("")

	problems := 0

	// 1. Database integrity
	if err := st.CheckIntegrity(); err != nil {
		util.ErrorLog("Database integrity: %v", err)
		problems++
	} else {
		util.SuccessLog("Database integrity ok")
	}

	// 2. Row/file joint ownership: every clip row must reference a
	// readable file of the same size
	clips := lib.Clips.List()
	known := make(map[string]bool, len(clips))

	bar := progressbar.NewOptions(len(clips),
		progressbar.OptionSetDescription("checking clips"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	for _, clip := range clips {
		known[clip.FilePath] = true

		size, err := util.FileSize(clip.FilePath)
		if err != nil {
			util.ErrorLog("Clip %d: file missing: %s", clip.ID, clip.FilePath)
			problems++
		} else if size != clip.Size {
			util.ErrorLog("Clip %d: size mismatch: row says %d, file is %d", clip.ID, clip.Size, size)
			problems++
		}
		bar.Add(1)
	}
	if problems == 0 {
		util.SuccessLog("%d clip files verified", len(clips))
	}

	// 3. Unreferenced files in the managed directory
	orphanFiles, err := blobs.Orphans(ctx, known)
	if err != nil {
		return err
	}
	var orphanBytes int64
	for _, path := range orphanFiles {
		if size, err := util.FileSize(path); err == nil {
			orphanBytes += size
		}
	}
	if len(orphanFiles) > 0 {
		util.WarnLog("%d unreferenced files (%s) in %s",
			len(orphanFiles), humanize.Bytes(uint64(orphanBytes)), blobs.Dir())
		if fix {
			for _, path := range orphanFiles {
				if err := blobs.Remove(ctx, path); err != nil {
					util.ErrorLog("Failed to remove %s: %v", path, err)
					problems++
				}
			}
			util.SuccessLog("Removed %d unreferenced files", len(orphanFiles))
		}
	} else {
		util.SuccessLog("No unreferenced files")
	}

	// 4. Relation-less clips older than the threshold. A fresh one may
	// be a capture whose edit session has not saved yet, so only aged
	// clips are reported.
	cutoff := time.Now().Add(-time.Hour)
	if pruneAge > 0 {
		cutoff = time.Now().Add(-pruneAge)
	}
	orphanClips, err := st.OrphanClips(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(orphanClips) > 0 {
		util.WarnLog("%d clips without song relation older than %s", len(orphanClips), time.Since(cutoff).Round(time.Minute))
		for _, clip := range orphanClips {
			util.WarnLog("  clip %d  %s  %s", clip.ID, orEmpty(clip.Title), clip.DateCreated.Format(time.DateTime))
		}
		if pruneAge > 0 {
			for _, clip := range orphanClips {
				if err := lib.Clips.Delete(ctx, clip.ID); err != nil {
					util.ErrorLog("Failed to delete clip %d: %v", clip.ID, err)
					problems++
				}
			}
			util.SuccessLog("Pruned %d orphaned clips", len(orphanClips))
		}
	} else {
		util.SuccessLog("No orphaned clips")
	}

	util.InfoLog("")
	if problems > 0 {
		return fmt.Errorf("doctor found %d problems", problems)
	}
	util.SuccessLog("Library is healthy")
	return nil
}
