package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/util"
	"github.com/spf13/cobra"
)

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "Manage recorded audio clips",
}

var clipsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clips, newest first",
	RunE:  runClipsList,
}

var clipsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy an audio file into managed storage and register it",
	Args:  cobra.ExactArgs(1),
	RunE:  runClipsImport,
}

var clipsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a clip, its relations and its audio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClipsRm,
}

var clipsAttachCmd = &cobra.Command{
	Use:   "attach <clip-id> <song-id>",
	Short: "Attach a clip to a song",
	Args:  cobra.ExactArgs(2),
	RunE:  runClipsAttach,
}

var clipsDetachCmd = &cobra.Command{
	Use:   "detach <clip-id> <song-id>",
	Short: "Detach a clip from a song",
	Args:  cobra.ExactArgs(2),
	RunE:  runClipsDetach,
}

func init() {
	rootCmd.AddCommand(clipsCmd)
	clipsCmd.AddCommand(clipsListCmd, clipsImportCmd, clipsRmCmd, clipsAttachCmd, clipsDetachCmd)

	clipsImportCmd.Flags().String("title", "", "clip title")
	clipsImportCmd.Flags().Int64("song", 0, "attach to song id after import")
	clipsImportCmd.Flags().Int("duration", 0, "duration in seconds, if known")
}

func runClipsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	clips := lib.Clips.List()
	for _, clip := range clips {
		fmt.Printf("%4d  %-24s  %3ds  %-10s  %9s  %s\n",
			clip.ID, orEmpty(clip.Title), clip.Duration, clip.MimeType,
			humanize.Bytes(uint64(clip.Size)), clip.DateCreated.Format(time.DateTime))
	}

	util.InfoLog("%d clips", len(clips))
	return nil
}

func runClipsImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tags := blob.ReadTags(args[0])

	var title *string
	if cmd.Flags().Changed("title") {
		t, _ := cmd.Flags().GetString("title")
		title = &t
	} else if tags.Title != "" {
		title = &tags.Title
	}

	var metadata *string
	if payload := tags.JSON(); payload != "" {
		metadata = &payload
	}

	duration, _ := cmd.Flags().GetInt("duration")

	clip, err := lib.Clips.CreateFromFile(ctx, args[0], title, duration, metadata)
	if err != nil {
		return err
	}

	if songID, _ := cmd.Flags().GetInt64("song"); songID != 0 {
		if err := lib.Relations.Attach(ctx, songID, clip.ID); err != nil {
			return err
		}
		util.SuccessLog("Imported clip %d and attached to song %d", clip.ID, songID)
		return nil
	}

	util.SuccessLog("Imported clip %d (%s)", clip.ID, clip.FileName)
	return nil
}

func runClipsRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid clip id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := lib.Clips.Delete(ctx, id); err != nil {
		return err
	}

	util.SuccessLog("Deleted clip %d", id)
	return nil
}

func runClipsAttach(cmd *cobra.Command, args []string) error {
	return runRelationChange(args, true)
}

func runClipsDetach(cmd *cobra.Command, args []string) error {
	return runRelationChange(args, false)
}

func runRelationChange(args []string, attach bool) error {
	ctx := context.Background()

	clipID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid clip id %q", args[0])
	}
	songID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid song id %q", args[1])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if attach {
		if err := lib.Relations.Attach(ctx, songID, clipID); err != nil {
			return err
		}
		util.SuccessLog("Attached clip %d to song %d", clipID, songID)
		return nil
	}

	if err := lib.Relations.Detach(ctx, songID, clipID); err != nil {
		return err
	}
	util.SuccessLog("Detached clip %d from song %d", clipID, songID)
	return nil
}
