package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
	"github.com/spf13/cobra"
)

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Manage song notes",
}

var songsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List songs, newest first",
	RunE:  runSongsList,
}

var songsAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new song",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSongsAdd,
}

var songsSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Update song fields; omitted fields are kept",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongsSet,
}

var songsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a song",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongsRm,
}

var songsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a song with its folder and attached clips",
	Args:  cobra.ExactArgs(1),
	RunE:  runSongsShow,
}

func init() {
	rootCmd.AddCommand(songsCmd)
	songsCmd.AddCommand(songsListCmd, songsAddCmd, songsSetCmd, songsRmCmd, songsShowCmd)

	songsListCmd.Flags().String("find", "", "filter by title (case- and accent-insensitive)")
	songsListCmd.Flags().Int64("folder", 0, "filter by folder id")

	songsAddCmd.Flags().Int64("folder", 0, "folder id")

	songsSetCmd.Flags().String("title", "", "song title")
	songsSetCmd.Flags().String("content", "", "song content")
	songsSetCmd.Flags().Int64("folder", 0, "folder id")
	songsSetCmd.Flags().String("key", "", "musical key (C, C#, D, ... B)")
	songsSetCmd.Flags().Int("bpm", 0, "tempo in beats per minute (0-999)")
	songsSetCmd.Flags().Bool("clear-folder", false, "remove the folder assignment")
	songsSetCmd.Flags().Bool("clear-key", false, "remove the musical key")
	songsSetCmd.Flags().Bool("clear-bpm", false, "remove the bpm")
}

func runSongsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	find, _ := cmd.Flags().GetString("find")
	folderID, _ := cmd.Flags().GetInt64("folder")

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	folders := make(map[int64]*store.Folder)
	for _, f := range lib.Folders.List() {
		folders[f.ID] = f
	}

	count := 0
	for _, song := range lib.Songs.List() {
		if !matchesTitle(song.Title, find) {
			continue
		}
		if folderID != 0 && (song.FolderID == nil || *song.FolderID != folderID) {
			continue
		}

		folder := ""
		if song.FolderID != nil {
			// A dangling folder_id reads as "no folder"
			if f, ok := folders[*song.FolderID]; ok {
				folder = orEmpty(f.Title)
			}
		}

		line := fmt.Sprintf("%4d  %-30s", song.ID, orEmpty(song.Title))
		if folder != "" {
			line += fmt.Sprintf("  [%s]", folder)
		}
		if song.Key != nil {
			line += fmt.Sprintf("  key=%s", *song.Key)
		}
		if song.Bpm != nil {
			line += fmt.Sprintf("  bpm=%d", *song.Bpm)
		}
		line += fmt.Sprintf("  %s", song.DateModified.Format(time.DateTime))
		fmt.Println(line)
		count++
	}

	util.InfoLog("%d songs", count)
	return nil
}

func runSongsAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	song := store.Song{}
	if len(args) > 0 {
		song.Title = &args[0]
	}
	if folderID, _ := cmd.Flags().GetInt64("folder"); folderID != 0 {
		song.FolderID = &folderID
	}

	id, err := lib.Songs.Create(ctx, song)
	if err != nil {
		return err
	}

	util.SuccessLog("Created song %d", id)
	return nil
}

func runSongsSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid song id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	patch := library.SongPatch{}
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		patch.Title = &title
	}
	if cmd.Flags().Changed("content") {
		content, _ := cmd.Flags().GetString("content")
		patch.Content = &content
	}
	if cmd.Flags().Changed("folder") {
		folderID, _ := cmd.Flags().GetInt64("folder")
		patch.FolderID = &folderID
	}
	if cmd.Flags().Changed("key") {
		key, _ := cmd.Flags().GetString("key")
		patch.Key = &key
	}
	if cmd.Flags().Changed("bpm") {
		bpm, _ := cmd.Flags().GetInt("bpm")
		patch.Bpm = &bpm
	}
	patch.ClearFolder, _ = cmd.Flags().GetBool("clear-folder")
	patch.ClearKey, _ = cmd.Flags().GetBool("clear-key")
	patch.ClearBpm, _ = cmd.Flags().GetBool("clear-bpm")

	if err := lib.Songs.Update(ctx, id, patch); err != nil {
		return err
	}

	util.SuccessLog("Updated song %d", id)
	return nil
}

func runSongsRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid song id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := lib.Songs.Delete(ctx, id); err != nil {
		return err
	}

	util.SuccessLog("Deleted song %d", id)
	return nil
}

func runSongsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid song id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	song, err := lib.Songs.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Song %d\n", song.ID)
	fmt.Printf("  Title:    %s\n", orEmpty(song.Title))
	if song.FolderID != nil {
		folder, err := lib.Folders.Get(ctx, *song.FolderID)
		if err != nil {
			fmt.Printf("  Folder:   (none)\n")
		} else {
			fmt.Printf("  Folder:   %s (%d)\n", orEmpty(folder.Title), folder.ID)
		}
	}
	if song.Key != nil {
		fmt.Printf("  Key:      %s\n", *song.Key)
	}
	if song.Bpm != nil {
		fmt.Printf("  Bpm:      %d\n", *song.Bpm)
	}
	fmt.Printf("  Modified: %s\n", song.DateModified.Format(time.DateTime))
	if song.Content != nil {
		fmt.Printf("\n%s\n", *song.Content)
	}

	clips, err := lib.Relations.ClipsFor(ctx, song.ID)
	if err != nil {
		return err
	}
	if len(clips) > 0 {
		fmt.Printf("\nClips:\n")
		for _, clip := range clips {
			fmt.Printf("  %4d  %-24s  %3ds  %s\n", clip.ID, orEmpty(clip.Title), clip.Duration, clip.FileName)
		}
	}

	return nil
}
