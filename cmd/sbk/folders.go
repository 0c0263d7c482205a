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

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage folders",
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders, newest first",
	RunE:  runFoldersList,
}

var foldersAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new folder",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFoldersAdd,
}

var foldersSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runFoldersSet,
}

var foldersRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a folder; its songs become folderless",
	Args:  cobra.ExactArgs(1),
	RunE:  runFoldersRm,
}

func init() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersListCmd, foldersAddCmd, foldersSetCmd, foldersRmCmd)

	foldersSetCmd.Flags().String("title", "", "folder title")
}

func runFoldersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// Count songs per folder from the song cache
	counts := make(map[int64]int)
	for _, song := range lib.Songs.List() {
		if song.FolderID != nil {
			counts[*song.FolderID]++
		}
	}

	folders := lib.Folders.List()
	for _, folder := range folders {
		fmt.Printf("%4d  %-30s  %3d songs  %s\n",
			folder.ID, orEmpty(folder.Title), counts[folder.ID],
			folder.DateModified.Format(time.DateTime))
	}

	util.InfoLog("%d folders", len(folders))
	return nil
}

func runFoldersAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	folder := store.Folder{}
	if len(args) > 0 {
		folder.Title = &args[0]
	}

	id, err := lib.Folders.Create(ctx, folder)
	if err != nil {
		return err
	}

	util.SuccessLog("Created folder %d", id)
	return nil
}

func runFoldersSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid folder id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	patch := library.FolderPatch{}
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		patch.Title = &title
	}

	if err := lib.Folders.Update(ctx, id, patch); err != nil {
		return err
	}

	util.SuccessLog("Updated folder %d", id)
	return nil
}

func runFoldersRm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid folder id %q", args[0])
	}

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := lib.Folders.Delete(ctx, id); err != nil {
		return err
	}

	util.SuccessLog("Deleted folder %d", id)
	return nil
}
