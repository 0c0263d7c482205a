package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/franz/songbook/internal/capture"
	"github.com/franz/songbook/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an audio clip from the microphone",
	Long: `Record from the default input device using ffmpeg. Recording runs
until Enter is pressed; afterwards the take can be previewed, saved
into the library (optionally attached to a song) or discarded.

Discarding before save leaves no trace: no clip row and no file in the
managed directory.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().Int64("song", 0, "attach the saved clip to this song")
	recordCmd.Flags().String("title", "", "clip title")
	recordCmd.Flags().String("input-format", "", "ffmpeg input format (default pulse on linux)")
	recordCmd.Flags().String("input-device", "default", "ffmpeg input device")

	viper.BindPFlag("record.input-format", recordCmd.Flags().Lookup("input-format"))
	viper.BindPFlag("record.input-device", recordCmd.Flags().Lookup("input-device"))
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, lib, _, cleanup, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	format := viper.GetString("record.input-format")
	if format == "" {
		format = "pulse"
	}
	device := viper.GetString("record.input-device")

	recorder := capture.NewFFmpegRecorder(format, device)
	player := capture.NewFFplayPlayer()
	session := capture.NewSession(recorder, player, capture.DesktopPermissions{}, lib)

	if err := session.StartRecording(ctx); err != nil {
		return err
	}

	fmt.Println("Recording... press Enter to stop.")
	reader := bufio.NewReader(os.Stdin)
	reader.ReadString('\n')

	if err := session.StopRecording(ctx); err != nil {
		return err
	}
	rec := session.Recording()
	util.InfoLog("Captured %ds of audio", rec.Duration)

	for {
		fmt.Print("[s]ave, [p]lay, [d]iscard? ")
		answer, err := reader.ReadString('\n')
		if err != nil {
			return session.Discard(ctx)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "p", "play":
			if err := session.Play(ctx); err != nil {
				util.WarnLog("Playback failed: %v", err)
			}

		case "s", "save":
			opts := capture.SaveOptions{}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				opts.Title = &title
			}
			opts.SongID, _ = cmd.Flags().GetInt64("song")

			clip, err := session.Save(ctx, opts)
			if err != nil {
				return err
			}
			if opts.SongID != 0 {
				util.SuccessLog("Saved clip %d, attached to song %d", clip.ID, opts.SongID)
			} else {
				util.SuccessLog("Saved clip %d (%s)", clip.ID, clip.FileName)
			}
			return nil

		case "d", "discard":
			if err := session.Discard(ctx); err != nil {
				return err
			}
			util.InfoLog("Recording discarded")
			return nil
		}
	}
}
