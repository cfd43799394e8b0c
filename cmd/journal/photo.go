package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// photo command
var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage photos attached to entries",
}

var photoAddCmd = &cobra.Command{
	Use:   "add ENTRY_ID FILE",
	Short: "Attach an image file to an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		caption, _ := cmd.Flags().GetString("caption")

		a, err := newUnlockedApp(cmd, "AddPhoto")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.AddPhoto(cmd.Context(), args[0], args[1], caption)
		if err != nil {
			return fmt.Errorf("adding photo: %w", err)
		}
		fmt.Printf("Added photo %s\n", id)
		return nil
	},
}

var photoListCmd = &cobra.Command{
	Use:   "list [ENTRY_ID]",
	Short: "List photos of an entry, or all photos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "ListPhotos")
		if err != nil {
			return err
		}
		defer a.Close()

		entryID := ""
		if len(args) > 0 {
			entryID = args[0]
		}
		photos, err := a.ListPhotos(cmd.Context(), entryID)
		if err != nil {
			return err
		}

		if len(photos) == 0 {
			fmt.Println("No photos.")
			return nil
		}
		for _, p := range photos {
			fmt.Printf("%s  entry:%s  %dx%d  %-4s  %8d  %s\n",
				p.ID, p.EntryID, p.Width, p.Height, p.Format, p.Size, p.Caption)
		}
		return nil
	},
}

var photoExportCmd = &cobra.Command{
	Use:   "export ID FILE",
	Short: "Write a decrypted photo to FILE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		thumb, _ := cmd.Flags().GetBool("thumbnail")

		a, err := newUnlockedApp(cmd, "GetPhoto")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.GetPhoto(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		data := p.Image
		if thumb {
			data = p.Thumbnail
		}
		if err := os.WriteFile(args[1], data, 0600); err != nil {
			return fmt.Errorf("writing photo: %w", err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(data), args[1])
		return nil
	},
}

var photoCaptionCmd = &cobra.Command{
	Use:   "caption ID CAPTION",
	Short: "Set a photo's caption",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "SetPhotoCaption")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetPhotoCaption(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Updated photo %s\n", args[0])
		return nil
	},
}

var photoDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RemovePhoto")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemovePhoto(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted photo %s\n", args[0])
		return nil
	},
}

func init() {
	photoAddCmd.Flags().String("caption", "", "Photo caption")
	photoExportCmd.Flags().Bool("thumbnail", false, "Write the thumbnail instead of the full image")

	photoCmd.AddCommand(photoAddCmd)
	photoCmd.AddCommand(photoListCmd)
	photoCmd.AddCommand(photoExportCmd)
	photoCmd.AddCommand(photoCaptionCmd)
	photoCmd.AddCommand(photoDeleteCmd)

	rootCmd.AddCommand(photoCmd)
}
