package main

import (
	"fmt"
	"strings"

	"journal-go/internal/journal"

	"github.com/spf13/cobra"
)

// entry command
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage journal entries",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Write a new entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		moodFlag, _ := cmd.Flags().GetString("mood")
		date, _ := cmd.Flags().GetString("date")

		mood, err := journal.ParseMood(moodFlag)
		if err != nil {
			return err
		}
		a, err := newUnlockedApp(cmd, "AddEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		if date == "" {
			date = a.Today()
		}
		if !cmd.Flags().Changed("content") {
			if content, err = readMultiline("Entry text"); err != nil {
				return err
			}
		}

		id, err := a.AddEntry(cmd.Context(), journal.NewEntry{
			Title:   title,
			Content: content,
			Tags:    tags,
			Mood:    mood,
			Date:    date,
		})
		if err != nil {
			return fmt.Errorf("adding entry: %w", err)
		}

		fmt.Printf("Added entry %s\n", id)
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "ListEntries")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListEntries(cmd.Context())
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "GetEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.GetEntry(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s  %s\n", e.Date, e.Mood, e.Title)
		if len(e.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(e.Tags, ", "))
		}
		fmt.Printf("Created %s, updated %s\n\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		)
		fmt.Println(e.Content)
		return nil
	},
}

var entryEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u journal.EntryUpdate
		flags := cmd.Flags()
		if flags.Changed("title") {
			v, _ := flags.GetString("title")
			u.Title = &v
		}
		if flags.Changed("content") {
			v, _ := flags.GetString("content")
			u.Content = &v
		}
		if flags.Changed("tags") {
			v, _ := flags.GetStringSlice("tags")
			u.Tags = &v
		}
		if flags.Changed("mood") {
			s, _ := flags.GetString("mood")
			m, err := journal.ParseMood(s)
			if err != nil {
				return err
			}
			u.Mood = &m
		}
		if flags.Changed("date") {
			v, _ := flags.GetString("date")
			u.Date = &v
		}

		a, err := newUnlockedApp(cmd, "UpdateEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UpdateEntry(cmd.Context(), args[0], u); err != nil {
			return fmt.Errorf("updating entry: %w", err)
		}
		fmt.Printf("Updated entry %s\n", args[0])
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RemoveEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveEntry(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s\n", args[0])
		return nil
	},
}

var entrySearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Find entries whose title or text contains QUERY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "SearchEntries")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.SearchEntries(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var entryTagCmd = &cobra.Command{
	Use:   "tag TAG",
	Short: "List entries carrying TAG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "EntriesByTag")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.EntriesByTag(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var entryMoodCmd = &cobra.Command{
	Use:   "mood MOOD",
	Short: "List entries with MOOD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, err := journal.ParseMood(args[0])
		if err != nil {
			return err
		}

		a, err := newUnlockedApp(cmd, "EntriesByMood")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.EntriesByMood(cmd.Context(), mood)
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var entryRangeCmd = &cobra.Command{
	Use:   "range FROM TO",
	Short: "List entries dated FROM through TO (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newUnlockedApp(cmd, "EntriesInRange")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.EntriesInRange(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

func printEntries(entries []*journal.Entry) {
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %-8s  %s\n", e.ID, e.Date, e.Mood, e.Title)
	}
}

func addEntryFlags(cmd *cobra.Command, defaultMood string) {
	cmd.Flags().StringP("title", "t", "", "Entry title")
	cmd.Flags().StringP("content", "c", "", "Entry text (read from stdin when omitted)")
	cmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	cmd.Flags().StringP("mood", "m", defaultMood, "One of happy, sad, neutral, excited, anxious, grateful, angry")
	cmd.Flags().StringP("date", "d", "", "Entry date as YYYY-MM-DD (default today)")
}

func init() {
	addEntryFlags(entryAddCmd, string(journal.MoodNeutral))
	addEntryFlags(entryEditCmd, "")

	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryShowCmd)
	entryCmd.AddCommand(entryEditCmd)
	entryCmd.AddCommand(entryDeleteCmd)
	entryCmd.AddCommand(entrySearchCmd)
	entryCmd.AddCommand(entryTagCmd)
	entryCmd.AddCommand(entryMoodCmd)
	entryCmd.AddCommand(entryRangeCmd)

	rootCmd.AddCommand(entryCmd)
}
