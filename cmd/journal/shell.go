package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"journal-go/internal/app"
	"journal-go/internal/journal"

	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  list                 list entries
  show ID              show one entry
  add TITLE            write an entry (text follows, end with an empty line)
  search QUERY         search titles and text
  tag TAG              entries with TAG
  mood MOOD            entries with MOOD
  delete ID            delete an entry
  lock                 lock the journal
  help                 this text
  quit                 leave the shell`

// shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session that locks itself after inactivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newUnlockedApp(cmd, "Shell")
		if err != nil {
			return err
		}
		defer a.Close()

		locker := a.NewAutoLocker(func() {
			fmt.Fprintln(os.Stderr, "\nJournal locked after inactivity.")
		})
		if err := locker.Start(); err != nil {
			return err
		}
		defer locker.Stop()

		fmt.Println(`Journal unlocked. Type "help" for commands.`)
		for {
			fmt.Print("journal> ")
			line, err := readLine()
			if err != nil {
				fmt.Println()
				return nil
			}

			name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
			rest = strings.TrimSpace(rest)
			if name == "" {
				continue
			}
			if name == "quit" || name == "exit" {
				return nil
			}

			if err := runShellCommand(ctx, a, name, rest); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	},
}

func runShellCommand(ctx context.Context, a *app.JournalApp, name, arg string) error {
	switch name {
	case "help":
		fmt.Println(shellHelp)
		return nil
	case "lock":
		a.Logout()
		fmt.Println("Locked.")
		return nil
	case "delete":
		if err := a.RemoveEntry(ctx, arg); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s\n", arg)
		return nil
	}

	if a.State() != journal.StateUnlocked {
		if err := unlock(ctx, a); err != nil {
			return err
		}
	}

	var entries []*journal.Entry
	var err error
	switch name {
	case "list":
		entries, err = a.ListEntries(ctx)
	case "search":
		entries, err = a.SearchEntries(ctx, arg)
	case "tag":
		entries, err = a.EntriesByTag(ctx, arg)
	case "mood":
		var mood journal.Mood
		if mood, err = journal.ParseMood(arg); err == nil {
			entries, err = a.EntriesByMood(ctx, mood)
		}
	case "show":
		var e *journal.Entry
		if e, err = a.GetEntry(ctx, arg); err == nil {
			fmt.Printf("%s  %s  %s\n\n%s\n", e.Date, e.Mood, e.Title, e.Content)
		}
		return err
	case "add":
		return shellAdd(ctx, a, arg)
	default:
		return errors.New(`unknown command, type "help"`)
	}
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func shellAdd(ctx context.Context, a *app.JournalApp, title string) error {
	content, err := readMultiline("Entry text")
	if err != nil {
		return err
	}
	id, err := a.AddEntry(ctx, journal.NewEntry{
		Title:   title,
		Content: content,
		Mood:    journal.MoodNeutral,
		Date:    a.Today(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added entry %s\n", id)
	return nil
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
