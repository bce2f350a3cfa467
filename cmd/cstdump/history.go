package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jward/cstdump"
	"github.com/jward/cstdump/internal/dump"
	"github.com/spf13/cobra"
)

var (
	flagNodes  bool
	flagDumpID string
	flagClear  bool
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported grammars and their file extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatLanguagesText(cmd.OutOrStdout(), cstdump.Languages())
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <source>",
	Short: "Show recorded dumps of a source file",
	Long: "Lists dumps recorded with --record or --db, newest first. With --nodes, prints the newest dump in --format; " +
		"with --id, prints that dump instead. --clear deletes every recorded dump of the file.",
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagNodes, "nodes", false, "print the nodes of the newest dump")
	historyCmd.Flags().StringVar(&flagDumpID, "id", "", "print the nodes of the dump with this id")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "delete the recorded dumps of the file")
	historyCmd.MarkFlagsMutuallyExclusive("clear", "nodes")
	historyCmd.MarkFlagsMutuallyExclusive("clear", "id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	srcPath, err := resolveFilePath(args[0])
	if err != nil {
		return err
	}
	dbPath, err := dbPathFor(srcPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database not found: %s (run 'cstdump --record' first)", dbPath)
	}

	s, err := cstdump.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	if flagClear {
		n, err := s.DeleteDumpsForPath(srcPath)
		if err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintf(w, "Deleted %d dumps of %s\n", n, srcPath)
		return nil
	}

	file, err := s.FileByPath(srcPath)
	if err != nil {
		return fmt.Errorf("querying history: %w", err)
	}
	if file == nil {
		return fmt.Errorf("no dumps recorded for %s", srcPath)
	}

	if flagDumpID != "" {
		d, err := s.DumpByID(flagDumpID)
		if err != nil {
			return fmt.Errorf("querying history: %w", err)
		}
		if d == nil || d.FileID != file.ID {
			return fmt.Errorf("no dump %s recorded for %s", flagDumpID, srcPath)
		}
		return printNodes(w, s, d.ID)
	}

	dumps, err := s.DumpsByPath(srcPath)
	if err != nil {
		return fmt.Errorf("querying history: %w", err)
	}
	if len(dumps) == 0 {
		return fmt.Errorf("no dumps recorded for %s", srcPath)
	}
	if flagNodes {
		return printNodes(w, s, dumps[0].ID)
	}
	formatHistoryText(w, file, dumps)
	return nil
}

// printNodes writes a recorded dump in the --format encoding.
func printNodes(w io.Writer, s *cstdump.Store, dumpID string) error {
	format, err := cstdump.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	nodes, err := s.DumpNodes(dumpID)
	if err != nil {
		return fmt.Errorf("loading dump %s: %w", dumpID, err)
	}
	return dump.Encode(w, cstdump.LinesFromNodes(nodes), format)
}
