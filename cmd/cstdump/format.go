package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jward/cstdump"
)

// formatLanguagesText lists grammars with their extensions as aligned columns.
func formatLanguagesText(w io.Writer, langs []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTENSIONS")
	for _, lang := range langs {
		fmt.Fprintf(tw, "%s\t%s\n", lang, strings.Join(cstdump.ExtensionsFor(lang), " "))
	}
	tw.Flush()
}

// formatHistoryText prints the file summary followed by its recorded dumps
// as aligned columns.
func formatHistoryText(w io.Writer, file *cstdump.File, dumps []*cstdump.Dump) {
	fmt.Fprintf(w, "%s (%s, %d lines, source %s)\n",
		file.Path, file.Language, file.LineCount, shortHash(file.Hash))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLINES\tFORMAT\tNODES\tERRORS\tHASH")
	for _, d := range dumps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			d.ID,
			d.CreatedAt.Local().Format(time.DateTime),
			cstdump.LineRange(d.StartLine, d.EndLine),
			d.Format,
			d.NodeCount,
			d.ErrorCount,
			shortHash(d.DumpHash),
		)
	}
	tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}
