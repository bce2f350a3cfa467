package store

import "time"

type File struct {
	ID         int64
	Path       string
	Language   string
	Hash       string
	LineCount  int
	LastDumped time.Time
}

// Dump is one recorded run. StartLine and EndLine are 0 when the bound was
// open.
type Dump struct {
	ID         string
	FileID     int64
	SourceHash string
	Format     string
	StartLine  int
	EndLine    int
	NodeCount  int
	ErrorCount int
	DumpHash   string
	CreatedAt  time.Time
}

// DumpNode is one emitted line of a recorded dump, in emission order.
type DumpNode struct {
	Ordinal   int
	Depth     int
	Kind      string
	Named     bool
	Field     string
	StartByte int
	EndByte   int
	StartRow  int
	StartCol  int
	EndRow    int
	EndCol    int
	Leaf      bool
	Text      string
	HasError  bool
	Missing   bool
}
