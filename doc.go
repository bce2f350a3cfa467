// Package cstdump parses a source file with tree-sitter and writes a
// line-per-node dump of its concrete syntax tree.
//
// # Pipeline
//
// Each call runs the same steps, in order, on a single goroutine:
//
//  1. Read the source file.
//  2. Parse it with the grammar chosen by [WithLanguage] or inferred from the
//     file extension. Malformed input still produces a tree; error and
//     missing nodes mark the regions the grammar could not match.
//  3. Walk the tree in pre-order, keeping nodes that intersect the line
//     window set by [WithWindow]. Depth always reflects the full tree.
//  4. Optionally drop lines with a Risor filter ([WithFilter]).
//  5. Write the lines to the destination, truncating it first.
//  6. Optionally record the dump in a SQLite history ([WithStore]).
//
// Steps 1 through 4 finish before the destination is opened, so a read,
// parse or filter failure never leaves a partial dump behind.
//
// # Usage
//
//	e, err := cstdump.New(cstdump.WithWindow(cstdump.LineRange(10, 20)))
//	if err != nil { ... }
//	res, err := e.DumpFile(ctx, "main.rs", "main.rs.cst")
//
// # Output
//
// The default text format writes one node per line, indented two spaces per
// level:
//
//	source_file [0,12) 0:0-0:12
//	  function_item [0,12) 0:0-0:12
//	    "fn" [0,2) 0:0-0:2 "fn"
//	    identifier [3,7) 0:3-0:7 field=name "main"
//
// Named kinds are bare and anonymous kinds are quoted. Leaves end with their
// quoted source text. JSON (one object per line) and YAML are also available
// through [WithFormat].
//
// # Errors
//
// Every fatal error is an [*Error] carrying the [Stage] that failed and the
// path involved.
package cstdump
