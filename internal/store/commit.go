package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordDump stores a dump and its nodes in a single transaction. The file
// row is inserted or refreshed first; d.FileID, d.ID (when empty),
// d.DumpHash and d.CreatedAt (when zero) are filled in. Returns the dump ID.
func (s *Store) RecordDump(f *File, d *Dump, nodes []DumpNode) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("record dump: begin: %w", err)
	}
	defer tx.Rollback()

	fileID, err := upsertFileTx(tx, f)
	if err != nil {
		return "", fmt.Errorf("record dump: file %s: %w", f.Path, err)
	}

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.FileID = fileID
	d.SourceHash = f.Hash
	d.DumpHash = ComputeDumpHash(nodes)

	_, err = tx.Exec(
		`INSERT INTO dumps (id, file_id, source_hash, format, start_line, end_line,
			node_count, error_count, dump_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FileID, d.SourceHash, d.Format, d.StartLine, d.EndLine,
		d.NodeCount, d.ErrorCount, d.DumpHash, d.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("record dump: insert dump: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO dump_nodes (dump_id, ordinal, depth, kind, named, field,
			start_byte, end_byte, start_row, start_col, end_row, end_col,
			leaf, text, has_error, missing)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("record dump: prepare nodes: %w", err)
	}
	defer stmt.Close()

	for i := range nodes {
		n := &nodes[i]
		n.Ordinal = i
		if _, err := stmt.Exec(
			d.ID, n.Ordinal, n.Depth, n.Kind, n.Named, n.Field,
			n.StartByte, n.EndByte, n.StartRow, n.StartCol, n.EndRow, n.EndCol,
			n.Leaf, n.Text, n.HasError, n.Missing,
		); err != nil {
			return "", fmt.Errorf("record dump: node %d %q: %w", i, n.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record dump: commit: %w", err)
	}
	return d.ID, nil
}

// upsertFileTx inserts f or refreshes the existing row with the same path.
func upsertFileTx(tx *sql.Tx, f *File) (int64, error) {
	if f.LastDumped.IsZero() {
		f.LastDumped = time.Now()
	}

	var id int64
	err := tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.Exec(
			"INSERT INTO files (path, language, hash, line_count, last_dumped) VALUES (?, ?, ?, ?, ?)",
			f.Path, f.Language, f.Hash, f.LineCount, f.LastDumped,
		)
		if err != nil {
			return 0, fmt.Errorf("insert file: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("lookup file: %w", err)
	default:
		_, err := tx.Exec(
			"UPDATE files SET language = ?, hash = ?, line_count = ?, last_dumped = ? WHERE id = ?",
			f.Language, f.Hash, f.LineCount, f.LastDumped, id,
		)
		if err != nil {
			return 0, fmt.Errorf("update file: %w", err)
		}
	}
	f.ID = id
	return id, nil
}
