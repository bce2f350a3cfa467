package store

import (
	"database/sql"
	"fmt"
)

// FileByPath returns the file row for path, or nil if it was never dumped.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, language, hash, line_count, last_dumped FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastDumped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

const dumpColumns = `id, file_id, source_hash, format, start_line, end_line,
	node_count, error_count, dump_hash, created_at`

func scanDump(scanner interface{ Scan(...any) error }) (*Dump, error) {
	d := &Dump{}
	err := scanner.Scan(
		&d.ID, &d.FileID, &d.SourceHash, &d.Format, &d.StartLine, &d.EndLine,
		&d.NodeCount, &d.ErrorCount, &d.DumpHash, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DumpByID returns a dump, or nil if it does not exist.
func (s *Store) DumpByID(id string) (*Dump, error) {
	d, err := scanDump(s.db.QueryRow("SELECT "+dumpColumns+" FROM dumps WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dump by id: %w", err)
	}
	return d, nil
}

// DumpsByPath returns the dumps recorded for a source path, newest first.
func (s *Store) DumpsByPath(path string) ([]*Dump, error) {
	rows, err := s.db.Query(
		`SELECT d.id, d.file_id, d.source_hash, d.format, d.start_line, d.end_line,
			d.node_count, d.error_count, d.dump_hash, d.created_at
		 FROM dumps d JOIN files f ON f.id = d.file_id
		 WHERE f.path = ?
		 ORDER BY d.created_at DESC, d.rowid DESC`, path,
	)
	if err != nil {
		return nil, fmt.Errorf("dumps by path: %w", err)
	}
	defer rows.Close()
	var dumps []*Dump
	for rows.Next() {
		d, err := scanDump(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dump: %w", err)
		}
		dumps = append(dumps, d)
	}
	return dumps, rows.Err()
}

// LatestDump returns the most recent dump of path over the same line
// window, or nil if there is none.
func (s *Store) LatestDump(path string, startLine, endLine int) (*Dump, error) {
	d, err := scanDump(s.db.QueryRow(
		`SELECT d.id, d.file_id, d.source_hash, d.format, d.start_line, d.end_line,
			d.node_count, d.error_count, d.dump_hash, d.created_at
		 FROM dumps d JOIN files f ON f.id = d.file_id
		 WHERE f.path = ? AND d.start_line = ? AND d.end_line = ?
		 ORDER BY d.created_at DESC, d.rowid DESC
		 LIMIT 1`, path, startLine, endLine,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest dump: %w", err)
	}
	return d, nil
}

// DumpNodes returns the nodes of a dump in emission order.
func (s *Store) DumpNodes(dumpID string) ([]DumpNode, error) {
	rows, err := s.db.Query(
		`SELECT ordinal, depth, kind, named, field, start_byte, end_byte,
			start_row, start_col, end_row, end_col, leaf, text, has_error, missing
		 FROM dump_nodes WHERE dump_id = ? ORDER BY ordinal`, dumpID,
	)
	if err != nil {
		return nil, fmt.Errorf("dump nodes: %w", err)
	}
	defer rows.Close()
	var nodes []DumpNode
	for rows.Next() {
		var n DumpNode
		if err := rows.Scan(
			&n.Ordinal, &n.Depth, &n.Kind, &n.Named, &n.Field, &n.StartByte, &n.EndByte,
			&n.StartRow, &n.StartCol, &n.EndRow, &n.EndCol, &n.Leaf, &n.Text, &n.HasError, &n.Missing,
		); err != nil {
			return nil, fmt.Errorf("scan dump node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// DeleteDumpsForPath removes every recorded dump of a source path.
func (s *Store) DeleteDumpsForPath(path string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM dump_nodes WHERE dump_id IN
			(SELECT d.id FROM dumps d JOIN files f ON f.id = d.file_id WHERE f.path = ?)`, path,
	); err != nil {
		return 0, fmt.Errorf("delete dump nodes: %w", err)
	}
	res, err := tx.Exec(
		"DELETE FROM dumps WHERE file_id IN (SELECT id FROM files WHERE path = ?)", path,
	)
	if err != nil {
		return 0, fmt.Errorf("delete dumps: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
