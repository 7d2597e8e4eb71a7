// Package backup implements the flat backup file format for encrypted
// articles, plus the optional object-storage upload target.
//
// Each article is a block of thirteen lines — id, IV, the six content
// ciphertexts, level, grouping identifiers, permissions, date added and
// version — terminated by the sentinel line END_OF_ARTICLE. Ciphertext is
// written verbatim (base64), never re-encrypted, so a backup/restore round
// trip is byte-identical at the ciphertext level.
package backup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/models"
)

// Sentinel terminates every article block in a backup file.
const Sentinel = "END_OF_ARTICLE"

const linesPerBlock = 13

// maxLine bounds a single backup line; article bodies dominate.
const maxLine = 16 * 1024 * 1024

// Write serializes rows to w in block format.
func Write(w io.Writer, rows []*models.EncryptedArticle) error {
	bw := bufio.NewWriter(w)
	for _, a := range rows {
		for _, line := range blockLines(a) {
			if _, err := fmt.Fprintln(bw, line); err != nil {
				return fmt.Errorf("failed to write backup line: %w", err)
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes rows to path, overwriting any existing file.
func WriteFile(path string, rows []*models.EncryptedArticle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := Write(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read parses article blocks from r. Parsing is strictly positional; a
// truncated block, a missing sentinel or an unparsable id fails the whole
// read with ErrValidation rather than skipping the record.
func Read(r io.Reader) ([]*models.EncryptedArticle, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var rows []*models.EncryptedArticle
	for {
		lines, ok, err := readBlock(sc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}

		a, err := parseBlock(lines)
		if err != nil {
			return nil, err
		}
		rows = append(rows, a)
	}
}

// ReadFile reads a backup file produced by WriteFile.
func ReadFile(path string) ([]*models.EncryptedArticle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func blockLines(a *models.EncryptedArticle) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.IV,
		a.Title,
		a.Authors,
		a.Abstract,
		a.Keywords,
		a.Body,
		a.References,
		a.Level,
		a.GroupingIDs,
		a.Permissions,
		a.DateAdded,
		a.Version,
		Sentinel,
	}
}

func readBlock(sc *bufio.Scanner) ([]string, bool, error) {
	var lines []string
	for len(lines) < linesPerBlock {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, false, fmt.Errorf("failed to read backup: %w", err)
			}
			if len(lines) == 0 {
				return nil, false, nil // clean end of file
			}
			return nil, false, fmt.Errorf("%w: truncated backup block (%d of %d lines)", common.ErrValidation, len(lines), linesPerBlock)
		}
		lines = append(lines, sc.Text())
	}

	if !sc.Scan() {
		return nil, false, fmt.Errorf("%w: missing %s sentinel", common.ErrValidation, Sentinel)
	}
	if sc.Text() != Sentinel {
		return nil, false, fmt.Errorf("%w: expected %s sentinel, got %q", common.ErrValidation, Sentinel, sc.Text())
	}
	return lines, true, nil
}

func parseBlock(lines []string) (*models.EncryptedArticle, error) {
	id, err := strconv.ParseInt(lines[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad article id line %q", common.ErrValidation, lines[0])
	}
	return &models.EncryptedArticle{
		ID:          id,
		IV:          lines[1],
		Title:       lines[2],
		Authors:     lines[3],
		Abstract:    lines[4],
		Keywords:    lines[5],
		Body:        lines[6],
		References:  lines[7],
		Level:       lines[8],
		GroupingIDs: lines[9],
		Permissions: lines[10],
		DateAdded:   lines[11],
		Version:     lines[12],
	}, nil
}
