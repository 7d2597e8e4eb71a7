// Package models defines the data model of the knowledge-base core:
// articles with per-field encrypted content, special groups with tiered
// membership, and the grouping-identifier catalog.
package models

import (
	"strings"
	"time"
)

// Level classifies article difficulty. The set is closed.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

// Valid reports whether l is one of the known difficulty levels.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// Audience permissions an article may carry.
const (
	PermissionAdmin      = "Admin"
	PermissionInstructor = "Instructor"
	PermissionStudent    = "Student"
)

// ValidPermissions reports whether every entry of perms is a known
// audience permission.
func ValidPermissions(perms []string) bool {
	for _, p := range perms {
		switch p {
		case PermissionAdmin, PermissionInstructor, PermissionStudent:
		default:
			return false
		}
	}
	return true
}

// DateFormat is the ISO date layout used in storage and backup files.
const DateFormat = time.DateOnly

// Article is the decrypted view of a knowledge-base record.
type Article struct {
	ID int64

	// Content fields, each independently encrypted at rest under the
	// article's title-derived IV.
	Title      string
	Authors    string
	Abstract   string
	Keywords   string
	Body       string
	References string

	// Clear metadata.
	Level       Level
	GroupingIDs []string // free-form tags; comma-joined at the storage edge
	Permissions []string // subset of Admin, Instructor, Student
	DateAdded   time.Time
	Version     string
}

// EncryptedArticle is the storage and backup view of an article: base64
// ciphertext for the six content fields, comma-joined metadata lists and
// the article's own base64 IV. All six ciphertexts of one record were
// produced under that IV.
type EncryptedArticle struct {
	ID int64
	IV string

	Title      string
	Authors    string
	Abstract   string
	Keywords   string
	Body       string
	References string

	Level       string
	GroupingIDs string
	Permissions string
	DateAdded   string // ISO date, yyyy-mm-dd
	Version     string
}

// JoinList encodes a list into the comma-joined storage shape.
func JoinList(xs []string) string {
	return strings.Join(xs, ",")
}

// SplitList decodes a comma-joined storage value; the empty string decodes
// to an empty list, not to a single empty element.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
