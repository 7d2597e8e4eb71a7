package articles

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/cryptox"
	"github.com/dkolesnik/kbvault/internal/logging"
	"github.com/dkolesnik/kbvault/internal/models"
	"github.com/dkolesnik/kbvault/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupService(t *testing.T, name string) (*Service, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:articlesvc_%s?mode=memory&cache=shared", name)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	manager := repomanager.SQLiteManager{}
	require.NoError(t, manager.RunMigrations(context.Background(), db))

	cipher, err := cryptox.NewCipher(cryptox.NewStaticKeyProvider(cryptox.DefaultDevKey))
	require.NoError(t, err)

	return NewService(db, manager, cipher, logging.Nop()), db
}

func sampleArticle(title string) *models.Article {
	return &models.Article{
		Title:       title,
		Authors:     "John Doe",
		Abstract:    "A short abstract.",
		Keywords:    "cryptography,encryption,security",
		Body:        "The full body of the article, long enough to span blocks.",
		References:  "RFC 2898",
		Level:       models.LevelBeginner,
		GroupingIDs: []string{"crypto", "howto"},
		Permissions: []string{models.PermissionAdmin, models.PermissionStudent},
		DateAdded:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Version:     "1.0",
	}
}

func TestCreateAndGetByID_Identity(t *testing.T) {
	svc, _ := setupService(t, "identity")
	ctx := context.Background()

	want := sampleArticle("Sample Title")
	id, err := svc.Create(ctx, want)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Sample Title", got.Title)
	assert.Equal(t, "John Doe", got.Authors)
	assert.Equal(t, "A short abstract.", got.Abstract)
	assert.Equal(t, "cryptography,encryption,security", got.Keywords)
	assert.Equal(t, want.Body, got.Body)
	assert.Equal(t, "RFC 2898", got.References)
	assert.Equal(t, models.LevelBeginner, got.Level)
	assert.Equal(t, []string{"crypto", "howto"}, got.GroupingIDs)
	assert.Equal(t, []string{"Admin", "Student"}, got.Permissions)
	assert.Equal(t, want.DateAdded, got.DateAdded)
	assert.Equal(t, "1.0", got.Version)
}

func TestCreate_StoresCiphertextNotPlaintext(t *testing.T) {
	svc, db := setupService(t, "opacity")
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleArticle("Sample Title"))
	require.NoError(t, err)

	var title, body string
	require.NoError(t, db.QueryRow(`SELECT title, body FROM articles WHERE id = ?`, id).Scan(&title, &body))
	assert.NotEqual(t, "Sample Title", title)
	assert.NotContains(t, title, "Sample")
	assert.NotContains(t, body, "article")
}

func TestCreate_RejectsEmptyTitleAndBadMetadata(t *testing.T) {
	svc, _ := setupService(t, "validate")
	ctx := context.Background()

	a := sampleArticle("")
	_, err := svc.Create(ctx, a)
	require.ErrorIs(t, err, common.ErrValidation)

	a = sampleArticle("ok")
	a.Level = "guru"
	_, err = svc.Create(ctx, a)
	require.ErrorIs(t, err, common.ErrValidation)

	a = sampleArticle("ok")
	a.Permissions = []string{"Janitor"}
	_, err = svc.Create(ctx, a)
	require.ErrorIs(t, err, common.ErrValidation)
}

func storedRow(t *testing.T, db *sql.DB, id int64) (iv string, ciphers [6]string) {
	t.Helper()
	err := db.QueryRow(`SELECT iv, title, authors, abstract, keywords, body, refs FROM articles WHERE id = ?`, id).
		Scan(&iv, &ciphers[0], &ciphers[1], &ciphers[2], &ciphers[3], &ciphers[4], &ciphers[5])
	require.NoError(t, err)
	return iv, ciphers
}

func TestUpdate_TitleChangeReEncryptsEverything(t *testing.T) {
	svc, db := setupService(t, "reencrypt")
	ctx := context.Background()

	a := sampleArticle("Original Title")
	id, err := svc.Create(ctx, a)
	require.NoError(t, err)

	ivBefore, ciphersBefore := storedRow(t, db, id)

	a.ID = id
	a.Title = "Renamed Title"
	require.NoError(t, svc.Update(ctx, a))

	ivAfter, ciphersAfter := storedRow(t, db, id)
	assert.NotEqual(t, ivBefore, ivAfter, "IV must follow the title")
	for i := range ciphersBefore {
		assert.NotEqual(t, ciphersBefore[i], ciphersAfter[i], "field %d must be re-encrypted", i)
	}

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Title", got.Title)
	assert.Equal(t, "John Doe", got.Authors)
}

func TestUpdate_MissingArticle(t *testing.T) {
	svc, _ := setupService(t, "updatemissing")
	a := sampleArticle("x")
	a.ID = 9999
	require.ErrorIs(t, svc.Update(context.Background(), a), common.ErrNotFound)
}

func TestSearch_CaseInsensitiveOverDecryptedFields(t *testing.T) {
	svc, _ := setupService(t, "search")
	ctx := context.Background()

	first := sampleArticle("Intro to Ciphers")
	first.Keywords = "cryptography,encryption,security"
	second := sampleArticle("Handling Incidents")
	second.Keywords = "data,security,information"
	third := sampleArticle("Sharing Basics")
	third.Keywords = "special,groups,sharing"

	id1, err := svc.Create(ctx, first)
	require.NoError(t, err)
	id2, err := svc.Create(ctx, second)
	require.NoError(t, err)
	_, err = svc.Create(ctx, third)
	require.NoError(t, err)

	hits, err := svc.Search(ctx, "SECURITY")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, id1, hits[0].ID)
	assert.Equal(t, id2, hits[1].ID)

	// Authors match too.
	hits, err = svc.Search(ctx, "john doe")
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = svc.Search(ctx, "no-such-term")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFilterByLevel(t *testing.T) {
	svc, _ := setupService(t, "level")
	ctx := context.Background()

	a := sampleArticle("a")
	_, err := svc.Create(ctx, a)
	require.NoError(t, err)

	b := sampleArticle("b")
	b.Level = models.LevelExpert
	idB, err := svc.Create(ctx, b)
	require.NoError(t, err)

	rows, err := svc.FilterByLevel(ctx, models.LevelExpert)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, idB, rows[0].ID)

	_, err = svc.FilterByLevel(ctx, "guru")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestDelete_MissingIDIsNotFatal(t *testing.T) {
	svc, _ := setupService(t, "delete")
	ctx := context.Background()

	id, err := svc.Create(ctx, sampleArticle("a"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	require.NoError(t, svc.Delete(ctx, id), "second delete is a reported no-op")

	_, err = svc.GetByID(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestBackupRestore_Identity(t *testing.T) {
	src, _ := setupService(t, "backupsrc")
	dst, _ := setupService(t, "backupdst")
	ctx := context.Background()

	var originals []*models.Article
	for _, title := range []string{"First Article", "Second Article", "Third Article"} {
		a := sampleArticle(title)
		_, err := src.Create(ctx, a)
		require.NoError(t, err)
		originals = append(originals, a)
	}

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, src.Backup(ctx, path))
	require.NoError(t, dst.Restore(ctx, path, false))

	restored, err := dst.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, restored, len(originals))
	for i, a := range originals {
		assert.Equal(t, a.ID, restored[i].ID, "ids must survive the round trip")
		assert.Equal(t, a.Title, restored[i].Title)
		assert.Equal(t, a.Body, restored[i].Body)
		assert.Equal(t, a.Keywords, restored[i].Keywords)
	}
}

func TestRestore_MergeFalseClearsExistingRows(t *testing.T) {
	src, _ := setupService(t, "clearsrc")
	dst, _ := setupService(t, "cleardst")
	ctx := context.Background()

	_, err := src.Create(ctx, sampleArticle("Only Survivor"))
	require.NoError(t, err)

	_, err = dst.Create(ctx, sampleArticle("Doomed Row"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, src.Backup(ctx, path))
	require.NoError(t, dst.Restore(ctx, path, false))

	all, err := dst.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Only Survivor", all[0].Title)
}

func TestRestore_MergeTrueUpsertsOnCollision(t *testing.T) {
	src, _ := setupService(t, "mergesrc")
	dst, _ := setupService(t, "mergedst")
	ctx := context.Background()

	imported := sampleArticle("Imported Version")
	_, err := src.Create(ctx, imported)
	require.NoError(t, err)

	local := sampleArticle("Local Version")
	localID, err := dst.Create(ctx, local)
	require.NoError(t, err)
	require.Equal(t, imported.ID, localID, "test requires a colliding id")

	extra := sampleArticle("Untouched Local")
	extraID, err := dst.Create(ctx, extra)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, src.Backup(ctx, path))
	require.NoError(t, dst.Restore(ctx, path, true))

	got, err := dst.GetByID(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, "Imported Version", got.Title, "colliding row is overwritten by the import")

	got, err = dst.GetByID(ctx, extraID)
	require.NoError(t, err)
	assert.Equal(t, "Untouched Local", got.Title)
}

func TestRestore_MalformedFileFailsWhole(t *testing.T) {
	dst, _ := setupService(t, "badfile")
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, writeBadBackup(path))

	err := dst.Restore(ctx, path, true)
	require.ErrorIs(t, err, common.ErrValidation)

	all, err := dst.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "nothing may be applied from a malformed file")
}

func writeBadBackup(path string) error {
	return os.WriteFile(path, []byte("1\nsome-iv\nonly-three-lines\n"), 0o644)
}

func TestBackupSubset_OnlySelectedIDs(t *testing.T) {
	src, _ := setupService(t, "subsetsrc")
	dst, _ := setupService(t, "subsetdst")
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"Keep Me", "Skip Me", "Keep Too"} {
		id, err := src.Create(ctx, sampleArticle(title))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, src.BackupSubset(ctx, path, []int64{ids[0], ids[2]}))
	require.NoError(t, dst.Restore(ctx, path, false))

	all, err := dst.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Keep Me", all[0].Title)
	assert.Equal(t, "Keep Too", all[1].Title)
}

func TestCreateAfterRestore_DoesNotCollide(t *testing.T) {
	src, _ := setupService(t, "seqsrc")
	dst, _ := setupService(t, "seqdst")
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := src.Create(ctx, sampleArticle(title))
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "kb.backup")
	require.NoError(t, src.Backup(ctx, path))
	require.NoError(t, dst.Restore(ctx, path, false))

	id, err := dst.Create(ctx, sampleArticle("fresh"))
	require.NoError(t, err)
	assert.Greater(t, id, int64(3))
}
