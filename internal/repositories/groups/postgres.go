package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, name string) (int64, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM special_groups WHERE name = $1`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to check group name: %w", err)
	}
	if n > 0 {
		return 0, fmt.Errorf("group %q: %w", name, common.ErrDuplicateName)
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `INSERT INTO special_groups (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetGroup(ctx context.Context, id int64) (*models.SpecialGroup, error) {
	var g models.SpecialGroup
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM special_groups WHERE id = $1`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select group %d: %w", id, err)
	}
	return &g, nil
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]models.SpecialGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM special_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select groups: %w", err)
	}
	defer rows.Close()

	var result []models.SpecialGroup
	for rows.Next() {
		var g models.SpecialGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM special_groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete group %d: %w", id, err)
	}
	return nil
}

func (r *PostgresRepository) UpsertMember(ctx context.Context, groupID int64, userID string, tier models.Tier) error {
	query := `INSERT INTO group_members (group_id, user_id, tier) VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO UPDATE SET tier = EXCLUDED.tier`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID, int(tier)); err != nil {
		return fmt.Errorf("failed to upsert member %s in group %d: %w", userID, groupID, err)
	}
	return nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, groupID int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete member %s from group %d: %w", userID, groupID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteMembers(ctx context.Context, groupID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to delete members of group %d: %w", groupID, err)
	}
	return nil
}

func (r *PostgresRepository) MemberTier(ctx context.Context, groupID int64, userID string) (models.Tier, error) {
	var tier int
	err := r.db.QueryRowContext(ctx, `SELECT tier FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TierNone, nil
	}
	if err != nil {
		return models.TierNone, fmt.Errorf("failed to select member tier: %w", err)
	}
	return models.Tier(tier), nil
}

func (r *PostgresRepository) CountByTier(ctx context.Context, groupID int64, tier models.Tier) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND tier = $2`, groupID, int(tier)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members by tier: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MembersByTier(ctx context.Context, groupID int64, tier models.Tier) ([]models.User, error) {
	query := `SELECT m.user_id, COALESCE(u.name, '') FROM group_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1 AND m.tier = $2
		ORDER BY m.user_id`
	rows, err := r.db.QueryContext(ctx, query, groupID, int(tier))
	if err != nil {
		return nil, fmt.Errorf("failed to select members by tier: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) NonMembers(ctx context.Context, groupID int64) ([]models.User, error) {
	query := `SELECT id, name FROM users
		WHERE id NOT IN (SELECT user_id FROM group_members WHERE group_id = $1)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select non-members: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) LinkArticle(ctx context.Context, groupID, articleID int64) error {
	query := `INSERT INTO group_articles (group_id, article_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, groupID, articleID); err != nil {
		return fmt.Errorf("failed to link article %d to group %d: %w", articleID, groupID, err)
	}
	return nil
}

func (r *PostgresRepository) UnlinkArticle(ctx context.Context, groupID, articleID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_articles WHERE group_id = $1 AND article_id = $2`, groupID, articleID); err != nil {
		return fmt.Errorf("failed to unlink article %d from group %d: %w", articleID, groupID, err)
	}
	return nil
}

func (r *PostgresRepository) ArticleIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT article_id FROM group_articles WHERE group_id = $1 ORDER BY article_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select group article ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) DeleteLinks(ctx context.Context, groupID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_articles WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to delete links of group %d: %w", groupID, err)
	}
	return nil
}
