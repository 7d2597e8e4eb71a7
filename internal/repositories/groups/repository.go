// Package groups provides SQL-backed repositories for special-group rows:
// the group itself, its user memberships with tiers and its article links.
// Invariants (last admin, authorization) are enforced in the service layer;
// repositories only move rows.
package groups

import (
	"context"

	"github.com/dkolesnik/kbvault/internal/models"
)

type Repository interface {
	// CreateGroup inserts a group; a taken name yields ErrDuplicateName.
	CreateGroup(ctx context.Context, name string) (int64, error)
	GetGroup(ctx context.Context, id int64) (*models.SpecialGroup, error)
	ListGroups(ctx context.Context) ([]models.SpecialGroup, error)
	DeleteGroup(ctx context.Context, id int64) error

	// UpsertMember inserts or re-tiers a membership row.
	UpsertMember(ctx context.Context, groupID int64, userID string, tier models.Tier) error
	// DeleteMember removes one membership row and reports whether it existed.
	DeleteMember(ctx context.Context, groupID int64, userID string) (bool, error)
	// DeleteMembers removes every membership row of the group.
	DeleteMembers(ctx context.Context, groupID int64) error

	// MemberTier returns the user's tier in the group, TierNone if absent.
	MemberTier(ctx context.Context, groupID int64, userID string) (models.Tier, error)
	CountByTier(ctx context.Context, groupID int64, tier models.Tier) (int, error)
	MembersByTier(ctx context.Context, groupID int64, tier models.Tier) ([]models.User, error)
	// NonMembers lists catalog users without any membership in the group.
	NonMembers(ctx context.Context, groupID int64) ([]models.User, error)

	LinkArticle(ctx context.Context, groupID, articleID int64) error
	UnlinkArticle(ctx context.Context, groupID, articleID int64) error
	ArticleIDs(ctx context.Context, groupID int64) ([]int64, error)
	// DeleteLinks removes every article link of the group.
	DeleteLinks(ctx context.Context, groupID int64) error
}
