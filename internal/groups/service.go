// Package groups implements special-group access control: tiered
// memberships, article links and the destructive group cascade. Every
// mutating operation takes the acting user's id and authorizes it against
// that user's tier in the group; the core never authenticates, it trusts
// the caller-supplied identity.
package groups

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/articles"
	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/logging"
	"github.com/dkolesnik/kbvault/internal/models"
	grouprepo "github.com/dkolesnik/kbvault/internal/repositories/groups"
	"github.com/dkolesnik/kbvault/internal/repositories/repomanager"
)

type Service struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	articles *articles.Service
	log      logging.Logger
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, articleSvc *articles.Service, log logging.Logger) *Service {
	return &Service{db: db, repos: repos, articles: articleSvc, log: log}
}

// CreateGroup inserts a new group and makes the creator its first admin,
// atomically: a group must never exist without a tier-3 member.
func (s *Service) CreateGroup(ctx context.Context, actorID, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("group name is empty: %w", common.ErrValidation)
	}
	var id int64
	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Groups(tx)
		groupID, err := repo.CreateGroup(ctx, name)
		if err != nil {
			return err
		}
		if err := repo.UpsertMember(ctx, groupID, actorID, models.TierAdmin); err != nil {
			return err
		}
		id = groupID
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "group created", "group_id", id, "name", name, "creator", actorID)
	return id, nil
}

func (s *Service) GetGroup(ctx context.Context, id int64) (*models.SpecialGroup, error) {
	return s.repos.Groups(s.db).GetGroup(ctx, id)
}

func (s *Service) ListGroups(ctx context.Context) ([]models.SpecialGroup, error) {
	return s.repos.Groups(s.db).ListGroups(ctx)
}

// AddMember adds or re-tiers a member. Tier rules: a Manage member may add
// or re-tier non-admin members; only an Admin may grant tier 3 or touch an
// existing admin.
func (s *Service) AddMember(ctx context.Context, actorID string, groupID int64, userID string, tier models.Tier) error {
	return s.setTier(ctx, actorID, groupID, userID, tier)
}

// SetAccessTier changes an existing member's tier under the same rules as
// AddMember. Downgrading the sole admin fails with ErrLastAdmin.
func (s *Service) SetAccessTier(ctx context.Context, actorID string, groupID int64, userID string, tier models.Tier) error {
	return s.setTier(ctx, actorID, groupID, userID, tier)
}

func (s *Service) setTier(ctx context.Context, actorID string, groupID int64, userID string, tier models.Tier) error {
	if !tier.Valid() || tier == models.TierNone {
		return fmt.Errorf("tier %d: %w", tier, common.ErrValidation)
	}
	repo := s.repos.Groups(s.db)
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return err
	}

	actorTier, err := repo.MemberTier(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	current, err := repo.MemberTier(ctx, groupID, userID)
	if err != nil {
		return err
	}

	required := models.TierManage
	if tier == models.TierAdmin || current == models.TierAdmin {
		required = models.TierAdmin
	}
	if actorTier < required {
		return fmt.Errorf("user %s holds tier %d, needs %d: %w", actorID, actorTier, required, common.ErrUnauthorized)
	}

	if current == models.TierAdmin && tier != models.TierAdmin {
		if err := s.checkNotLastAdmin(ctx, repo, groupID); err != nil {
			return err
		}
	}
	return repo.UpsertMember(ctx, groupID, userID, tier)
}

// RemoveMember deletes a membership row. Removing the sole admin fails with
// ErrLastAdmin and leaves the membership untouched.
func (s *Service) RemoveMember(ctx context.Context, actorID string, groupID int64, userID string) error {
	repo := s.repos.Groups(s.db)
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return err
	}

	actorTier, err := repo.MemberTier(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	current, err := repo.MemberTier(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if current == models.TierNone {
		return fmt.Errorf("user %s is not a member of group %d: %w", userID, groupID, common.ErrNotFound)
	}

	required := models.TierManage
	if current == models.TierAdmin {
		required = models.TierAdmin
	}
	if actorTier < required {
		return fmt.Errorf("user %s holds tier %d, needs %d: %w", actorID, actorTier, required, common.ErrUnauthorized)
	}
	if current == models.TierAdmin {
		if err := s.checkNotLastAdmin(ctx, repo, groupID); err != nil {
			return err
		}
	}

	_, err = repo.DeleteMember(ctx, groupID, userID)
	return err
}

func (s *Service) checkNotLastAdmin(ctx context.Context, repo grouprepo.Repository, groupID int64) error {
	admins, err := repo.CountByTier(ctx, groupID, models.TierAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return fmt.Errorf("group %d would lose its only admin: %w", groupID, common.ErrLastAdmin)
	}
	return nil
}

// ListMembersByTier returns the group's members at the given tier. Any
// member (tier 1+) may list.
func (s *Service) ListMembersByTier(ctx context.Context, actorID string, groupID int64, tier models.Tier) ([]models.User, error) {
	repo := s.repos.Groups(s.db)
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierView); err != nil {
		return nil, err
	}
	return repo.MembersByTier(ctx, groupID, tier)
}

// ListNonMembers returns catalog users outside the group, for invitation
// flows. Requires Manage.
func (s *Service) ListNonMembers(ctx context.Context, actorID string, groupID int64) ([]models.User, error) {
	repo := s.repos.Groups(s.db)
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierManage); err != nil {
		return nil, err
	}
	return repo.NonMembers(ctx, groupID)
}

// UserAccessTier returns the user's tier in the group, 0 when the user is
// not a member.
func (s *Service) UserAccessTier(ctx context.Context, userID string, groupID int64) (models.Tier, error) {
	return s.repos.Groups(s.db).MemberTier(ctx, groupID, userID)
}

// LinkArticle attaches an existing article to the group. Requires Manage.
func (s *Service) LinkArticle(ctx context.Context, actorID string, groupID, articleID int64) error {
	repo := s.repos.Groups(s.db)
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierManage); err != nil {
		return err
	}
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return err
	}
	return repo.LinkArticle(ctx, groupID, articleID)
}

// UnlinkArticle detaches an article from the group without touching its
// content. Requires Manage.
func (s *Service) UnlinkArticle(ctx context.Context, actorID string, groupID, articleID int64) error {
	repo := s.repos.Groups(s.db)
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierManage); err != nil {
		return err
	}
	return repo.UnlinkArticle(ctx, groupID, articleID)
}

// ListGroupArticles returns the ids linked to the group. Any member may
// list.
func (s *Service) ListGroupArticles(ctx context.Context, actorID string, groupID int64) ([]int64, error) {
	repo := s.repos.Groups(s.db)
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierView); err != nil {
		return nil, err
	}
	return repo.ArticleIDs(ctx, groupID)
}

// DeleteGroup destroys the group and every article linked to it. Removing
// a group deletes its private articles, not just its view of them. The
// cascade runs in one transaction: linked articles, memberships, links,
// then the group row. Requires Admin.
func (s *Service) DeleteGroup(ctx context.Context, actorID string, groupID int64) error {
	if _, err := s.repos.Groups(s.db).GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireTier(ctx, s.repos.Groups(s.db), groupID, actorID, models.TierAdmin); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		groupRepo := s.repos.Groups(tx)
		articleRepo := s.repos.Articles(tx)

		ids, err := groupRepo.ArticleIDs(ctx, groupID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := articleRepo.Delete(ctx, id); err != nil {
				return err
			}
		}
		if err := groupRepo.DeleteMembers(ctx, groupID); err != nil {
			return err
		}
		if err := groupRepo.DeleteLinks(ctx, groupID); err != nil {
			return err
		}
		return groupRepo.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return fmt.Errorf("group cascade delete failed: %w", err)
	}
	s.log.Info(ctx, "group deleted with linked articles", "group_id", groupID, "actor", actorID)
	return nil
}

// ExportArticles writes a backup file containing only the group's linked
// articles. Any member may export.
func (s *Service) ExportArticles(ctx context.Context, actorID string, groupID int64, path string) error {
	repo := s.repos.Groups(s.db)
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireTier(ctx, repo, groupID, actorID, models.TierView); err != nil {
		return err
	}
	ids, err := repo.ArticleIDs(ctx, groupID)
	if err != nil {
		return err
	}
	return s.articles.BackupSubset(ctx, path, ids)
}

func (s *Service) requireTier(ctx context.Context, repo grouprepo.Repository, groupID int64, userID string, min models.Tier) error {
	tier, err := repo.MemberTier(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if tier < min {
		return fmt.Errorf("user %s holds tier %d, needs %d: %w", userID, tier, min, common.ErrUnauthorized)
	}
	return nil
}
