package models

// Tier is a member's access level within a special group.
type Tier int

const (
	// TierNone marks a user with no membership in the group.
	TierNone Tier = 0
	// TierView members may read the group's articles.
	TierView Tier = 1
	// TierManage members may create, edit and delete group articles and
	// invite or remove non-admin members.
	TierManage Tier = 2
	// TierAdmin members may do everything Manage can, plus add, remove or
	// retier any member, including other admins.
	TierAdmin Tier = 3
)

// Valid reports whether t is an assignable membership tier.
func (t Tier) Valid() bool {
	return t >= TierView && t <= TierAdmin
}

// SpecialGroup is a named, access-controlled collection of users and
// articles, separate from the public article store.
type SpecialGroup struct {
	ID   int64
	Name string
}

// Membership maps a user to their tier within one group.
type Membership struct {
	GroupID int64
	UserID  string
	Tier    Tier
}

// User is a row of the externally managed user catalog. The core reads it
// to answer member and non-member queries; it never writes it.
type User struct {
	ID   string
	Name string
}

// Grouping is a name-only catalog entry used to populate tag selection.
// It is not relationally enforced against articles' free-text tag lists.
type Grouping struct {
	ID   int64
	Name string
}
