package domain

import (
	"context"
	"time"
)

// Role is the account role enumeration. Each role maps to a fixed claim set,
// there is no ordinal hierarchy between them.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// ValidRoles returns the set of valid account roles.
func ValidRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleStaff, RoleCustomer}
}

// IsValidRole checks whether the given string is a valid account role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == Role(role) {
			return true
		}
	}
	return false
}

// UserAccount represents a storefront account, either an internal ERP user
// (staff side) or an external customer.
type UserAccount struct {
	ID           string          `bson:"_id,omitempty" json:"id"`
	FirebaseUID  string          `bson:"firebase_uid,omitempty" json:"firebase_uid"`
	Email        string          `bson:"email" json:"email"`
	Name         string          `bson:"name" json:"name"`
	Role         Role            `bson:"role" json:"role"`
	ErpUser      bool            `bson:"erp_user" json:"erp_user"`
	BranchAccess map[string]bool `bson:"branch_access,omitempty" json:"branch_access,omitempty"`
	CreatedAt    time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the account name, falling back to the email when the
// name was never set.
func (u *UserAccount) DisplayName() string {
	if u.Name == "" {
		return u.Email
	}
	return u.Name
}

// UserRepository defines operations for managing user accounts
type UserRepository interface {
	Create(ctx context.Context, user *UserAccount) error
	GetByID(ctx context.Context, id string) (*UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*UserAccount, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*UserAccount, error)
	Update(ctx context.Context, user *UserAccount) error
	UpdateRole(ctx context.Context, userID string, role Role) error
	Delete(ctx context.Context, id string) error

	GetAll(ctx context.Context) ([]*UserAccount, error)
	GetByRole(ctx context.Context, role Role) ([]*UserAccount, error)
	CountAll(ctx context.Context) (int64, error)
}

// SessionAttributeUserProfile is the attribute name under which the cached
// user profile lives inside a session.
const SessionAttributeUserProfile = "UserProfile"

// SessionStore is the server-side session collaborator consumed by the
// session middleware. Implementations back it with whatever store they like;
// the middleware only needs typed get/set/delete of the cached profile.
type SessionStore interface {
	GetUserProfile(ctx context.Context, sessionID string) (*UserAccount, error)
	SetUserProfile(ctx context.Context, sessionID string, user *UserAccount) error
	DeleteUserProfile(ctx context.Context, sessionID string) error
	Destroy(ctx context.Context, sessionID string) error
}

// AvatarRepository stores profile avatars in object storage.
type AvatarRepository interface {
	Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
}
