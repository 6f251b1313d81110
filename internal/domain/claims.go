package domain

import "sort"

// Claim is a single (key, value) pair attached to an authenticated request
// identity. Downstream authorization checks query claims by key.
type Claim struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Identity claim keys
const (
	ClaimSubject     = "sub"
	ClaimEmail       = "email"
	ClaimName        = "name"
	ClaimFirebaseUID = "firebaseUid"
	ClaimUserID      = "userId"
	ClaimAccountRole = "accountRole"
	ClaimErpUser     = "erpUser"
)

// Normalized role claim. Emitted as "Admin" for every role that may enter the
// admin panel, so downstream policies check one claim instead of enumerating
// privileged roles.
const (
	ClaimRole                = "role"
	RoleClaimAdmin           = "Admin"
	ClaimIsAdmin             = "isAdmin"
	ClaimCanAccessAdminPanel = "canAccessAdminPanel"
)

// Role-specific permission claim keys
const (
	ClaimIsOwner           = "isOwner"
	ClaimIsManager         = "isManager"
	ClaimIsStaff           = "isStaff"
	ClaimIsCustomer        = "isCustomer"
	ClaimCanManageSettings = "canManageSettings"
	ClaimCanManageUsers    = "canManageUsers"
	ClaimCanManageOrders   = "canManageOrders"
	ClaimCanViewOrders     = "canViewOrders"
	ClaimCanViewReports    = "canViewReports"
)

// ClaimBranchAccess claims carry one accessible branch ID per claim. Only ERP
// accounts get them.
const ClaimBranchAccess = "BranchAccess"

const claimTrue = "true"

// DeriveClaims maps a user account snapshot into its ordered claim sequence.
// It is a pure function: no I/O, no mutation of the account, no error path.
// Absent optional fields fall back to safe defaults (empty string, email as
// display name).
func DeriveClaims(u *UserAccount) []Claim {
	claims := make([]Claim, 0, 16)

	subject := u.FirebaseUID
	if subject == "" {
		subject = u.ID
	}

	claims = append(claims,
		Claim{ClaimSubject, subject},
		Claim{ClaimEmail, u.Email},
		Claim{ClaimName, u.DisplayName()},
		Claim{ClaimFirebaseUID, u.FirebaseUID},
		Claim{ClaimUserID, u.ID},
		Claim{ClaimAccountRole, string(u.Role)},
		Claim{ClaimErpUser, boolClaim(u.ErpUser)},
	)

	// Admin-access gate: one normalized claim admits all privileged roles.
	switch u.Role {
	case RoleOwner, RoleAdmin, RoleManager:
		claims = append(claims,
			Claim{ClaimRole, RoleClaimAdmin},
			Claim{ClaimIsAdmin, claimTrue},
			Claim{ClaimCanAccessAdminPanel, claimTrue},
		)
	}

	// Exactly one branch fires per role; no fallthrough, no inheritance.
	switch u.Role {
	case RoleOwner:
		claims = append(claims,
			Claim{ClaimIsOwner, claimTrue},
			Claim{ClaimCanManageSettings, claimTrue},
			Claim{ClaimCanManageUsers, claimTrue},
			Claim{ClaimCanViewReports, claimTrue},
		)
	case RoleManager:
		claims = append(claims,
			Claim{ClaimIsManager, claimTrue},
			Claim{ClaimCanManageOrders, claimTrue},
			Claim{ClaimCanViewReports, claimTrue},
		)
	case RoleStaff:
		claims = append(claims,
			Claim{ClaimIsStaff, claimTrue},
			Claim{ClaimCanViewOrders, claimTrue},
		)
	case RoleCustomer:
		claims = append(claims, Claim{ClaimIsCustomer, claimTrue})
	}

	// Branch-access claims are ERP-only. Keys are sorted so the sequence is
	// deterministic for consumers that compare or cache it.
	if u.ErpUser && len(u.BranchAccess) > 0 {
		branches := make([]string, 0, len(u.BranchAccess))
		for branch, allowed := range u.BranchAccess {
			if allowed {
				branches = append(branches, branch)
			}
		}
		sort.Strings(branches)
		for _, branch := range branches {
			claims = append(claims, Claim{ClaimBranchAccess, branch})
		}
	}

	return claims
}

func boolClaim(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Identity is the authenticated-identity context attached to a request. The
// zero value is the anonymous identity.
type Identity struct {
	Authenticated bool    `json:"authenticated"`
	Claims        []Claim `json:"claims,omitempty"`
}

// NewIdentity derives the claim sequence for the given account and wraps it
// into an authenticated identity.
func NewIdentity(u *UserAccount) *Identity {
	return &Identity{
		Authenticated: true,
		Claims:        DeriveClaims(u),
	}
}

// Anonymous returns the unauthenticated identity.
func Anonymous() *Identity {
	return &Identity{}
}

// Get returns the value of the first claim with the given key.
func (id *Identity) Get(key string) (string, bool) {
	for _, c := range id.Claims {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Has reports whether any claim with the given key is present.
func (id *Identity) Has(key string) bool {
	_, ok := id.Get(key)
	return ok
}

// HasTrue reports whether a boolean claim is present and set to "true".
func (id *Identity) HasTrue(key string) bool {
	v, ok := id.Get(key)
	return ok && v == claimTrue
}

// Subject returns the subject identifier claim.
func (id *Identity) Subject() string {
	v, _ := id.Get(ClaimSubject)
	return v
}

// BranchIDs returns every branch the identity holds a BranchAccess claim for.
func (id *Identity) BranchIDs() []string {
	var branches []string
	for _, c := range id.Claims {
		if c.Key == ClaimBranchAccess {
			branches = append(branches, c.Value)
		}
	}
	return branches
}

// HasBranchAccess reports whether the identity carries a BranchAccess claim
// for the given branch.
func (id *Identity) HasBranchAccess(branchID string) bool {
	for _, c := range id.Claims {
		if c.Key == ClaimBranchAccess && c.Value == branchID {
			return true
		}
	}
	return false
}
