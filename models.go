package handraise

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleVolunteer can browse events and manage their own profile
	RoleVolunteer UserRole = "volunteer"
	// RoleCharityAdmin manages the institution they belong to
	RoleCharityAdmin UserRole = "charity_admin"
	// RoleAdmin is the platform operator role
	RoleAdmin UserRole = "admin"
)

// User is the credential store record. The password hash and the recovery
// token hash never leave the server; both carry `json:"-"`.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	BirthDate     *time.Time `bun:"birth_date,nullzero" json:"birth_date,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	ProfilePic    string     `bun:"profile_pic" json:"profile_pic,omitempty"`

	// volunteer profile fields
	Skills          []string `bun:"skills" json:"skills,omitempty"`
	Availability    string   `bun:"availability" json:"availability,omitempty"`
	AreasOfInterest []string `bun:"areas_of_interest" json:"areas_of_interest,omitempty"`

	// charity_admin linkage
	InstitutionID *uuid.UUID   `bun:"institution_id,nullzero" json:"institution_id,omitempty"`
	Institution   *Institution `bun:"rel:belongs-to,join:institution_id=id" json:"institution,omitempty"`

	// recovery token state, set at forgot-password and cleared at reset
	ResetTokenHash   string     `bun:"reset_token_hash,nullzero" json:"-"`
	ResetTokenExpiry *time.Time `bun:"reset_token_expiry,nullzero" json:"-"`

	LoginAttempts  int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"-"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasPendingReset reports whether a recovery token is currently outstanding.
// Expiry is checked lazily at consumption, not here.
func (u *User) HasPendingReset() bool {
	return u.ResetTokenHash != "" && u.ResetTokenExpiry != nil
}

// Institution is a charity organization a charity_admin belongs to.
type Institution struct {
	bun.BaseModel `bun:"table:institutions,alias:inst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Type          string     `bun:"institution_type" json:"type,omitempty"`
	Contact       string     `bun:"contact" json:"contact,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Engagement records a volunteer assignment within an institution.
type Engagement struct {
	bun.BaseModel `bun:"table:engagements,alias:eng"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	InstitutionID *uuid.UUID   `bun:"institution_id,notnull" json:"institution_id,omitempty"`
	Institution   *Institution `bun:"rel:belongs-to,join:institution_id=id" json:"institution,omitempty"`
	VolunteerName string       `bun:"volunteer_name,notnull" json:"volunteer_name,omitempty"`
	EventName     string       `bun:"event_name" json:"event_name,omitempty"`
	Description   string       `bun:"description" json:"description,omitempty"`
	AssignedBy    string       `bun:"assigned_by" json:"assigned_by,omitempty"`
	VolunteerPic  string       `bun:"volunteer_pic" json:"volunteer_pic,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}
