package handraise

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Profile is the role-shaped view of a user record. Each role gets its own
// concrete type carrying only the fields that role actually has, so a
// volunteer response can never grow institution fields by accident.
type Profile interface {
	Kind() UserRole
}

// VolunteerProfile is the self-view for volunteers.
type VolunteerProfile struct {
	ID              uuid.UUID  `json:"id"`
	Role            UserRole   `json:"role"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone_number,omitempty"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	ProfilePic      string     `json:"profile_pic,omitempty"`
	Skills          []string   `json:"skills"`
	Availability    string     `json:"availability,omitempty"`
	AreasOfInterest []string   `json:"areas_of_interest"`
}

func (VolunteerProfile) Kind() UserRole { return RoleVolunteer }

// CharityAdminProfile is the self-view for charity administrators. The
// institution is embedded so clients never fetch it separately.
type CharityAdminProfile struct {
	ID          uuid.UUID    `json:"id"`
	Role        UserRole     `json:"role"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone_number,omitempty"`
	ProfilePic  string       `json:"profile_pic,omitempty"`
	Institution *Institution `json:"institution,omitempty"`
}

func (CharityAdminProfile) Kind() UserRole { return RoleCharityAdmin }

// AdminProfile is the self-view for platform administrators.
type AdminProfile struct {
	ID         uuid.UUID `json:"id"`
	Role       UserRole  `json:"role"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profile_pic,omitempty"`
}

func (AdminProfile) Kind() UserRole { return RoleAdmin }

// ProfileForUser maps a stored user onto its role-shaped view. The switch is
// exhaustive over known roles; an unknown role in the store is a data bug and
// surfaces as an error rather than a half-empty profile.
func ProfileForUser(user *User) (Profile, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}

	switch user.Role {
	case RoleVolunteer:
		return VolunteerProfile{
			ID:              user.ID,
			Role:            user.Role,
			Name:            user.Name,
			Email:           user.Email,
			Phone:           user.Phone,
			BirthDate:       user.BirthDate,
			ProfilePic:      user.ProfilePic,
			Skills:          emptyIfNil(user.Skills),
			Availability:    user.Availability,
			AreasOfInterest: emptyIfNil(user.AreasOfInterest),
		}, nil
	case RoleCharityAdmin:
		return CharityAdminProfile{
			ID:          user.ID,
			Role:        user.Role,
			Name:        user.Name,
			Email:       user.Email,
			Phone:       user.Phone,
			ProfilePic:  user.ProfilePic,
			Institution: user.Institution,
		}, nil
	case RoleAdmin:
		return AdminProfile{
			ID:         user.ID,
			Role:       user.Role,
			Name:       user.Name,
			Email:      user.Email,
			ProfilePic: user.ProfilePic,
		}, nil
	default:
		return nil, errors.New("user record carries an unknown role", errors.CategoryInternal).
			WithMetadata(map[string]any{"role": string(user.Role)})
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
