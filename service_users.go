package iamkit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ============================================================================
// USERS
// ============================================================================

// CreateUserInput carries the fields for user creation.
type CreateUserInput struct {
	Name      string
	Email     string
	RoleID    int64
	CompanyID int64
}

// UpdateUserInput carries the updatable user fields. Empty fields are left
// unchanged.
type UpdateUserInput struct {
	Name   string
	Email  string
	Status UserStatus
}

// CreateUser creates a user in VPENDING status with a fresh activation token.
// The user becomes usable only after ActivateUser consumes the token.
//
// The actor needs authority over both the user's company and the assigned
// role: company-scoped admins may only create users in their own company and
// may only hand out MANUAL roles below the admin tier.
func (s *Service) CreateUser(ctx context.Context, actorID int64, input CreateUserInput) (*User, error) {
	if err := validateUserInput(input.Name, input.Email); err != nil {
		return nil, err
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	company, err := s.fetchCompany(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	role, err := s.fetchRole(ctx, input.RoleID)
	if err != nil {
		return nil, err
	}
	roleTier, err := s.resolveRolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	target := Target{Kind: KindUser, CompanyID: company.ID}.WithTier(roleTier).WithRole(role)
	if d := Authorize(actor, OpCreate, target); !d.Allowed {
		return nil, denied(d, OpCreate, actorID).WithCompany(company.ID)
	}
	// The new user's role counts as an assignment, not just a field
	if d := Authorize(actor, OpAssignRole, target); !d.Allowed {
		return nil, denied(d, OpAssignRole, actorID).WithCompany(company.ID)
	}

	if taken, err := s.existsUserEmail(ctx, input.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewError(ErrDuplicate, "email already in use: "+input.Email)
	}

	now := time.Now().UTC()
	user := &User{
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		RoleID:    role.ID,
		CompanyID: company.ID,
		Status:    StatusPending,
		AuthToken: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err = dbkit.WithErr1(err, "CreateUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrDuplicate, "email already in use: "+input.Email)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":   actorID,
		"user_id":    user.ID,
		"company_id": company.ID,
		"role_id":    role.ID,
	}).Info("user created")
	return user, nil
}

// GetUser returns a user if the actor may read it. A self-tier actor may
// only read itself.
func (s *Service) GetUser(ctx context.Context, actorID, userID int64) (*User, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := s.userTier(ctx, user)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpRead, UserTarget(user).WithTier(tier)); !d.Allowed {
		return nil, denied(d, OpRead, actorID).WithUser(userID)
	}
	return user, nil
}

// UpdateUser updates a user's profile fields. Role changes go through
// ChangeUserRole, never through here.
func (s *Service) UpdateUser(ctx context.Context, actorID, userID int64, input UpdateUserInput) (*User, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := s.userTier(ctx, user)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpUpdate, UserTarget(user).WithTier(tier)); !d.Allowed {
		return nil, denied(d, OpUpdate, actorID).WithUser(userID)
	}

	if input.Email != "" {
		email := strings.ToLower(strings.TrimSpace(input.Email))
		if taken, err := s.existsUserEmail(ctx, email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, NewError(ErrDuplicate, "email already in use: "+email)
		}
		user.Email = email
	}
	if input.Name != "" {
		user.Name = strings.TrimSpace(input.Name)
	}
	if input.Status != "" {
		status, err := ParseUserStatus(string(input.Status))
		if err != nil {
			return nil, err
		}
		user.Status = status
	}
	user.UpdatedAt = time.Now().UTC()
	user.UpdatedBy = actorID

	result, err := s.db.NewUpdate().Model(user).
		WherePK().
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateUser").Err(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  user.ID,
	}).Info("user updated")
	return user, nil
}

// ChangeUserRole replaces the user's single role with another. The old role
// reference is overwritten, never kept.
//
// Company-scoped admins cannot hand out DEFAULT-type roles and cannot change
// another admin's role.
func (s *Service) ChangeUserRole(ctx context.Context, actorID, userID, roleID int64) (*User, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := s.userTier(ctx, user)
	if err != nil {
		return nil, err
	}
	role, err := s.fetchRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	target := UserTarget(user).WithTier(tier).WithRole(role)
	if d := Authorize(actor, OpChangeRole, target); !d.Allowed {
		return nil, denied(d, OpChangeRole, actorID).WithUser(userID)
	}

	user.RoleID = role.ID
	user.UpdatedAt = time.Now().UTC()
	user.UpdatedBy = actorID

	result, err := s.db.NewUpdate().Model(user).
		Column("role_id", "updated_at", "updated_by").
		WherePK().
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "ChangeUserRole").Err(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  user.ID,
		"role_id":  role.ID,
	}).Info("user role changed")
	return user, nil
}

// DeleteUser tombstones a user. The row stays for audit; every read path
// treats it as nonexistent from here on.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID int64) error {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return err
	}
	user, err := s.fetchUser(ctx, userID)
	if err != nil {
		return err
	}
	tier, err := s.userTier(ctx, user)
	if err != nil {
		return err
	}

	if d := Authorize(actor, OpDelete, UserTarget(user).WithTier(tier)); !d.Allowed {
		return denied(d, OpDelete, actorID).WithUser(userID)
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().Model((*User)(nil)).
		Set("status = ?", StatusDeleted).
		Set("deleted_at = ?", now).
		Set("deleted_by = ?", actorID).
		Set("updated_at = ?", now).
		Set("updated_by = ?", actorID).
		Where("id = ?", user.ID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUser").Err(); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  user.ID,
	}).Info("user deleted")
	return nil
}

// ListUsers returns the page of users the actor may see. Super-admin users
// never appear in company-scoped listings; denial of any individual user is
// omission, not an error.
func (s *Service) ListUsers(ctx context.Context, actorID int64, filter ListFilter) (Page[*User], error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return Page[*User]{}, err
	}
	if d := Authorize(actor, OpList, Target{Kind: KindUser, CompanyID: actor.CompanyID}); !d.Allowed {
		return Page[*User]{}, denied(d, OpList, actorID)
	}

	users, err := s.listUsers(ctx)
	if err != nil {
		return Page[*User]{}, err
	}
	superRoles, err := s.superAdminRoleIDs(ctx)
	if err != nil {
		return Page[*User]{}, err
	}

	candidates := make([]ScopedUser, 0, len(users))
	for _, u := range users {
		_, super := superRoles[u.RoleID]
		candidates = append(candidates, ScopedUser{User: u, SuperAdmin: super})
	}

	scoped := ScopeCandidates(actor, candidates)
	scoped = SearchCandidates(scoped, filter.Query)

	page := Paginate(scoped, filter.Page, filter.Size)
	items := make([]*User, len(page.Items))
	for i, c := range page.Items {
		items[i] = c.User
	}
	return Page[*User]{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}, nil
}

// VerifyToken resolves an activation token to its pending user. The token is
// opaque; this is a straight lookup, not a credential check.
func (s *Service) VerifyToken(ctx context.Context, token string) (*User, error) {
	user, err := s.fetchUserByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user.Status != StatusPending {
		return nil, NewError(ErrBadRequest, "user is not pending activation").WithUser(user.ID)
	}
	return user, nil
}

// ActivateUser consumes an activation token: the user moves from VPENDING to
// ACTIVE and the token is cleared so it cannot be replayed.
func (s *Service) ActivateUser(ctx context.Context, token string) (*User, error) {
	user, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user.Status = StatusActive
	user.AuthToken = ""
	user.PasswordChanged = true
	user.UpdatedAt = time.Now().UTC()
	user.UpdatedBy = user.ID

	result, err := s.db.NewUpdate().Model(user).
		Column("status", "auth_token", "password_changed", "updated_at", "updated_by").
		WherePK().
		Where("deleted_at IS NULL").
		Where("status = ?", StatusPending).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "ActivateUser").Err(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
	}).Info("user activated")
	return user, nil
}

func validateUserInput(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return NewError(ErrBadRequest, "user name cannot be empty")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return NewError(ErrBadRequest, "user email cannot be empty")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return NewError(ErrBadRequest, "invalid email address: "+email)
	}
	return nil
}
