package iamkit

import (
	"context"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
)

// ============================================================================
// COMPANIES
// ============================================================================

// CompanyInput carries the company fields for create and update. On update,
// empty fields are left unchanged.
type CompanyInput struct {
	Name     string
	Domain   string
	Industry string
	Country  string
	Timezone string
}

// CreateCompany creates a tenant. Only the global tier may create companies.
func (s *Service) CreateCompany(ctx context.Context, actorID int64, input CompanyInput) (*Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewError(ErrBadRequest, "company name cannot be empty")
	}
	if strings.TrimSpace(input.Domain) == "" {
		return nil, NewError(ErrBadRequest, "company domain cannot be empty")
	}

	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(actor, OpCreate, Target{Kind: KindCompany}); !d.Allowed {
		return nil, denied(d, OpCreate, actorID)
	}

	if taken, err := s.existsCompanyDomain(ctx, input.Domain, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewError(ErrDuplicate, "domain already in use: "+input.Domain)
	}

	now := time.Now().UTC()
	company := &Company{
		Name:      strings.TrimSpace(input.Name),
		Domain:    strings.ToLower(strings.TrimSpace(input.Domain)),
		Industry:  input.Industry,
		Country:   input.Country,
		Timezone:  input.Timezone,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}

	_, err = s.db.NewInsert().Model(company).Exec(ctx)
	if err = dbkit.WithErr1(err, "CreateCompany").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrDuplicate, "domain already in use: "+input.Domain)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":   actorID,
		"company_id": company.ID,
	}).Info("company created")
	return company, nil
}

// GetCompany returns a company if the actor may read it. Company-scoped
// actors only ever see their own company.
func (s *Service) GetCompany(ctx context.Context, actorID, companyID int64) (*Company, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	company, err := s.fetchCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpRead, CompanyTarget(company)); !d.Allowed {
		return nil, denied(d, OpRead, actorID).WithCompany(companyID)
	}
	return company, nil
}

// UpdateCompany updates company fields. The global tier may update any
// company; a company admin may update their own.
func (s *Service) UpdateCompany(ctx context.Context, actorID, companyID int64, input CompanyInput) (*Company, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	company, err := s.fetchCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if d := Authorize(actor, OpUpdate, CompanyTarget(company)); !d.Allowed {
		return nil, denied(d, OpUpdate, actorID).WithCompany(companyID)
	}

	if input.Domain != "" {
		domain := strings.ToLower(strings.TrimSpace(input.Domain))
		if taken, err := s.existsCompanyDomain(ctx, domain, company.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, NewError(ErrDuplicate, "domain already in use: "+domain)
		}
		company.Domain = domain
	}
	if input.Name != "" {
		company.Name = strings.TrimSpace(input.Name)
	}
	if input.Industry != "" {
		company.Industry = input.Industry
	}
	if input.Country != "" {
		company.Country = input.Country
	}
	if input.Timezone != "" {
		company.Timezone = input.Timezone
	}
	company.UpdatedAt = time.Now().UTC()
	company.UpdatedBy = actorID

	result, err := s.db.NewUpdate().Model(company).
		WherePK().
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateCompany").Err(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":   actorID,
		"company_id": company.ID,
	}).Info("company updated")
	return company, nil
}

// DeleteCompany tombstones a company. Only the global tier may delete
// companies. Users of the company are not cascaded; they stop resolving
// through their company's listings but keep their own lifecycle.
func (s *Service) DeleteCompany(ctx context.Context, actorID, companyID int64) error {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return err
	}
	company, err := s.fetchCompany(ctx, companyID)
	if err != nil {
		return err
	}

	if d := Authorize(actor, OpDelete, CompanyTarget(company)); !d.Allowed {
		return denied(d, OpDelete, actorID).WithCompany(companyID)
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().Model((*Company)(nil)).
		Set("deleted_at = ?", now).
		Set("deleted_by = ?", actorID).
		Set("updated_at = ?", now).
		Set("updated_by = ?", actorID).
		Where("id = ?", company.ID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteCompany").Err(); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":   actorID,
		"company_id": company.ID,
	}).Info("company deleted")
	return nil
}

// ListCompanies returns the page of companies the actor may see. For
// company-scoped actors that is at most their own company.
func (s *Service) ListCompanies(ctx context.Context, actorID int64, filter ListFilter) (Page[*Company], error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return Page[*Company]{}, err
	}
	if d := Authorize(actor, OpList, Target{Kind: KindCompany, CompanyID: actor.CompanyID}); !d.Allowed {
		return Page[*Company]{}, denied(d, OpList, actorID)
	}

	companies, err := s.listCompanies(ctx)
	if err != nil {
		return Page[*Company]{}, err
	}

	scoped := ScopeCandidates(actor, companies)
	scoped = SearchCandidates(scoped, filter.Query)
	return Paginate(scoped, filter.Page, filter.Size), nil
}
