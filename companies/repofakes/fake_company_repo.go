package repofakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/internal/errors"
)

var _ companies.Repo = (*FakeCompanyRepo)(nil)

type FakeCompanyRepo struct {
	companies map[string]*companies.Company
	lock      sync.RWMutex
}

func NewFakeCompanyRepo() *FakeCompanyRepo {
	return &FakeCompanyRepo{
		companies: make(map[string]*companies.Company),
	}
}

func (cr *FakeCompanyRepo) FindByID(_ context.Context, companyID string) (*companies.Company, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	company, ok := cr.companies[companyID]
	if !ok {
		return nil, errors.ErrCompanyNotFound
	}
	copied := *company
	return &copied, nil
}

func (cr *FakeCompanyRepo) FindByHandle(_ context.Context, handle string) (*companies.Company, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	for _, company := range cr.companies {
		if company.Handle != nil && *company.Handle == handle {
			copied := *company
			return &copied, nil
		}
	}
	return nil, errors.ErrCompanyNotFound
}

func (cr *FakeCompanyRepo) FindByAccessToken(_ context.Context, accessToken string) (*companies.Company, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	for _, company := range cr.companies {
		if company.AccessToken != "" && company.AccessToken == accessToken {
			copied := *company
			return &copied, nil
		}
	}
	return nil, errors.ErrCompanyNotFound
}

func (cr *FakeCompanyRepo) List(_ context.Context) ([]*companies.Company, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	list := make([]*companies.Company, 0, len(cr.companies))
	for _, company := range cr.companies {
		copied := *company
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (cr *FakeCompanyRepo) Upsert(_ context.Context, company *companies.Company) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	now := time.Now()
	copied := *company
	if existing, ok := cr.companies[company.ID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	cr.companies[company.ID] = &copied
	return nil
}

func (cr *FakeCompanyRepo) UpdateByID(_ context.Context, companyID string, fields companies.Fields) (*companies.Company, error) {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	company, ok := cr.companies[companyID]
	if !ok {
		return nil, errors.ErrCompanyNotFound
	}
	companies.ApplyFields(company, fields)
	company.UpdatedAt = time.Now()
	copied := *company
	return &copied, nil
}

func (cr *FakeCompanyRepo) DeleteByID(_ context.Context, companyID string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if _, ok := cr.companies[companyID]; !ok {
		return errors.ErrCompanyNotFound
	}
	delete(cr.companies, companyID)
	return nil
}
