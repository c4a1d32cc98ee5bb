// Package repobolt provides a BBolt-backed company repository.
package repobolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/internal/errors"
)

var (
	companiesBucket   = []byte("companies")
	handleIndexBucket = []byte("idx_handle")
	tokenIndexBucket  = []byte("idx_access_token")
)

// CompanyRepo implements companies.Repo backed by a BBolt database.
// Records are stored JSON-encoded under the company ID; handle and
// access-token lookups go through index buckets maintained in the same
// write transaction as the record.
type CompanyRepo struct {
	db *bbolt.DB
}

var _ companies.Repo = (*CompanyRepo)(nil)

// NewCompanyRepo returns a repository backed by the given BBolt database.
func NewCompanyRepo(db *bbolt.DB) (*CompanyRepo, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{companiesBucket, handleIndexBucket, tokenIndexBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &CompanyRepo{db: db}, nil
}

// NewCompanyRepoFromFile opens a BBolt database at the given path and
// returns a new CompanyRepo.
func NewCompanyRepoFromFile(path string, options *bbolt.Options) (*CompanyRepo, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewCompanyRepo(db)
}

// Close closes the underlying BBolt database.
func (cr *CompanyRepo) Close() error {
	return cr.db.Close()
}

func (cr *CompanyRepo) FindByID(_ context.Context, companyID string) (*companies.Company, error) {
	var company *companies.Company
	err := cr.db.View(func(tx *bbolt.Tx) error {
		var err error
		company, err = getCompany(tx, companyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (cr *CompanyRepo) FindByHandle(ctx context.Context, handle string) (*companies.Company, error) {
	return cr.findByIndex(handleIndexBucket, handle)
}

func (cr *CompanyRepo) FindByAccessToken(ctx context.Context, accessToken string) (*companies.Company, error) {
	return cr.findByIndex(tokenIndexBucket, accessToken)
}

func (cr *CompanyRepo) findByIndex(index []byte, key string) (*companies.Company, error) {
	if key == "" {
		return nil, errors.ErrCompanyNotFound
	}
	var company *companies.Company
	err := cr.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(index).Get([]byte(key))
		if id == nil {
			return errors.ErrCompanyNotFound
		}
		var err error
		company, err = getCompany(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (cr *CompanyRepo) List(_ context.Context) ([]*companies.Company, error) {
	var list []*companies.Company
	err := cr.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(companiesBucket).ForEach(func(_, v []byte) error {
			var company companies.Company
			if err := json.Unmarshal(v, &company); err != nil {
				return err
			}
			list = append(list, &company)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (cr *CompanyRepo) Upsert(_ context.Context, company *companies.Company) error {
	if company.ID == "" {
		return errors.Wrapf(errors.ErrMalformedRequest, "[CompanyRepo.Upsert] missing company ID")
	}
	return cr.db.Update(func(tx *bbolt.Tx) error {
		now := time.Now()
		copied := *company
		copied.CreatedAt = now
		copied.UpdatedAt = now

		if existing, err := getCompany(tx, company.ID); err == nil {
			copied.CreatedAt = existing.CreatedAt
			dropIndexes(tx, existing)
		}
		return putCompany(tx, &copied)
	})
}

func (cr *CompanyRepo) UpdateByID(_ context.Context, companyID string, fields companies.Fields) (*companies.Company, error) {
	var updated *companies.Company
	err := cr.db.Update(func(tx *bbolt.Tx) error {
		company, err := getCompany(tx, companyID)
		if err != nil {
			return err
		}
		dropIndexes(tx, company)
		companies.ApplyFields(company, fields)
		company.UpdatedAt = time.Now()
		if err := putCompany(tx, company); err != nil {
			return err
		}
		updated = company
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (cr *CompanyRepo) DeleteByID(_ context.Context, companyID string) error {
	return cr.db.Update(func(tx *bbolt.Tx) error {
		company, err := getCompany(tx, companyID)
		if err != nil {
			return err
		}
		dropIndexes(tx, company)
		return tx.Bucket(companiesBucket).Delete([]byte(companyID))
	})
}

func getCompany(tx *bbolt.Tx, companyID string) (*companies.Company, error) {
	data := tx.Bucket(companiesBucket).Get([]byte(companyID))
	if data == nil {
		return nil, errors.ErrCompanyNotFound
	}
	var company companies.Company
	if err := json.Unmarshal(data, &company); err != nil {
		return nil, fmt.Errorf("decoding company %s: %w", companyID, err)
	}
	return &company, nil
}

func putCompany(tx *bbolt.Tx, company *companies.Company) error {
	data, err := json.Marshal(company)
	if err != nil {
		return err
	}
	if err := tx.Bucket(companiesBucket).Put([]byte(company.ID), data); err != nil {
		return err
	}
	if company.Handle != nil && *company.Handle != "" {
		if err := tx.Bucket(handleIndexBucket).Put([]byte(*company.Handle), []byte(company.ID)); err != nil {
			return err
		}
	}
	if company.AccessToken != "" {
		if err := tx.Bucket(tokenIndexBucket).Put([]byte(company.AccessToken), []byte(company.ID)); err != nil {
			return err
		}
	}
	return nil
}

func dropIndexes(tx *bbolt.Tx, company *companies.Company) {
	if company.Handle != nil && *company.Handle != "" {
		_ = tx.Bucket(handleIndexBucket).Delete([]byte(*company.Handle))
	}
	if company.AccessToken != "" {
		_ = tx.Bucket(tokenIndexBucket).Delete([]byte(company.AccessToken))
	}
}
