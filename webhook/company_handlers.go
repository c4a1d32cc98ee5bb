package webhook

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/genuka/go-auth-service/companies"
	"github.com/genuka/go-auth-service/internal/errors"
)

// RegisterCompanyHandlers wires the company lifecycle events to the store.
// Other events (orders, products, subscriptions, payments) are left for the
// integrating app to register.
func RegisterCompanyHandlers(registry *Registry, repo companies.Repo) {
	registry.Register(EventCompanyUpdated, CompanyUpdatedHandler(repo))
	registry.Register(EventCompanyDeleted, CompanyDeletedHandler(repo))
}

// CompanyUpdatedHandler applies name/description changes from a
// company.updated event to the stored record.
func CompanyUpdatedHandler(repo companies.Repo) HandlerFunc {
	return func(ctx context.Context, companyID string, data json.RawMessage) error {
		var payload struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return errors.Wrapf(err, "[CompanyUpdatedHandler] decoding payload")
		}

		fields := companies.Fields{}
		if payload.Name != nil {
			fields["name"] = *payload.Name
		}
		if payload.Description != nil {
			fields["description"] = *payload.Description
		}
		if len(fields) == 0 {
			return nil
		}

		log.Info().Str("company_id", companyID).Msg("company updated")
		if _, err := repo.UpdateByID(ctx, companyID, fields); err != nil {
			return errors.Wrapf(err, "[CompanyUpdatedHandler] updating company %s", companyID)
		}
		return nil
	}
}

// CompanyDeletedHandler removes the stored record when the company
// uninstalls or is deleted upstream. Deleting a company we never stored is
// not a failure.
func CompanyDeletedHandler(repo companies.Repo) HandlerFunc {
	return func(ctx context.Context, companyID string, _ json.RawMessage) error {
		log.Info().Str("company_id", companyID).Msg("company deleted")
		if err := repo.DeleteByID(ctx, companyID); err != nil && !errors.Is(err, errors.ErrCompanyNotFound) {
			return errors.Wrapf(err, "[CompanyDeletedHandler] deleting company %s", companyID)
		}
		return nil
	}
}
