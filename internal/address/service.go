package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a customer's address book. At most one address per user is
// the default; the first address saved always is.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return lo.Map(rows, func(a models.Address, _ int) AddressDTO { return toDTO(a) }), nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	addr, err := s.repo.FindForUser(ctx, nil, userID, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	dto := toDTO(*addr)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error) {
	addr := &models.Address{UserID: userID}
	if err := apply(addr, input); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.Count(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count addresses")
		}
		if count == 0 {
			addr.IsDefault = true
		}
		if err := repo.Create(ctx, addr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		if addr.IsDefault {
			return wrapDefault(repo.ClearDefault(ctx, userID, addr.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(*addr)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input Input) (*AddressDTO, error) {
	var out AddressDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addr, err := repo.FindForUser(ctx, tx, userID, id)
		if err != nil {
			return mapFindError(err)
		}
		wasDefault := addr.IsDefault
		if err := apply(addr, input); err != nil {
			return err
		}
		// the default can move but not disappear
		if wasDefault && !addr.IsDefault {
			addr.IsDefault = true
		}
		if err := repo.Save(ctx, addr); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
		}
		if addr.IsDefault {
			if err := wrapDefault(repo.ClearDefault(ctx, userID, addr.ID)); err != nil {
				return err
			}
		}
		out = toDTO(*addr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addr, err := repo.FindForUser(ctx, tx, userID, id)
		if err != nil {
			return mapFindError(err)
		}
		if _, err := repo.Delete(ctx, userID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
		}
		if addr.IsDefault {
			return wrapDefault(repo.PromoteNewest(ctx, userID))
		}
		return nil
	})
}

func apply(addr *models.Address, input Input) error {
	addr.ContactName = strings.TrimSpace(input.ContactName)
	addr.Phone = strings.TrimSpace(input.Phone)
	addr.Province = strings.TrimSpace(input.Province)
	addr.City = strings.TrimSpace(input.City)
	addr.District = strings.TrimSpace(input.District)
	addr.Detail = strings.TrimSpace(input.Detail)
	addr.IsDefault = input.IsDefault

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"contactName", addr.ContactName},
		{"phone", addr.Phone},
		{"province", addr.Province},
		{"city", addr.City},
		{"detail", addr.Detail},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func wrapDefault(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update default address")
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
}
