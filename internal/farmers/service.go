package farmers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

// Service exposes farmer storefronts.
type Service interface {
	List(ctx context.Context, region string, params pagination.Params) (pagination.Page[FarmerSummaryDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*FarmerDTO, error)
	UpdateProfile(ctx context.Context, actor auth.Principal, input UpdateProfileInput) (*FarmerDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("farmer repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, region string, params pagination.Params) (pagination.Page[FarmerSummaryDTO], error) {
	params = params.Normalize()
	rows, total, err := s.repo.List(ctx, region, params)
	if err != nil {
		return pagination.Page[FarmerSummaryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list farmers")
	}
	counts, err := s.repo.ActiveProductCounts(ctx, lo.Map(rows, func(p models.FarmerProfile, _ int) uuid.UUID { return p.ID }))
	if err != nil {
		return pagination.Page[FarmerSummaryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count farmer products")
	}
	items := lo.Map(rows, func(p models.FarmerProfile, _ int) FarmerSummaryDTO { return toSummary(p, counts[p.ID]) })
	return pagination.NewPage(items, total, params), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*FarmerDTO, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	return s.withCount(ctx, profile)
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Principal, input UpdateProfileInput) (*FarmerDTO, error) {
	if !actor.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required")
	}
	profile, err := s.repo.FindByID(ctx, *actor.FarmerProfileID)
	if err != nil {
		return nil, mapFindError(err)
	}

	if input.FarmName != nil {
		name := strings.TrimSpace(*input.FarmName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmName cannot be blank")
		}
		profile.FarmName = name
	}
	if input.Region != nil {
		profile.Region = strings.TrimSpace(*input.Region)
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = optionalText(*input.AvatarURL)
	}
	if input.Intro != nil {
		profile.Intro = optionalText(*input.Intro)
	}
	if input.Story != nil {
		profile.Story = optionalText(*input.Story)
	}
	if input.StoryImages != nil {
		profile.StoryImages = lo.Uniq(lo.Compact(lo.Map(*input.StoryImages, func(u string, _ int) string {
			return strings.TrimSpace(u)
		})))
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update farmer profile")
	}
	return s.withCount(ctx, profile)
}

func (s *service) withCount(ctx context.Context, profile *models.FarmerProfile) (*FarmerDTO, error) {
	counts, err := s.repo.ActiveProductCounts(ctx, []uuid.UUID{profile.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count farmer products")
	}
	return toDTO(*profile, counts[profile.ID]), nil
}

func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func mapFindError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "farmer not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load farmer")
}
