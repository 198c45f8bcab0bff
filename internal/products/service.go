package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

// Service exposes catalog browsing and farmer product management.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)

	ListOwn(ctx context.Context, actor auth.Principal, status *enums.ProductStatus, params pagination.Params) (pagination.Page[ProductDTO], error)
	Create(ctx context.Context, actor auth.Principal, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor auth.Principal, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	SetStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status enums.ProductStatus) (*ProductDTO, error)
	AdjustStock(ctx context.Context, actor auth.Principal, id uuid.UUID, delta int) (*ProductDTO, error)
	Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (pagination.Page[ProductDTO], error) {
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	return s.list(ctx, listQuery{
		Filters:    filters,
		Statuses:   []enums.ProductStatus{enums.ProductStatusActive},
		Pagination: params,
	})
}

func (s *service) list(ctx context.Context, query listQuery) (pagination.Page[ProductDTO], error) {
	params := query.Pagination.Normalize()
	query.Pagination = params
	rows, total, err := s.repo.List(ctx, query)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	items := lo.Map(rows, func(p models.Product, _ int) ProductDTO { return ToProductDTO(p) })
	return pagination.NewPage(items, total, params), nil
}

// Get returns an active product. Drafts and retired products are hidden from
// the public catalog.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
	}
	dto := ToProductDTO(*product)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return lo.Map(rows, toCategoryDTO), nil
}

func (s *service) ListOwn(ctx context.Context, actor auth.Principal, status *enums.ProductStatus, params pagination.Params) (pagination.Page[ProductDTO], error) {
	query := listQuery{Pagination: params}
	switch {
	case actor.IsFarmer():
		query.Filters.FarmerID = actor.FarmerProfileID
	case actor.IsAdmin():
	default:
		return pagination.Page[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeForbidden, "farmer profile required")
	}
	if status != nil {
		query.Statuses = []enums.ProductStatus{*status}
	}
	return s.list(ctx, query)
}

func (s *service) Create(ctx context.Context, actor auth.Principal, input CreateProductInput) (*ProductDTO, error) {
	if !actor.IsFarmer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only farmers can list products")
	}
	status := enums.ProductStatusDraft
	if input.Status != nil {
		status = *input.Status
	}
	product := &models.Product{
		FarmerID:           *actor.FarmerProfileID,
		CategoryID:         input.CategoryID,
		Name:               strings.TrimSpace(input.Name),
		Description:        strings.TrimSpace(input.Description),
		Images:             cleanImages(input.Images),
		PriceCents:         input.Price,
		OriginalPriceCents: input.OriginalPrice,
		Unit:               strings.TrimSpace(input.Unit),
		Origin:             strings.TrimSpace(input.Origin),
		SeasonalTag:        trimmedOrNil(input.SeasonalTag),
		Organic:            input.Organic,
		Stock:              input.Stock,
		Status:             status,
	}
	if err := validateProduct(ctx, s.repo, product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": product.ID.String(), "farmer_id": product.FarmerID.String()})
	s.logg.Info(logCtx, "product created")
	dto := ToProductDTO(*product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var out *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.loadOwned(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		applyUpdate(product, input)
		if err := validateProduct(ctx, repo, product); err != nil {
			return err
		}
		if err := repo.Update(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		out = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := ToProductDTO(*out)
	return &dto, nil
}

func (s *service) SetStatus(ctx context.Context, actor auth.Principal, id uuid.UUID, status enums.ProductStatus) (*ProductDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown product status %q", status)
	}
	product, err := s.loadOwned(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	if product.Status != status {
		if status == enums.ProductStatusActive {
			if err := validateProduct(ctx, s.repo, product); err != nil {
				return nil, err
			}
		}
		if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product status")
		}
		product.Status = status
	}
	dto := ToProductDTO(*product)
	return &dto, nil
}

func (s *service) AdjustStock(ctx context.Context, actor auth.Principal, id uuid.UUID, delta int) (*ProductDTO, error) {
	if _, err := s.loadOwned(ctx, s.repo, actor, id); err != nil {
		return nil, err
	}
	product, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, mapFindError(err)
	}
	dto := ToProductDTO(*product)
	return &dto, nil
}

// Delete removes a product nobody ordered yet. Ordered products must be set
// inactive instead so order history keeps pointing at a real row.
func (s *service) Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.loadOwned(ctx, repo, actor, id); err != nil {
			return err
		}
		refs, err := repo.CountOrderLines(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count order references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product has orders; set it inactive instead").
				WithDetails(map[string]any{"orderLines": refs})
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) loadOwned(ctx context.Context, repo *Repository, actor auth.Principal, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindError(err)
	}
	if actor.IsAdmin() || actor.OwnsFarm(product.FarmerID) {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
}

func validateProduct(ctx context.Context, repo *Repository, p *models.Product) error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Unit == "" {
		problems = append(problems, "unit is required")
	}
	if p.PriceCents <= 0 {
		problems = append(problems, "price must be greater than zero")
	}
	if p.OriginalPriceCents != nil && *p.OriginalPriceCents < p.PriceCents {
		problems = append(problems, "originalPrice must not be below price")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if !p.Status.IsValid() {
		problems = append(problems, "status is invalid")
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, strings.Join(problems, "; ")).
			WithDetails(map[string]any{"errors": problems})
	}

	ok, err := repo.CategoryExists(ctx, p.CategoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
			WithDetails(map[string]any{"categoryId": p.CategoryID})
	}
	return nil
}

func applyUpdate(p *models.Product, in UpdateProductInput) {
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Images != nil {
		p.Images = cleanImages(*in.Images)
	}
	if in.Price != nil {
		p.PriceCents = *in.Price
	}
	if in.OriginalPrice != nil {
		if *in.OriginalPrice == 0 {
			p.OriginalPriceCents = nil
		} else {
			v := *in.OriginalPrice
			p.OriginalPriceCents = &v
		}
	}
	if in.Unit != nil {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Origin != nil {
		p.Origin = strings.TrimSpace(*in.Origin)
	}
	if in.SeasonalTag != nil {
		p.SeasonalTag = trimmedOrNil(in.SeasonalTag)
	}
	if in.Organic != nil {
		p.Organic = *in.Organic
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return lo.Uniq(out)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapFindError(err error) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
}
