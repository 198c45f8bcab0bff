package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
}

// Service exposes the customer's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	SelectAll(ctx context.Context, userID uuid.UUID, selected bool) (*CartDTO, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, products: products, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	return s.load(ctx, s.repo, userID)
}

func (s *service) load(ctx context.Context, repo *Repository, userID uuid.UUID) (*CartDTO, error) {
	items, err := repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return Build(items), nil
}

// Build assembles the cart view. Only selected lines whose product is still on
// sale count towards the summary.
func Build(items []models.CartItem) *CartDTO {
	priced := lo.FilterMap(items, func(item models.CartItem, _ int) (Line, bool) {
		if !item.Selected || item.Product == nil || item.Product.Status != enums.ProductStatusActive {
			return Line{}, false
		}
		return Line{UnitPrice: item.Product.PriceCents, Quantity: item.Quantity}, true
	})
	return &CartDTO{
		Items:   lo.Map(items, func(item models.CartItem, _ int) ItemDTO { return toItemDTO(item) }),
		Summary: Quote(priced),
	}
}

// AddItem puts qty units in the cart, merging into an existing line for the
// same product. The merged line is selected.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.sellable(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}

		existing, err := repo.FindByProduct(ctx, userID, input.ProductID)
		switch {
		case err == nil:
			existing.Quantity += qty
			existing.Selected = true
			if err := checkStock(product, existing.Quantity); err != nil {
				return err
			}
			if err := repo.Update(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(product, qty); err != nil {
				return err
			}
			item := &models.CartItem{UserID: userID, ProductID: input.ProductID, Quantity: qty, Selected: true}
			if err := repo.Create(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		out, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, userID, itemID)
		if err != nil {
			return mapItemError(err)
		}
		if input.Quantity != nil {
			if *input.Quantity <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
			}
			if err := checkStock(item.Product, *input.Quantity); err != nil {
				return err
			}
			item.Quantity = *input.Quantity
		}
		if input.Selected != nil {
			item.Selected = *input.Selected
		}
		if err := repo.Update(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		out, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	found, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) SelectAll(ctx context.Context, userID uuid.UUID, selected bool) (*CartDTO, error) {
	if err := s.repo.SetAllSelected(ctx, userID, selected); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select cart items")
	}
	return s.Get(ctx, userID)
}

func (s *service) sellable(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByIDTx(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
				WithDetails(map[string]any{"productId": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product is not on sale").
			WithDetails(map[string]any{"productId": productID})
	}
	return product, nil
}

func checkStock(product *models.Product, qty int) error {
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
	}
	if qty > product.Stock {
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d %s of %s left", product.Stock, product.Unit, product.Name).
			WithDetails(map[string]any{"productId": product.ID, "available": product.Stock, "requested": qty})
	}
	return nil
}

func mapItemError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
}
