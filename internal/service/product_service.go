package service

import (
	"context"
	"fmt"

	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

// ProductBackend is the part of the storefront backend used for the catalog
type ProductBackend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput, image *models.ImageUpload) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductService validates product forms and forwards them to the backend
type ProductService struct {
	backend ProductBackend
	logger  *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(backend ProductBackend) *ProductService {
	return &ProductService{
		backend: backend,
		logger:  util.GetLogger(),
	}
}

// List returns the catalog
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.List")
	defer span.End()

	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create validates the form and uploads the product with its optional image
func (s *ProductService) Create(ctx context.Context, in models.ProductInput, image *models.ImageUpload) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	p, err := s.backend.CreateProduct(ctx, in, image)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.String("product_id", p.ID),
		zap.String("name", p.Name),
		zap.Bool("with_image", image != nil))
	return p, nil
}

// Update validates the form and replaces the product
func (s *ProductService) Update(ctx context.Context, id string, in models.ProductInput) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Update")
	defer span.End()

	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	p, err := s.backend.UpdateProduct(ctx, id, in)
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	s.logger.Info("Product updated", zap.String("product_id", id))
	return p, nil
}

// Delete removes the product
func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.Delete")
	defer span.End()

	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}
