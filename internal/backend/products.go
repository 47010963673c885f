package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"perfume-admin/internal/models"
)

type productsResponse struct {
	Products []models.Product `json:"products"`
	Data     []models.Product `json:"data"`
}

type productResponse struct {
	Product *models.Product `json:"product"`
	Data    *models.Product `json:"data"`
}

func (r productResponse) get() models.Product {
	if r.Product != nil {
		return *r.Product
	}
	if r.Data != nil {
		return *r.Data
	}
	return models.Product{}
}

// ListProducts fetches the catalog
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var resp productsResponse
	if err := c.request(ctx, http.MethodGet, "/product", "/product", nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Products != nil {
		return resp.Products, nil
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	return []models.Product{}, nil
}

// CreateProduct uploads a new product as a multipart form with an optional image
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput, image *models.ImageUpload) (models.Product, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", in.Name},
		{"price", strconv.FormatFloat(in.Price, 'f', -1, 64)},
		{"description", in.Description},
		{"family", in.Family},
		{"quantity", strconv.Itoa(in.Quantity)},
		{"rating", strconv.FormatFloat(in.Rating, 'f', -1, 64)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return models.Product{}, fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", image.Filename)
		if err != nil {
			return models.Product{}, fmt.Errorf("failed to attach image: %w", err)
		}
		if _, err := part.Write(image.Content); err != nil {
			return models.Product{}, fmt.Errorf("failed to attach image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return models.Product{}, fmt.Errorf("failed to close form: %w", err)
	}

	var resp productResponse
	if err := c.request(ctx, http.MethodPost, "/product", "/product", &buf, w.FormDataContentType(), &resp); err != nil {
		return models.Product{}, err
	}
	return resp.get(), nil
}

// UpdateProduct replaces the editable fields of a product
func (c *Client) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (models.Product, error) {
	var resp productResponse
	if err := c.sendJSON(ctx, http.MethodPut, "/product/"+url.PathEscape(id), "/product/:id", in, &resp); err != nil {
		return models.Product{}, err
	}
	return resp.get(), nil
}

// DeleteProduct removes a product
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/product/"+url.PathEscape(id), "/product/:id", nil, "", nil)
}
