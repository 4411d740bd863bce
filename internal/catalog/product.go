// Package catalog provides read-only access to the product catalogs that
// drive the storefront. Catalogs are static JSON documents grouped by
// category; suppliers disagree on field naming, so every record is
// normalized into one canonical Product shape at decode time.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Product is the canonical product shape used by the rest of the service.
// FinalPrice is a pointer because "price zero" and "price missing" are
// different things to the cart: a free product is addable, an unpriced one
// is not.
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand,omitempty"`
	FinalPrice *float64 `json:"finalPrice,omitempty"`
	ListPrice  float64  `json:"listPrice,omitempty"`
	Image      string   `json:"imageUrl,omitempty"`
	Color      string   `json:"color,omitempty"`
}

// productRecord mirrors the supplier JSON, which exists in two dialects:
// the upstream PascalCase feed (Id, FinalPrice, Brand.Name, Colors,
// Images.PrimaryLarge) and a flattened lowercase variant (id, price, brand).
type productRecord struct {
	ID        string      `json:"Id"`
	AltID     string      `json:"id"`
	ProductID string      `json:"productId"`
	Name      string      `json:"Name"`
	AltName   string      `json:"name"`
	Brand     brandField  `json:"Brand"`
	AltBrand  string      `json:"brand"`
	Final     *float64    `json:"FinalPrice"`
	Price     *float64    `json:"price"`
	List      float64     `json:"ListPrice"`
	AltList   float64     `json:"listPrice"`
	Colors    []colorSpec `json:"Colors"`
	Color     string      `json:"color"`
	Images    imageSet    `json:"Images"`
	Image     string      `json:"Image"`
	AltImage  string      `json:"image"`
	Thumbnail string      `json:"thumbnail"`
}

type colorSpec struct {
	ColorName string `json:"ColorName"`
}

type imageSet struct {
	PrimaryLarge  string `json:"PrimaryLarge"`
	PrimaryMedium string `json:"PrimaryMedium"`
}

// brandField accepts either a plain string or an object with a Name field.
type brandField struct {
	Name string
}

func (b *brandField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"Name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unsupported brand shape: %w", err)
	}
	b.Name = obj.Name
	return nil
}

// UnmarshalJSON normalizes any supported supplier dialect into the canonical shape.
func (p *Product) UnmarshalJSON(data []byte) error {
	var rec productRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*p = rec.normalize()
	return nil
}

func (r productRecord) normalize() Product {
	p := Product{
		ID:        firstNonEmpty(r.ID, r.AltID, r.ProductID),
		Name:      firstNonEmpty(r.Name, r.AltName),
		Brand:     firstNonEmpty(r.Brand.Name, r.AltBrand),
		ListPrice: r.List,
		Image:     firstNonEmpty(r.Images.PrimaryLarge, r.Images.PrimaryMedium, r.Image, r.AltImage, r.Thumbnail),
		Color:     r.Color,
	}
	if p.ListPrice == 0 {
		p.ListPrice = r.AltList
	}
	if len(r.Colors) > 0 {
		p.Color = firstNonEmpty(r.Colors[0].ColorName, r.Color)
	}
	switch {
	case r.Final != nil:
		p.FinalPrice = r.Final
	case r.Price != nil:
		p.FinalPrice = r.Price
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeCatalog parses a catalog document, accepting both the bare-array
// payload and the {"Result": [...]} envelope the upstream feed uses.
func decodeCatalog(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err == nil {
		return products, nil
	}
	var envelope struct {
		Result []Product `json:"Result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("catalog document is neither an array nor a Result envelope: %w", err)
	}
	if envelope.Result == nil {
		return nil, fmt.Errorf("catalog envelope has no Result array")
	}
	return envelope.Result, nil
}

// FindByID returns the product with the given ID from products, or nil.
func FindByID(products []Product, id string) *Product {
	for i := range products {
		if products[i].ID == id {
			return &products[i]
		}
	}
	return nil
}
