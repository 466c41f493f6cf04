package http

import (
	"net/http"

	"github.com/Pellowyink/Crafted-Commune-WebBased/internal/catalog"
)

type CatalogHandler struct {
	menu *catalog.Catalog
}

func NewCatalogHandler(menu *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{menu: menu}
}

type ProductDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Points      int     `json:"points"`
	Recommended bool    `json:"recommended,omitempty"`
}

type CategoryDTO struct {
	Name     string       `json:"name"`
	Products []ProductDTO `json:"products"`
}

type CatalogResponseDTO struct {
	Success    bool          `json:"success"`
	Categories []CategoryDTO `json:"categories"`
}

// GET /api/v1/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, _ *http.Request) {
	cats := h.menu.Categories()
	dtos := make([]CategoryDTO, 0, len(cats))
	for _, cat := range cats {
		products := make([]ProductDTO, 0, len(cat.Products))
		for _, p := range cat.Products {
			products = append(products, ProductDTO{
				ID:          p.ID,
				Name:        p.Name,
				Price:       p.Price,
				Points:      p.Points,
				Recommended: p.Recommended,
			})
		}
		dtos = append(dtos, CategoryDTO{Name: cat.Name, Products: products})
	}

	respondJSON(w, http.StatusOK, CatalogResponseDTO{Success: true, Categories: dtos})
}
