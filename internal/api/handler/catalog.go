package handler

import (
	"net/http"

	"github.com/ayo6706/merchant-gateway/internal/service"
)

type CatalogHandler struct {
	catalog  *service.CatalogService
	treasury *service.TreasuryService
}

func NewCatalogHandler(catalog *service.CatalogService, treasury *service.TreasuryService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, treasury: treasury}
}

// Services handles GET /v1/services?q=.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.catalog.Search(r.URL.Query().Get("q")))
}

// Treasury handles GET /v1/treasury.
func (h *CatalogHandler) Treasury(w http.ResponseWriter, r *http.Request) {
	overview, err := h.treasury.Overview(r.Context())
	if err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	RespondJSON(w, http.StatusOK, overview)
}
