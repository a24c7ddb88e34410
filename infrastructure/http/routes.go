package http

import (
	"github.com/go-chi/chi/v5"

	exportspage "pickstation/frontend/exports"
	"pickstation/frontend/labels"
	"pickstation/frontend/orderscan"
	"pickstation/frontend/picking"
	"pickstation/frontend/products"
)

// RegisterSocketRoutes registers the kiosk websocket endpoints.
func (s *Server) RegisterSocketRoutes(r chi.Router) {
	r.Get("/picking/{picklist}/ws", picking.PickingSocketHandler(s.Client, s.Hub, s.Rows, s.Config, s.Metrics))
	r.Get("/scanpicking/{order}/ws", orderscan.OrderSocketHandler(s.Client, s.Config, s.Metrics))
}

// RegisterFrontendRoutes registers the station pages.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.RegisterPickingRoutes(r)
	s.RegisterOrderRoutes(r)
	s.RegisterProductRoutes(r)
	s.RegisterExportRoutes(r)

	r.Get("/barcodes/{value}.png", labels.BarcodePNGQueryHandler())
	return r
}

func (s *Server) RegisterPickingRoutes(r chi.Router) {
	r.Get("/picking/{picklist}", picking.PickingPageQueryHandler(s.Client, s.Rows, s.Config))
	r.Get("/picking/{picklist}/brands", picking.BrandsPageQueryHandler(s.Client))
	r.Get("/picking/{picklist}/pick-sheet.pdf", labels.PickSheetPDFQueryHandler(s.Client))
}

func (s *Server) RegisterOrderRoutes(r chi.Router) {
	r.Get("/scanpicking/", orderscan.OrderEntryQueryHandler())
	r.Get("/scanpicking/{order}", orderscan.OrderPageQueryHandler(s.Client))
}

func (s *Server) RegisterProductRoutes(r chi.Router) {
	r.Get("/products/{id}", products.ProductPageQueryHandler(s.Client, s.Audit))
	r.Post("/products/{id}/photo", products.UploadPhotoCommandHandler(s.Client, s.Audit))
	r.Post("/products/{id}/barcodes", products.AddExtraBarcodeCommandHandler(s.Client, s.Audit))
	r.Post("/products/{id}/barcodes/{barcodeID}/delete", products.DeleteExtraBarcodeCommandHandler(s.Client, s.Audit))
}

func (s *Server) RegisterExportRoutes(r chi.Router) {
	r.Get("/exports", exportspage.ExportsPageQueryHandler(s.DB, s.Config))
	r.Get("/picking/{picklist}/export", exportspage.PicklistExportHandler(s.Client, s.DB, s.Audit, s.Config))
}
