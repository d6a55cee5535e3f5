package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	"github.com/Skotchmaster/restaurant_orders/pkg/pagination"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/service"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/transport"
)

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Pages pagination.Params
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product", "id", "id is not a positive integer", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	f, err := service.ProductFilterFromQuery(c.QueryParams())
	if err != nil {
		return fail(l, "get_products", err)
	}
	page := h.Pages.Parse(c.QueryParam("page"), c.QueryParam("page_size"))

	total, items, err := h.Svc.GetProducts(ctx, f, page)
	if err != nil {
		return fail(l, "get_products", err)
	}

	l.Info("get_products_success", "total", total)
	return c.JSON(http.StatusOK, pagination.Result[models.Product]{Data: items, Meta: pagination.NewMeta(page, total)})
}

func (h *CatalogHTTP) GetProductsInfo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_info")

	info, err := h.Svc.GetProductsInfo(ctx)
	if err != nil {
		return fail(l, "get_products_info", err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := h.Pages.Parse(c.QueryParam("page"), c.QueryParam("page_size"))
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page)
	if err != nil {
		return fail(l, "search_products", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return c.JSON(http.StatusOK, pagination.Result[models.Product]{Data: items, Meta: pagination.NewMeta(page, total)})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product", "", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, callerFrom(c), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return fail(l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct serves both PUT and PATCH. PUT sends every field; PATCH
// only the ones to change.
func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "update_product", "id", "id is not a positive integer", err)
	}

	var patch service.ProductPatch
	if c.Request().Method == http.MethodPut {
		var req transport.CreateProductRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "update_product", "", "invalid body", err)
		}
		available := true
		if req.IsAvailable != nil {
			available = *req.IsAvailable
		}
		patch = service.ProductPatch{
			Name:        &req.Name,
			Description: &req.Description,
			Price:       &req.Price,
			Stock:       &req.Stock,
			IsAvailable: &available,
		}
	} else {
		var req transport.PatchProductRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "update_product", "", "invalid body", err)
		}
		patch = service.ProductPatch(req)
	}

	product, err := h.Svc.PatchProduct(ctx, callerFrom(c), id, patch)
	if err != nil {
		return fail(l, "update_product", err)
	}

	l.Info("update_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_product", "id", "id is not a positive integer", err)
	}
	if err := h.Svc.DeleteProduct(ctx, callerFrom(c), id); err != nil {
		return fail(l, "delete_product", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
