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

type ReviewHTTP struct {
	Svc   *service.ReviewService
	Pages pagination.Params
}

func (h *ReviewHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "list_reviews", "id", "id is not a positive integer", err)
	}
	page := h.Pages.Parse(c.QueryParam("page"), c.QueryParam("page_size"))

	total, items, err := h.Svc.List(ctx, productID, page)
	if err != nil {
		return fail(l, "list_reviews", err)
	}
	return c.JSON(http.StatusOK, pagination.Result[models.Review]{Data: items, Meta: pagination.NewMeta(page, total)})
}

func (h *ReviewHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	productID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "create_review", "id", "id is not a positive integer", err)
	}

	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_review", "", "invalid body", err)
	}

	review, err := h.Svc.Create(ctx, callerFrom(c), productID, req.Rating, req.Comment)
	if err != nil {
		return fail(l, "create_review", err)
	}

	l.Info("create_review_success", "review_id", review.ID)
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHTTP) PatchReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.patch")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "patch_review", "id", "id is not a positive integer", err)
	}

	var req transport.PatchReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_review", "", "invalid body", err)
	}

	review, err := h.Svc.Patch(ctx, callerFrom(c), id, service.ReviewPatch(req))
	if err != nil {
		return fail(l, "patch_review", err)
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHTTP) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	id, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_review", "id", "id is not a positive integer", err)
	}
	if err := h.Svc.Delete(ctx, callerFrom(c), id); err != nil {
		return fail(l, "delete_review", err)
	}
	return c.NoContent(http.StatusNoContent)
}
