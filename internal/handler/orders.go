package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/model"
	"github.com/iliyamo/flight-reservation/internal/service"
)

// OrderHandler books and cancels seats for registered customers and guests.
type OrderHandler struct {
	Booker    Booker
	Canceller Canceller
	Catalog   Catalog
}

func NewOrderHandler(b Booker, cn Canceller, cat Catalog) *OrderHandler {
	return &OrderHandler{Booker: b, Canceller: cn, Catalog: cat}
}

type guestCheckoutReq struct {
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Phones    []string `json:"phone_numbers"`
	Seats     []string `json:"seats"`
}

type guestIdentityReq struct {
	Email string `json:"email"`
}

// Create handles POST /v1/flights/:id/orders for the authenticated customer.
func (h *OrderHandler) Create(c echo.Context) error {
	var req seatsReq
	if err := c.Bind(&req); err != nil || len(req.Seats) == 0 {
		return badRequest(c, "Select at least one seat.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Booker.CreateOrder(ctx, service.BookingRequest{
		FlightID:     c.Param("id"),
		Email:        middleware.Subject(c),
		CustomerType: model.CustomerRegistered,
		Seats:        req.Seats,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// Mine handles GET /v1/my/orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Catalog.CustomerOrders(ctx, middleware.Subject(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// CancelMine handles POST /v1/my/orders/:id/cancel.
func (h *OrderHandler) CancelMine(c echo.Context) error {
	id, ok := pathInt64(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id.")
	}
	return h.cancel(c, id, service.Identity{Email: middleware.Subject(c), Type: model.CustomerRegistered})
}

// GuestCheckout handles POST /v1/guest/flights/:id/orders.
func (h *OrderHandler) GuestCheckout(c echo.Context) error {
	var req guestCheckoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body.")
	}
	if len(req.Seats) == 0 {
		return badRequest(c, "Select at least one seat.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Booker.GuestCheckout(ctx, service.GuestBooking{
		FlightID: c.Param("id"),
		Guest: model.Customer{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Type:      model.CustomerGuest,
			Phones:    req.Phones,
		},
		Seats: req.Seats,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// GuestOrder handles GET /v1/guest/orders/:id?email=.
func (h *OrderHandler) GuestOrder(c echo.Context) error {
	id, ok := pathInt64(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id.")
	}
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return badRequest(c, "email is required.")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Catalog.GuestOrder(ctx, id, email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// GuestCancel handles POST /v1/guest/orders/:id/cancel.
func (h *OrderHandler) GuestCancel(c echo.Context) error {
	id, ok := pathInt64(c, "id")
	if !ok {
		return badRequest(c, "Invalid order id.")
	}
	var req guestIdentityReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email is required.")
	}
	return h.cancel(c, id, service.Identity{Email: req.Email, Type: model.CustomerGuest})
}

// cancel answers 200 for both outcomes; a refusal past the cutoff is a
// normal result with the order unchanged.
func (h *OrderHandler) cancel(c echo.Context, id int64, who service.Identity) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Canceller.CancelOrder(ctx, id, who)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
