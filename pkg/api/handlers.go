package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homeservices/pkg/models"
	"homeservices/service"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) TimeSlots(c *gin.Context) {
	c.JSON(http.StatusOK, models.TimeSlots)
}

// ---------------------------------------------------------------------------
// Profiles

type createProfileRequest struct {
	Name    string      `json:"name"`
	Phone   string      `json:"phone"`
	Address string      `json:"address"`
	Role    models.Role `json:"role"`
}

func (h *Handler) CreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	p, err := h.svc.User().Create(c.Request.Context(), &models.Profile{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Role:    req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.svc.User().Get(c.Request.Context(), actorOf(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.User().UpdateProfile(c.Request.Context(), actorOf(c).ID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// Catalog

func (h *Handler) ListServices(c *gin.Context) {
	var (
		out []*models.Service
		err error
	)
	if providerID := c.Query("provider_id"); providerID != "" {
		out, err = h.svc.Catalog().ListByProvider(c.Request.Context(), providerID)
	} else {
		out, err = h.svc.Catalog().List(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetService(c *gin.Context) {
	svc, err := h.svc.Catalog().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) CreateService(c *gin.Context) {
	var req models.Service
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	svc, err := h.svc.Catalog().Create(c.Request.Context(), actorOf(c).ID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func (h *Handler) UpdateService(c *gin.Context) {
	var req models.Service
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("id")
	svc, err := h.svc.Catalog().Update(c.Request.Context(), actorOf(c).ID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	if err := h.svc.Catalog().Delete(c.Request.Context(), actorOf(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Bookings

type bookingList struct {
	Bookings []*models.Booking             `json:"bookings"`
	Counts   map[models.Classification]int `json:"counts"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type bookingView struct {
	*models.Booking
	Next []models.Status `json:"next"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	actor := actorOf(c)
	if actor.Role != models.RoleCustomer {
		h.fail(c, models.ErrForbidden)
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CustomerID = actor.ID

	b, err := h.svc.Booking().CreateBooking(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBookings returns the caller's bookings newest first. ?class= narrows
// to one tab.
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.svc.Booking().List(c.Request.Context(), service.FilterFor(actorOf(c)))
	if err != nil {
		h.fail(c, err)
		return
	}
	counts := models.CountByClass(bookings)

	if class := c.Query("class"); class != "" {
		filtered := make([]*models.Booking, 0, len(bookings))
		for _, b := range bookings {
			if got, ok := b.Status.Classification(); ok && string(got) == class {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}
	c.JSON(http.StatusOK, bookingList{Bookings: bookings, Counts: counts})
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor := actorOf(c)
	b, err := h.svc.Booking().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if b.CustomerID != actor.ID && b.ProviderID != actor.ID {
		h.fail(c, models.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, bookingView{Booking: b, Next: models.NextStatuses(b.Status, actor.Role)})
}

func (h *Handler) TransitionBooking(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	actor := actorOf(c)
	b, err := h.svc.Booking().Transition(c.Request.Context(), c.Param("id"), actor, target)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingView{Booking: b, Next: models.NextStatuses(b.Status, actor.Role)})
}

func (h *Handler) PayBooking(c *gin.Context) {
	res, err := h.svc.Payment().Pay(c.Request.Context(), c.Param("id"), actorOf(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	res, err := h.svc.Payment().ConfirmManually(c.Request.Context(), c.Param("id"), actorOf(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------------------------------------------------------------------------
// Earnings

func (h *Handler) Earnings(c *gin.Context) {
	actor := actorOf(c)
	if actor.Role != models.RoleProvider {
		h.fail(c, models.ErrForbidden)
		return
	}
	sum, err := h.svc.Earnings().Summary(c.Request.Context(), actor.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// RequestPayout answers 207 when part of the batch failed.
func (h *Handler) RequestPayout(c *gin.Context) {
	actor := actorOf(c)
	if actor.Role != models.RoleProvider {
		h.fail(c, models.ErrForbidden)
		return
	}
	res, err := h.svc.Earnings().RequestPayout(c.Request.Context(), actor.ID)
	if err != nil && res == nil {
		h.fail(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusMultiStatus, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	actor := actorOf(c)
	b, err := h.svc.Booking().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if actor.Role != models.RoleProvider || b.ProviderID != actor.ID {
		h.fail(c, models.ErrForbidden)
		return
	}
	paid, err := h.svc.Earnings().MarkPaid(c.Request.Context(), b.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, paid)
}
