package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/mandi-price-sync/internal/market"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *market.Service) {
	v1 := app.Group("/api/v1/market")
	h := &handlers{service: service}

	v1.Get("/", h.query)
	v1.Post("/", h.save)
	v1.Post("/bulk", h.bulk)
	v1.Get("/realtime", h.realtime)
	v1.Post("/sync-realtime", h.sync)

	v1.Get("/states", h.states)
	v1.Get("/districts", h.districts)
	v1.Get("/crops", h.crops)
	v1.Get("/markets", h.markets)
	v1.Get("/states-with-districts", h.statesWithDistricts)
}

type handlers struct {
	service *market.Service
}

// dimensionQuery holds the optional location and crop filters shared by reads.
type dimensionQuery struct {
	State    string
	District string
	Crop     string
	Market   string
}

func parseDimensions(c *fiber.Ctx) dimensionQuery {
	return dimensionQuery{
		State:    strings.TrimSpace(c.Query("state")),
		District: strings.TrimSpace(c.Query("district")),
		Crop:     strings.TrimSpace(c.Query("crop")),
		Market:   strings.TrimSpace(c.Query("market")),
	}
}

func (h *handlers) query(c *fiber.Ctx) error {
	dims := parseDimensions(c)
	f := market.QueryFilter{
		State:    dims.State,
		District: dims.District,
		Crop:     dims.Crop,
		Market:   dims.Market,
	}

	if raw := c.Query("date"); raw != "" {
		day, err := parseDay(raw, h.service.Location())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		f.Date = &day
	}

	result := h.service.Query(c.UserContext(), f, c.QueryBool("useRealtime", false))
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(result.Records),
		"data":    result.Records,
		"source":  result.Source,
	})
}

// realtimeQuery holds query parameters for the live-only endpoint.
type realtimeQuery struct {
	dimensionQuery
	Limit int `validate:"gte=1,lte=1000"`
}

func (h *handlers) realtime(c *fiber.Ctx) error {
	q := realtimeQuery{
		dimensionQuery: parseDimensions(c),
		Limit:          c.QueryInt("limit", market.DefaultFetchLimit),
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	records := h.service.Realtime(c.UserContext(), market.Filter{
		State:    q.State,
		District: q.District,
		Crop:     q.Crop,
		Market:   q.Market,
		Limit:    q.Limit,
	})
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(records),
		"data":    records,
		"source":  market.SourceExternalAPI,
	})
}

// syncRequest is the optional body of a sync trigger.
type syncRequest struct {
	State    string `json:"state"`
	District string `json:"district"`
	Crop     string `json:"crop"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
}

func (h *handlers) sync(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	report := h.service.Sync(c.UserContext(), market.SyncFilter{
		State:    strings.TrimSpace(req.State),
		District: strings.TrimSpace(req.District),
		Crop:     strings.TrimSpace(req.Crop),
		Limit:    req.Limit,
	})
	return c.JSON(fiber.Map{
		"success": report.Success,
		"message": report.Message,
		"data":    report,
	})
}

// priceRequest is one hand-entered price.
type priceRequest struct {
	Crop     string  `json:"crop" validate:"required"`
	State    string  `json:"state" validate:"required"`
	District string  `json:"district" validate:"required"`
	Market   string  `json:"market" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Unit     string  `json:"unit" validate:"omitempty,oneof=Quintal Kg Ton"`
	Date     string  `json:"date"`
}

func (r priceRequest) toEntry(loc *time.Location) (market.Entry, error) {
	e := market.Entry{
		Crop:     r.Crop,
		State:    r.State,
		District: r.District,
		Market:   r.Market,
		Price:    r.Price,
		Unit:     market.Unit(r.Unit),
	}
	if r.Date != "" {
		day, err := parseDay(r.Date, loc)
		if err != nil {
			return market.Entry{}, err
		}
		e.Date = &day
	}
	return e, nil
}

func (h *handlers) save(c *fiber.Ctx) error {
	var req priceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest,
			"please provide all required fields: crop, state, district, market, price")
	}
	entry, err := req.toEntry(h.service.Location())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	stored, created, err := h.service.Save(c.UserContext(), entry)
	if err != nil {
		if errors.Is(err, market.ErrInvalidEntry) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save market price")
	}

	status, msg := fiber.StatusOK, "market price updated"
	if created {
		status, msg = fiber.StatusCreated, "market price created"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    stored,
	})
}

// bulkRequest carries many prices. Items are validated one by one so that a
// bad item is reported without rejecting the request.
type bulkRequest struct {
	Prices []priceRequest `json:"prices" validate:"required,min=1"`
}

func (h *handlers) bulk(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "please provide an array of prices")
	}

	loc := h.service.Location()
	entries := make([]market.Entry, 0, len(req.Prices))
	var rejected []market.ItemError
	for _, p := range req.Prices {
		if err := validate.Struct(p); err != nil {
			rejected = append(rejected, market.ItemError{Item: p, Error: err.Error()})
			continue
		}
		entry, err := p.toEntry(loc)
		if err != nil {
			rejected = append(rejected, market.ItemError{Item: p, Error: err.Error()})
			continue
		}
		entries = append(entries, entry)
	}

	report := h.service.BulkWrite(c.UserContext(), entries, market.SourceManual)
	report.Total = len(req.Prices)
	report.Errors = append(rejected, report.Errors...)

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("bulk operation completed: %d created, %d updated", report.Created, report.Updated),
		"results": report,
	})
}

func (h *handlers) states(c *fiber.Ctx) error {
	values, err := h.service.States(c.UserContext())
	return listResponse(c, values, err)
}

func (h *handlers) districts(c *fiber.Ctx) error {
	state := strings.TrimSpace(c.Query("state"))
	if state == "" {
		return fiber.NewError(fiber.StatusBadRequest, "state parameter is required")
	}
	values, err := h.service.Districts(c.UserContext(), state)
	return listResponse(c, values, err)
}

func (h *handlers) crops(c *fiber.Ctx) error {
	values, err := h.service.Crops(c.UserContext())
	return listResponse(c, values, err)
}

func (h *handlers) markets(c *fiber.Ctx) error {
	values, err := h.service.Markets(c.UserContext(), c.Query("state"), c.Query("district"))
	return listResponse(c, values, err)
}

func (h *handlers) statesWithDistricts(c *fiber.Ctx) error {
	values, err := h.service.StatesWithDistricts(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list states")
	}
	return c.JSON(fiber.Map{"success": true, "data": values})
}

func listResponse(c *fiber.Ctx, values []string, err error) error {
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list values")
	}
	return c.JSON(fiber.Map{"success": true, "data": values})
}

// parseDay accepts YYYY-MM-DD (in loc) or RFC3339.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Time{}, errors.New("invalid date format; use YYYY-MM-DD or RFC3339")
}
