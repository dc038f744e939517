package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/pkg/metrics"
)

// EquipmentHandler handles HTTP requests for equipment.
type EquipmentHandler struct {
	service ports.EquipmentService
}

func NewEquipmentHandler(service ports.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

// Create handles POST /api/equipment.
//
// @Summary      Create equipment
// @Tags         equipment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEquipmentRequest  true  "Equipment"
// @Success      201   {object}  equipmentResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/equipment [post]
func (h *EquipmentHandler) Create(c echo.Context) error {
	var req createEquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.service.Create(c.Request().Context(), actor(c), ports.CreateEquipmentInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Description:  req.Description,
	})
	if err != nil {
		return countConflict(err)
	}
	metrics.EquipmentOperationsTotal.WithLabelValues("create").Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/api/equipment/"+e.ID)
	return c.JSON(http.StatusCreated, toEquipmentResponse(e))
}

// List handles GET /api/equipment.
//
// @Summary      List equipment
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        name  query     string  false  "Case-insensitive name fragment"
// @Success      200   {array}   equipmentResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/equipment [get]
func (h *EquipmentHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context(), actor(c), ports.EquipmentFilter{Name: c.QueryParam("name")})
	if err != nil {
		return err
	}
	out := make([]equipmentResponse, len(items))
	for i, e := range items {
		out[i] = toEquipmentResponse(e)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/equipment/:id.
//
// @Summary      Get equipment by id
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Equipment id"
// @Success      200  {object}  equipmentResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/equipment/{id} [get]
func (h *EquipmentHandler) Get(c echo.Context) error {
	e, err := h.service.Get(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// GetBySerialNumber handles GET /api/equipment/serial/:serial.
//
// @Summary      Get equipment by serial number
// @Tags         equipment
// @Produce      json
// @Security     BearerAuth
// @Param        serial  path      string  true  "Serial number"
// @Success      200     {object}  equipmentResponse
// @Failure      401     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/equipment/serial/{serial} [get]
func (h *EquipmentHandler) GetBySerialNumber(c echo.Context) error {
	e, err := h.service.GetBySerialNumber(c.Request().Context(), actor(c), c.Param("serial"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// Update handles PUT /api/equipment/:id. Only the fields present in the
// body are applied.
//
// @Summary      Update equipment
// @Tags         equipment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "Equipment id"
// @Param        body  body      updateEquipmentRequest  true  "Fields to change"
// @Success      200   {object}  equipmentResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/equipment/{id} [put]
func (h *EquipmentHandler) Update(c echo.Context) error {
	var req updateEquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.service.Update(c.Request().Context(), actor(c), c.Param("id"), ports.UpdateEquipmentInput{
		Name:         req.Name,
		SerialNumber: req.SerialNumber,
		Description:  req.Description,
	})
	if err != nil {
		return countConflict(err)
	}
	metrics.EquipmentOperationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// Delete handles DELETE /api/equipment/:id.
//
// @Summary      Delete equipment
// @Tags         equipment
// @Security     BearerAuth
// @Param        id   path      string  true  "Equipment id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return err
	}
	metrics.EquipmentOperationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

func countConflict(err error) error {
	if errors.Is(err, domain.ErrSerialNumberInUse) {
		metrics.SerialConflictsTotal.Inc()
	}
	return err
}
