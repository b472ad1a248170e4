package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/boutique-commerce/backoffice/internal/httpx"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/service"
)

type CustomerHandler struct {
	customers *service.CustomerService
	workflow  *service.OrderWorkflow
}

func NewCustomerHandler(customers *service.CustomerService, workflow *service.OrderWorkflow) *CustomerHandler {
	return &CustomerHandler{customers: customers, workflow: workflow}
}

type CustomerRequest struct {
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Phone     string         `json:"phone"`
	Address   AddressRequest `json:"address"`
}

func (r CustomerRequest) toInput() service.CustomerInput {
	return service.CustomerInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Address:   r.Address.toDomain(),
	}
}

func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var request CustomerRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	customer, err := h.customers.Create(c.Context(), request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Created(c, "Customer created successfully", customer)
}

func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid customer ID", map[string]interface{}{
			"customer_id": c.Params("id"),
		})
	}

	customer, err := h.customers.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Customer retrieved successfully", customer)
}

func (h *CustomerHandler) List(c *fiber.Ctx) error {
	customers, err := h.customers.List(c.Context(), queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Customers retrieved successfully", customers)
}

func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid customer ID", map[string]interface{}{
			"customer_id": c.Params("id"),
		})
	}

	var request CustomerRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	customer, err := h.customers.Update(c.Context(), id, request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Customer updated successfully", customer)
}

func (h *CustomerHandler) Orders(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid customer ID", map[string]interface{}{
			"customer_id": c.Params("id"),
		})
	}

	if _, err := h.customers.Get(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	orders, err := h.workflow.List(c.Context(), repository.OrderFilter{
		CustomerID: &id,
		Limit:      queryInt(c, "limit", 20),
		Offset:     queryInt(c, "offset", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Orders retrieved successfully", mapOrders(orders))
}
