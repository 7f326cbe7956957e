// Package http exposes the REST API. Handlers translate requests into
// commands and queries, map domain errors onto status codes, and never
// contain business rules themselves.
package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/auth"
	"dispatch/internal/realtime"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler       commands.CreateOrderCommandHandler
	changeOrderStatusHandler commands.ChangeOrderStatusCommandHandler
	acceptOrderHandler       commands.AcceptOrderCommandHandler
	declineOrderHandler      commands.DeclineOrderCommandHandler
	registerAgentHandler     commands.RegisterAgentCommandHandler
	setAvailabilityHandler   commands.SetAgentAvailabilityCommandHandler
	reportLocationHandler    commands.ReportLocationCommandHandler

	// Query handlers
	getOrderHandler           queries.GetOrderQueryHandler
	getAvailableAgentsHandler queries.GetAvailableAgentsQueryHandler

	offerBoard *services.OfferBoard
	locations  *realtime.Hub
	jwtService *auth.JWTService
}

// NewServer creates an HTTP server with the required command and query
// handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	changeOrderStatusHandler commands.ChangeOrderStatusCommandHandler,
	acceptOrderHandler commands.AcceptOrderCommandHandler,
	declineOrderHandler commands.DeclineOrderCommandHandler,
	registerAgentHandler commands.RegisterAgentCommandHandler,
	setAvailabilityHandler commands.SetAgentAvailabilityCommandHandler,
	reportLocationHandler commands.ReportLocationCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getAvailableAgentsHandler queries.GetAvailableAgentsQueryHandler,
	offerBoard *services.OfferBoard,
	locations *realtime.Hub,
	jwtService *auth.JWTService,
) *Server {
	return &Server{
		createOrderHandler:        createOrderHandler,
		changeOrderStatusHandler:  changeOrderStatusHandler,
		acceptOrderHandler:        acceptOrderHandler,
		declineOrderHandler:       declineOrderHandler,
		registerAgentHandler:      registerAgentHandler,
		setAvailabilityHandler:    setAvailabilityHandler,
		reportLocationHandler:     reportLocationHandler,
		getOrderHandler:           getOrderHandler,
		getAvailableAgentsHandler: getAvailableAgentsHandler,
		offerBoard:                offerBoard,
		locations:                 locations,
		jwtService:                jwtService,
	}
}

// RegisterRoutes mounts the API on the given echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/api/v1/agents", s.RegisterAgent)

	api := e.Group("/api/v1", AuthMiddleware(s.jwtService))
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.GET("/orders/:id/location", s.GetOrderLocation)
	api.PUT("/orders/:id/status", s.ChangeOrderStatus)
	api.POST("/orders/:id/accept", s.AcceptOrder)
	api.POST("/orders/:id/decline", s.DeclineOrder)
	api.GET("/agents/available", s.GetAvailableAgents)
	api.PUT("/agents/availability", s.SetAvailability)
	api.POST("/agents/location", s.ReportLocation)
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CreateOrder handles POST /api/v1/orders. Only customers place orders.
func (s *Server) CreateOrder(c echo.Context) error {
	actor, ok := requireRole(c, order.RoleCustomer)
	if !ok {
		return nil
	}

	var request CreateOrderRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	businessID, err := kernel.UUIDFromString(request.BusinessID)
	if err != nil {
		return respondError(c, err)
	}

	restaurantLocation, err := kernel.NewGeoPoint(request.RestaurantLocation.Lat, request.RestaurantLocation.Lng)
	if err != nil {
		return respondError(c, err)
	}

	deliveryLocation, err := kernel.NewGeoPoint(request.DeliveryLocation.Lat, request.DeliveryLocation.Lng)
	if err != nil {
		return respondError(c, err)
	}

	var preferredVehicle *kernel.Vehicle
	if request.PreferredVehicle != nil {
		vehicle, vehicleErr := kernel.ParseVehicle(*request.PreferredVehicle)
		if vehicleErr != nil {
			return respondError(c, vehicleErr)
		}
		preferredVehicle = &vehicle
	}

	command, err := commands.NewCreateOrderCommand(
		actor.ID(),
		businessID,
		restaurantLocation,
		deliveryLocation,
		preferredVehicle,
	)
	if err != nil {
		return respondError(c, err)
	}

	if err = s.createOrderHandler.Handle(c.Request().Context(), command); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, CreateOrderResponse{ID: command.OrderID().String()})
}

// GetOrder handles GET /api/v1/orders/:id. Only participants of the order
// may read it: the customer, the business, the assigned agent, or an agent
// holding an open offer.
func (s *Server) GetOrder(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "authentication required",
		})
	}

	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return respondError(c, err)
	}

	row, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return respondError(c, err)
	}

	if !s.mayReadOrder(actor, row) {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "not a participant of this order",
		})
	}

	return c.JSON(http.StatusOK, orderResponseFromQuery(row))
}

// GetOrderLocation handles GET /api/v1/orders/:id/location. Serves the last
// known position of the assigned agent from the in-memory cache; subject to
// the same participant check as GetOrder.
func (s *Server) GetOrderLocation(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "authentication required",
		})
	}

	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return respondError(c, err)
	}

	row, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return respondError(c, err)
	}

	if !s.mayReadOrder(actor, row) {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "not a participant of this order",
		})
	}

	last, ok := s.locations.LastLocation(orderID)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "no location reported for this order",
		})
	}

	return c.JSON(http.StatusOK, OrderLocationResponse{
		OrderID: last.OrderID.String(),
		AgentID: last.AgentID.String(),
		Lat:     last.Lat,
		Lng:     last.Lng,
		At:      last.At,
	})
}

// ChangeOrderStatus handles PUT /api/v1/orders/:id/status. Customers and
// businesses drive the lifecycle here; agents report progress over the
// realtime connection or the same endpoint.
func (s *Server) ChangeOrderStatus(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "authentication required",
		})
	}

	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	var request ChangeOrderStatusRequest
	if err = c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	requested, err := order.ParseStatus(request.Status)
	if err != nil {
		return respondError(c, err)
	}

	command, err := commands.NewChangeOrderStatusCommand(orderID, requested, actor)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := s.changeOrderStatusHandler.Handle(c.Request().Context(), command)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromDomain(updated))
}

// AcceptOrder handles POST /api/v1/orders/:id/accept. First agent to accept
// wins; everyone else gets 409.
func (s *Server) AcceptOrder(c echo.Context) error {
	actor, ok := requireRole(c, order.RoleAgent)
	if !ok {
		return nil
	}

	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	command, err := commands.NewAcceptOrderCommand(orderID, actor.ID())
	if err != nil {
		return respondError(c, err)
	}

	assigned, err := s.acceptOrderHandler.Handle(c.Request().Context(), command)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromDomain(assigned))
}

// DeclineOrder handles POST /api/v1/orders/:id/decline. Declining is
// idempotent and never fails for business reasons.
func (s *Server) DeclineOrder(c echo.Context) error {
	actor, ok := requireRole(c, order.RoleAgent)
	if !ok {
		return nil
	}

	orderID, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	command, err := commands.NewDeclineOrderCommand(orderID, actor.ID())
	if err != nil {
		return respondError(c, err)
	}

	if err = s.declineOrderHandler.Handle(c.Request().Context(), command); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RegisterAgent handles POST /api/v1/agents. Registration is open and
// returns a token for the realtime connection.
func (s *Server) RegisterAgent(c echo.Context) error {
	var request RegisterAgentRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	vehicle, err := kernel.ParseVehicle(request.Vehicle)
	if err != nil {
		return respondError(c, err)
	}

	command, err := commands.NewRegisterAgentCommand(request.Name, vehicle)
	if err != nil {
		return respondError(c, err)
	}

	if err = s.registerAgentHandler.Handle(c.Request().Context(), command); err != nil {
		return respondError(c, err)
	}

	token, err := s.jwtService.GenerateToken(command.AgentID(), order.RoleAgent)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterAgentResponse{
		ID:    command.AgentID().String(),
		Token: token,
	})
}

// SetAvailability handles PUT /api/v1/agents/availability for the
// authenticated agent.
func (s *Server) SetAvailability(c echo.Context) error {
	actor, ok := requireRole(c, order.RoleAgent)
	if !ok {
		return nil
	}

	var request SetAvailabilityRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	command, err := commands.NewSetAgentAvailabilityCommand(actor.ID(), request.Available)
	if err != nil {
		return respondError(c, err)
	}

	if err = s.setAvailabilityHandler.Handle(c.Request().Context(), command); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ReportLocation handles POST /api/v1/agents/location. Stale reports are
// accepted with 202 but dropped, matching the realtime ping semantics.
func (s *Server) ReportLocation(c echo.Context) error {
	actor, ok := requireRole(c, order.RoleAgent)
	if !ok {
		return nil
	}

	var request ReportLocationRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	location, err := kernel.NewGeoPoint(request.Lat, request.Lng)
	if err != nil {
		return respondError(c, err)
	}

	var orderID *kernel.UUID
	if request.OrderID != "" {
		parsed, err := kernel.UUIDFromString(request.OrderID)
		if err != nil {
			return respondError(c, err)
		}
		orderID = &parsed
	}

	command, err := commands.NewReportLocationCommand(actor.ID(), orderID, location, request.Timestamp)
	if err != nil {
		return respondError(c, err)
	}

	if _, err = s.reportLocationHandler.Handle(c.Request().Context(), command); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusAccepted)
}

// GetAvailableAgents handles GET /api/v1/agents/available.
func (s *Server) GetAvailableAgents(c echo.Context) error {
	if _, ok := requireRole(c, order.RoleBusiness, order.RoleCustomer); !ok {
		return nil
	}

	query := queries.NewGetAvailableAgentsQuery()

	rows, err := s.getAvailableAgentsHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return respondError(c, err)
	}

	response := make([]AgentResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, agentResponseFromQuery(row))
	}

	return c.JSON(http.StatusOK, response)
}

func (s *Server) mayReadOrder(actor order.Actor, row queries.GetOrderQueryResponse) bool {
	switch actor.Role() {
	case order.RoleCustomer:
		return actor.ID().IsEqual(row.CustomerID)
	case order.RoleBusiness:
		return actor.ID().IsEqual(row.BusinessID)
	case order.RoleAgent:
		if row.AgentID != nil {
			return actor.ID().IsEqual(*row.AgentID)
		}
		return s.offerBoard.HasOffered(row.ID, actor.ID(), time.Now())
	case order.RoleUnknown:
	}

	return false
}
