package cmd

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/adapters/in/ws"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/rabbitmq"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/auth"
	"dispatch/internal/realtime"

	httpin "dispatch/internal/adapters/in/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters, domain services and the realtime layer
// together. Command and query handlers are created per request through the
// Create* factory methods; the stateful singletons (offer board, realtime
// hub, websocket hub) live on the root itself.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	eligibility services.Eligibility
	offerBoard  *services.OfferBoard

	registry  *realtime.Registry
	locations *realtime.Hub
	notifier  *realtime.Notifier
	wsHub     *ws.Hub

	jwtService *auth.JWTService
	logger     *slog.Logger
}

// NewCompositionRoot builds the object graph. amqpConn may be nil, in which
// case status events stay inside the process and no broker sink is created.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	amqpConn *amqp.Connection,
	logger *slog.Logger,
) (*CompositionRoot, error) {
	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)

	eligibility, err := services.NewEligibility(config.WorkRadiusKm)
	if err != nil {
		return nil, err
	}
	offerBoard := services.NewOfferBoard()

	registry := realtime.NewRegistry()
	locations := realtime.NewHub(registry, logger)
	jwtService := auth.NewJWTService(config.JWTSecret, config.TokenTTL)

	policy := realtime.NewJoinPolicy(
		uowOrderLoader{factory: uowFactory},
		boardOfferChecker{board: offerBoard},
	)

	reportLocationHandler := commands.NewReportLocationCommandHandler(
		FuncAgentUoWFactory(func() commands.AgentUoW { return uowFactory.Create() }),
		locations,
	)
	wsHub := ws.NewHub(registry, policy, locations, reportLocationHandler, jwtService, logger)

	var sink realtime.OutboundSink
	if amqpConn != nil {
		s, err := rabbitmq.NewSink(amqpConn, config.AmqpExchange)
		if err != nil {
			return nil, err
		}
		sink = s
	}

	root := &CompositionRoot{
		config:      config,
		gormDB:      gormDB,
		uowFactory:  uowFactory,
		eligibility: eligibility,
		offerBoard:  offerBoard,
		registry:    registry,
		locations:   locations,
		notifier:    realtime.NewNotifier(registry, locations, wsHub, sink, logger, config.StatusTimeout),
		wsHub:       wsHub,
		jwtService:  jwtService,
		logger:      logger,
	}
	return root, nil
}

// WebSocketHub exposes the websocket entry point for route registration.
func (c *CompositionRoot) WebSocketHub() *ws.Hub {
	return c.wsHub
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.notifier)
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewChangeOrderStatusCommandHandler(f, c.offerBoard, c.notifier)
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() commands.AcceptOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAcceptOrderCommandHandler(f, c.offerBoard, c.notifier)
}

func (c *CompositionRoot) CreateDeclineOrderCommandHandler() commands.DeclineOrderCommandHandler {
	return commands.NewDeclineOrderCommandHandler(c.offerBoard)
}

func (c *CompositionRoot) CreateRegisterAgentCommandHandler() commands.RegisterAgentCommandHandler {
	var f commands.AgentUoWFactory = FuncAgentUoWFactory(func() commands.AgentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterAgentCommandHandler(f)
}

func (c *CompositionRoot) CreateSetAgentAvailabilityCommandHandler() commands.SetAgentAvailabilityCommandHandler {
	var f commands.AgentUoWFactory = FuncAgentUoWFactory(func() commands.AgentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSetAgentAvailabilityCommandHandler(f)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	var f commands.AgentUoWFactory = FuncAgentUoWFactory(func() commands.AgentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportLocationCommandHandler(f, c.locations)
}

func (c *CompositionRoot) CreateOfferOrdersCommandHandler() commands.OfferOrdersCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewOfferOrdersCommandHandler(f, c.eligibility, c.offerBoard, c.notifier, c.config.OfferTTL)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetAvailableAgentsQueryHandler() queries.GetAvailableAgentsQueryHandler {
	return queries.NewGetAvailableAgentsQueryHandler(c.gormDB)
}

// CreateHTTPServer assembles the REST adapter with all its handlers.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateChangeOrderStatusCommandHandler(),
		c.CreateAcceptOrderCommandHandler(),
		c.CreateDeclineOrderCommandHandler(),
		c.CreateRegisterAgentCommandHandler(),
		c.CreateSetAgentAvailabilityCommandHandler(),
		c.CreateReportLocationCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetAvailableAgentsQueryHandler(),
		c.offerBoard,
		c.locations,
		c.jwtService,
	)
}

// CreateJobManager assembles the scheduled background jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateOfferOrdersCommandHandler(), c.logger)
}

// uowOrderLoader adapts the unit of work factory to the join policy's
// read-only order lookup. No transaction is opened for a single read.
type uowOrderLoader struct {
	factory *postgres.GormUnitOfWorkFactory
}

func (l uowOrderLoader) Load(ctx context.Context, orderID kernel.UUID) (*order.Order, error) {
	return l.factory.Create().OrderRepository().Get(ctx, orderID)
}

// boardOfferChecker adapts the offer board to the join policy, pinning the
// expiry check to the current time.
type boardOfferChecker struct {
	board *services.OfferBoard
}

func (c boardOfferChecker) HasOffered(orderID kernel.UUID, agentID kernel.UUID) bool {
	return c.board.HasOffered(orderID, agentID, time.Now())
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncAgentUoWFactory func() commands.AgentUoW

func (f FuncAgentUoWFactory) Create() commands.AgentUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
