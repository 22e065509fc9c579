package httpapi

import (
	"context"
	"time"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/Freeeeeet/peer_tutoring/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Account, error)
	Login(ctx context.Context, in service.LoginInput) (string, *model.Account, error)
	Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error)
	UpdateProfile(ctx context.Context, actor model.Actor, in service.UpdateProfileInput) (*model.Account, error)
	ApplyAsTutor(ctx context.Context, actor model.Actor, in service.ApplyTutorInput) (*model.Account, error)
	ListTutors(ctx context.Context, actor model.Actor, search string) ([]*model.TutorListing, error)
}

type Connections interface {
	Request(ctx context.Context, actor model.Actor, in service.RequestConnectionInput) (*model.Connection, error)
	Decide(ctx context.Context, actor model.Actor, in service.DecideConnectionInput) (*model.Connection, error)
	List(ctx context.Context, actor model.Actor, status string) ([]*model.Connection, error)
}

type Bookings interface {
	Create(ctx context.Context, actor model.Actor, in service.CreateBookingInput) ([]*model.Booking, error)
	List(ctx context.Context, actor model.Actor, status string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, in service.UpdateBookingStatusInput) (*model.Booking, error)
	WeekImage(ctx context.Context, actor model.Actor, weekOf time.Time) ([]byte, error)
}

type Conversations interface {
	Inbox(ctx context.Context, actor model.Actor) ([]model.Conversation, error)
	Thread(ctx context.Context, actor model.Actor, id uuid.UUID, kind string) ([]*model.Message, error)
	Send(ctx context.Context, actor model.Actor, in service.SendMessageInput) (*model.Message, error)
	MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID, kind string) (int64, error)
}

type Analytics interface {
	MyStudents(ctx context.Context, actor model.Actor, search string) ([]*model.StudentEngagement, error)
}

// Deps зависимости HTTP слоя
type Deps struct {
	Tokens        TokenParser
	Accounts      Accounts
	Connections   Connections
	Bookings      Bookings
	Conversations Conversations
	Analytics     Analytics
	Logger        *zap.Logger
}

// NewRouter собирает fiber-приложение со всеми маршрутами
func NewRouter(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "peer-tutoring",
		ErrorHandler: errorHandler,
	})
	app.Use(PrometheusMiddleware())
	app.Use(RequestLogger(d.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	accounts := &accountHandler{accounts: d.Accounts, analytics: d.Analytics}
	connections := &connectionHandler{connections: d.Connections}
	bookings := &bookingHandler{bookings: d.Bookings}
	messages := &messageHandler{conversations: d.Conversations}

	requireActor := RequireActor(d.Tokens)
	api := app.Group("/api")

	api.Post("/auth/register", accounts.Register)
	api.Post("/auth/login", accounts.Login)
	api.Get("/tutors", OptionalActor(d.Tokens), accounts.ListTutors)

	users := api.Group("/users", requireActor)
	users.Get("/me", accounts.Dashboard)
	users.Patch("/me", accounts.UpdateProfile)

	tutor := api.Group("/tutor", requireActor)
	tutor.Post("/apply", accounts.ApplyAsTutor)
	tutor.Get("/students", accounts.MyStudents)

	conns := api.Group("/connections", requireActor)
	conns.Post("/", connections.Request)
	conns.Patch("/", connections.Decide)
	conns.Get("/", connections.List)

	books := api.Group("/bookings", requireActor)
	books.Get("/", bookings.List)
	books.Post("/", bookings.Create)
	books.Get("/week.png", bookings.WeekImage)
	books.Patch("/:id", bookings.UpdateStatus)

	msgs := api.Group("/messages", requireActor)
	msgs.Get("/", messages.Inbox)
	msgs.Post("/", messages.Send)
	msgs.Get("/:id", messages.Thread)
	msgs.Post("/:id/read", messages.MarkRead)

	return app
}
