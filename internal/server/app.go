package server

import (
	"github.com/servicehub/marketplace/internal/command"
	"github.com/servicehub/marketplace/internal/handler"
	"github.com/servicehub/marketplace/internal/payment"
	"github.com/servicehub/marketplace/internal/query"
	"github.com/servicehub/marketplace/internal/repository"
	"github.com/servicehub/marketplace/shared/auth"
	"github.com/servicehub/marketplace/shared/models"
	sharedredis "github.com/servicehub/marketplace/shared/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the infrastructure pieces the application is assembled from.
type Dependencies struct {
	DB           *gorm.DB
	Publisher    command.EventPublisher
	AccountCache sharedredis.Cache[models.AccountView]
	ServiceCache sharedredis.Cache[models.ServiceView]
	Gateway      payment.Gateway
	Hasher       auth.Hasher
	Tokens       *auth.TokenService
	Logger       *zap.Logger
}

// App holds the wired CQRS services and the HTTP handlers built on them.
type App struct {
	Tokens    *auth.TokenService
	Accounts  *command.AccountCommandService
	Projector *command.NotificationProjector

	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Catalog *handler.CatalogHandler
	Booking *handler.BookingHandler
	Payment *handler.PaymentHandler
	Review  *handler.ReviewHandler
	Admin   *handler.AdminHandler
	Inbox   *handler.InboxHandler
}

func NewApp(deps Dependencies, cookieSecure bool) *App {
	db, logger := deps.DB, deps.Logger

	// --- repositories (write store + read models) ---
	accounts := repository.NewAccountRepository(db)
	accountReads := repository.NewAccountReadRepository(accounts, deps.AccountCache)
	categories := repository.NewCategoryRepository(db)
	companies := repository.NewCompanyRepository(db)
	services := repository.NewServiceRepository(db)
	serviceReads := repository.NewServiceReadRepository(db, deps.ServiceCache)
	bookings := repository.NewBookingRepository(db)
	transactions := repository.NewTransactionRepository(db)
	reviews := repository.NewReviewRepository(db)
	disputes := repository.NewDisputeRepository(db)
	notifications := repository.NewNotificationRepository(db)
	tickets := repository.NewSupportRepository(db)
	dashboard := repository.NewDashboardRepository(db)

	// --- command side ---
	accountCmds := command.NewAccountCommandService(accounts, accountReads, deps.Hasher, logger)
	catalogCmds := command.NewCatalogCommandService(categories, companies, services, serviceReads, logger)
	bookingCmds := command.NewBookingCommandService(bookings, services, companies, deps.Publisher, logger)
	transactionCmds := command.NewTransactionCommandService(db, transactions, bookings, services, deps.Gateway, deps.Publisher, logger)
	reviewCmds := command.NewReviewCommandService(reviews, services, deps.Publisher, logger)
	disputeCmds := command.NewDisputeCommandService(disputes, services, deps.Publisher, logger)
	supportCmds := command.NewSupportCommandService(tickets, logger)

	// --- query side ---
	authQueries := query.NewAuthQueryService(accounts, deps.Hasher, deps.Tokens)
	accountQueries := query.NewAccountQueryService(accounts, accountReads)
	catalogQueries := query.NewCatalogQueryService(serviceReads, categories, companies)
	bookingQueries := query.NewBookingQueryService(bookings, services, companies)
	transactionQueries := query.NewTransactionQueryService(transactions)
	receiptQueries := query.NewReceiptQueryService(transactionQueries, bookings, serviceReads)
	reviewQueries := query.NewReviewQueryService(reviews)
	adminQueries := query.NewAdminQueryService(dashboard, disputes, tickets)
	notificationQueries := query.NewNotificationQueryService(notifications)

	return &App{
		Tokens:    deps.Tokens,
		Accounts:  accountCmds,
		Projector: command.NewNotificationProjector(notifications, logger),

		Auth:    handler.NewAuthHandler(accountCmds, authQueries, cookieSecure),
		Account: handler.NewAccountHandler(accountCmds, accountQueries),
		Catalog: handler.NewCatalogHandler(catalogCmds, catalogQueries),
		Booking: handler.NewBookingHandler(bookingCmds, bookingQueries),
		Payment: handler.NewPaymentHandler(transactionCmds, transactionQueries, receiptQueries),
		Review:  handler.NewReviewHandler(reviewCmds, reviewQueries),
		Admin:   handler.NewAdminHandler(adminQueries),
		Inbox:   handler.NewInboxHandler(disputeCmds, supportCmds, notificationQueries),
	}
}
