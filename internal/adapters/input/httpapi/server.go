package httpapi

import (
	"time"

	"task-wallet/internal/config"
	"task-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SourceReconfigurer lets the settings handler apply edited source settings
// to the live task source client.
type SourceReconfigurer interface {
	Configure(cfg config.SourceConfig)
}

// TTLSetter lets the settings handler apply an edited cache expiry window.
type TTLSetter interface {
	SetTTL(ttl time.Duration)
}

type Server struct {
	tasks  ports.TaskUseCases
	ledger ports.LedgerUseCases
	auth   ports.Authenticator
	cfg    *config.Config
	source SourceReconfigurer
	cache  TTLSetter
	log    *zap.Logger
}

func NewServer(
	tasks ports.TaskUseCases,
	ledger ports.LedgerUseCases,
	auth ports.Authenticator,
	cfg *config.Config,
	source SourceReconfigurer,
	cache TTLSetter,
	log *zap.Logger,
) *Server {
	if tasks == nil {
		log.Fatal("task usecases is nil")
	}
	if ledger == nil {
		log.Fatal("ledger usecases is nil")
	}
	if auth == nil {
		log.Fatal("authenticator is nil")
	}
	if cfg == nil {
		log.Fatal("config is nil")
	}
	if log == nil {
		panic("logger is nil")
	}
	return &Server{
		tasks:  tasks,
		ledger: ledger,
		auth:   auth,
		cfg:    cfg,
		source: source,
		cache:  cache,
		log:    log,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/tasks/:category", s.listTasks)
		v1.POST("/tasks/:category/:taskId/submit", s.submitTask)

		v1.GET("/wallet/:userId", s.getBalance)
		v1.GET("/wallet/:userId/transactions", s.listTransactions)
		v1.POST("/wallet/:userId/withdraw", s.withdraw)

		v1.POST("/auth/login", s.login)
		v1.POST("/auth/signup", s.signup)
		v1.POST("/auth/logout", s.logout)
		v1.POST("/auth/recover", s.recoverPassword)

		v1.GET("/settings", s.getSettings)
		v1.PUT("/settings", s.updateSettings)
	}

	return router
}
