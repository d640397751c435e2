package handler

import (
	"sync"

	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/service"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handler defines Handler layer.
type Handler struct {
	config  config.Config
	logger  *jsonlog.Logger
	clients *ttlcache.Cache[string, *rate.Limiter]
	mu      sync.Mutex
	service service.Service
}

// New creates a new instance of Handler. clients holds the per-IP rate limiters;
// its TTL decides how long an idle client keeps its limiter.
func New(cfg config.Config, logger *jsonlog.Logger, clients *ttlcache.Cache[string, *rate.Limiter], service service.Service) *Handler {
	return &Handler{
		config:  cfg,
		logger:  logger,
		clients: clients,
		service: service,
	}
}
