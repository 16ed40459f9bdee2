package service

import (
	"github.com/ganarapp/sorteo/internal/repository"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
	"github.com/ganarapp/sorteo/internal/service/access"
	"github.com/ganarapp/sorteo/internal/service/draw"
	"github.com/ganarapp/sorteo/internal/service/reconcile"
	"github.com/ganarapp/sorteo/internal/service/registry"
	"github.com/ganarapp/sorteo/internal/service/settings"
	"github.com/ganarapp/sorteo/internal/service/wallet"
)

type Services struct {
	Registry  *registry.Service
	Wallet    *wallet.Service
	Reconcile *reconcile.Service
	Draw      *draw.Service
	Access    *access.Service
	Settings  *settings.Service
}

type Config struct {
	Registry registry.Config
}

func NewServices(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.TicketsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	codes *redisrepo.AccessCodeStore,
	cfg Config,
) *Services {
	return &Services{
		Registry:  registry.New(store, pubsub, limiter, cfg.Registry),
		Wallet:    wallet.New(store, cache, pubsub),
		Reconcile: reconcile.New(store, cache, pubsub),
		Draw:      draw.New(store),
		Access:    access.New(codes),
		Settings:  settings.New(store, cache),
	}
}
