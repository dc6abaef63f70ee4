package handlers

import (
	"opsboard-services/internal/config"
	"opsboard-services/internal/mailer"
	"opsboard-services/internal/services"

	"go.uber.org/zap"
)

type Handler struct {
	Service *services.Service
	Mailer  mailer.Sender
	Logger  *zap.Logger
	Config  config.Config
}
