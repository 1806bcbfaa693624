package app

import (
	"time"

	"github.com/plannerhub/marketplace/internal/app/api/server"
	"github.com/plannerhub/marketplace/internal/app/service/actor"
	"github.com/plannerhub/marketplace/internal/app/service/billing"
	"github.com/plannerhub/marketplace/internal/app/service/budget"
	"github.com/plannerhub/marketplace/internal/app/service/invoice"
	"github.com/plannerhub/marketplace/internal/app/service/message"
	"github.com/plannerhub/marketplace/internal/app/service/request"
	"github.com/plannerhub/marketplace/internal/app/service/statistics"
	"github.com/plannerhub/marketplace/internal/app/service/subscription"
	"github.com/plannerhub/marketplace/internal/app/service/task"
	"github.com/plannerhub/marketplace/internal/app/service/webhookhandler"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/internal/platform/db"
	"github.com/plannerhub/marketplace/pkg/config"
	"github.com/plannerhub/marketplace/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	actor.Module,
	subscription.Module,
	billing.Module,
	webhooklog.Module,
	webhookhandler.Module,
	request.Module,
	invoice.Module,
	task.Module,
	budget.Module,
	message.Module,
	statistics.Module,
)
