package handlers

import (
	"github.com/plannerhub/marketplace/internal/app/service/statistics"
	"github.com/plannerhub/marketplace/internal/app/service/webhooklog"
	"github.com/plannerhub/marketplace/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespMarketplaceStatistic wraps MarketplaceStatisticResponse in the standard envelope.
type RespMarketplaceStatistic struct {
	Code    response.APIResponseCode                 `json:"code"`
	Message string                                   `json:"message"`
	Data    statistics.MarketplaceStatisticResponse `json:"data"`
}

// RespListWebhookEvents wraps webhooklog.ScanResponse in the standard envelope.
type RespListWebhookEvents struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    webhooklog.ScanResponse  `json:"data"`
}
