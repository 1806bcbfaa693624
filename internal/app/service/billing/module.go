package billing

import (
	"go.uber.org/fx"

	"github.com/plannerhub/marketplace/internal/platform/paypal"
	cfgpkg "github.com/plannerhub/marketplace/pkg/config"
)

// NewProvider builds the payment-provider client from configuration.
func NewProvider(cfg *cfgpkg.Config) (Provider, error) {
	return paypal.NewClient(&paypal.Options{
		ClientID: cfg.PayPal.ClientID,
		Secret:   cfg.PayPal.Secret,
		Sandbox:  cfg.PayPal.Sandbox,
	})
}

var Module = fx.Options(
	fx.Provide(NewProvider),
	fx.Provide(NewService),
)
