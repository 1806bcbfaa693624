package webhookhandler

import (
	"go.uber.org/fx"

	"github.com/plannerhub/marketplace/internal/app/service/billing"
)

// NewVerifier narrows the billing provider to the signature-verification
// call. The same provider client serves both concerns.
func NewVerifier(p billing.Provider) SignatureVerifier {
	if v, ok := p.(SignatureVerifier); ok {
		return v
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewVerifier),
	fx.Provide(NewHandler),
)
