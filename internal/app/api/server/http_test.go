package server

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	cfgpkg "github.com/plannerhub/marketplace/pkg/config"
)

// A graceful fx stop makes ListenAndServe return http.ErrServerClosed; the
// serve goroutine must not treat that as a crash.
func TestRunServer_GracefulStop(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &cfgpkg.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	lc := fxtest.NewLifecycle(t)
	runServer(lc, zap.NewNop().Sugar(), cfg, gin.New())

	lc.RequireStart()
	time.Sleep(50 * time.Millisecond)
	lc.RequireStop()
	// Give the serve goroutine time to observe the shutdown; a panic there
	// would take the test binary down.
	time.Sleep(50 * time.Millisecond)
}
