package injector

import (
	"time"

	"github.com/google/wire"
	"github.com/zeusync/citysim/internal/config"
	"github.com/zeusync/citysim/internal/core/events/bus"
	"github.com/zeusync/citysim/internal/core/observability/log"
	"github.com/zeusync/citysim/internal/server"
	"github.com/zeusync/citysim/internal/sim"
)

// ProviderSet builds everything the binary needs from a loaded config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	bus.New,
	ProvideSimulation,
	ProvideTelemetryServer,
	wire.Struct(new(App), "*"),
)

// App is the assembled process.
type App struct {
	Config    config.Config
	Logger    log.Log
	Sim       *sim.Simulation
	Telemetry *server.TelemetryServer
}

// ProvideLogger builds the root logger; cleanup flushes it.
func ProvideLogger(cfg config.Config) (log.Log, func()) {
	logger := log.New(log.ParseLevel(cfg.LogLevel))
	return logger, func() { _ = logger.Sync() }
}

func ProvideSimulation(cfg config.Config, logger log.Log, eventBus bus.EventBus) (*sim.Simulation, func(), error) {
	s, err := sim.New(cfg, logger, eventBus)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// ProvideTelemetryServer builds the telemetry server, reports the simulation's
// status on /healthz and forwards simulation lifecycle events to clients.
func ProvideTelemetryServer(cfg config.Config, logger log.Log, eventBus bus.EventBus, s *sim.Simulation) (*server.TelemetryServer, func(), error) {
	sc := server.DefaultConfig()
	sc.ListenAddr = cfg.Server.ListenAddr
	sc.MaxClients = cfg.Server.MaxClients
	sc.ClientBuffer = cfg.Server.ClientBuffer
	// One broadcast interval of slack per queued message.
	sc.WriteTimeout = max(sc.WriteTimeout, time.Duration(cfg.Server.ClientBuffer*cfg.Server.BroadcastEvery)*cfg.Frame.Interval())

	srv := server.NewTelemetryServer(sc, logger)
	srv.SetStatus(func() any { return s.Status() })

	var subs []bus.Subscription
	cleanup := func() {
		for _, sub := range subs {
			_ = eventBus.Unsubscribe(sub)
		}
		_ = srv.Close()
	}
	for _, eventType := range []string{sim.EventVehicleSpawned, sim.EventEngineToggled} {
		sub, err := eventBus.Subscribe(eventType, srv.Notify)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		subs = append(subs, sub)
	}
	return srv, cleanup, nil
}
