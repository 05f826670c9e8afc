package app

import (
	"context"
	"fmt"

	"multibagger/config"
	"multibagger/internal/events"
	"multibagger/internal/settings"
	"multibagger/repository"
	"multibagger/services"
)

// Wire connects a Dashboard to the real agent, scheduler, history backend,
// preferences file and, when brokers are configured, Kafka.
func Wire(ctx context.Context, cfg *config.Config) (*Dashboard, error) {
	breakers := services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig)

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	prefs, err := settings.NewStore(cfg.Settings.DataDir, cfg.Settings.Passphrase)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.HasKafka() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	agent := services.NewAgentClient(cfg.Agent.BaseURL, cfg.Agent.APIKey, cfg.AgentTimeout(),
		services.WithAgentBreakers(breakers))
	scheduler := services.NewScheduleClient(cfg.Schedule.BaseURL, cfg.Schedule.APIKey, cfg.ScheduleTimeout(), breakers)

	d := New(cfg, Deps{
		Agent:       agent,
		Scheduler:   scheduler,
		Store:       store,
		Publisher:   publisher,
		Preferences: prefs,
		Breakers:    breakers,
	})
	d.Startup(ctx)

	logStartup(cfg, store.Backend(), cfg.HasKafka())
	return d, nil
}
