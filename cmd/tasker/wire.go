package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/tasker/internal/adapters/driven/broker/amqp"
	brokermemory "github.com/custodia-labs/tasker/internal/adapters/driven/broker/memory"
	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tasker/internal/adapters/driving/cli"
	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/core/services"
	"github.com/custodia-labs/tasker/internal/logger"
)

// newBootstrap returns the function the CLI uses to build services.
// SQLite data lives under home/data unless store.path says otherwise.
func newBootstrap(home string) cli.Bootstrap {
	return func(ctx context.Context, cfg domain.Config) (*cli.Runtime, error) {
		if cfg.Store.Driver == domain.StoreDriverSQLite && cfg.Store.Path == "" {
			cfg.Store.Path = filepath.Join(home, "data")
		}
		return buildRuntime(ctx, cfg)
	}
}

// buildRuntime opens the record store and broker selected by cfg and
// assembles the task service, publisher and optional consumer around them.
func buildRuntime(ctx context.Context, cfg domain.Config) (*cli.Runtime, error) {
	store, closeStore, err := openTaskStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	broker, err := openBroker(cfg.Broker)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	topology := domain.NewTopology(cfg.Broker.Exchange)
	publisher := services.NewEventPublisher(broker, topology)
	publisher.SetReconnectInterval(cfg.Broker.ReconnectInterval)

	rt := &cli.Runtime{
		Tasks:     services.NewTaskService(store, publisher),
		Publisher: publisher,
		Close:     closeStore,
	}

	if cfg.Consumer.Enabled {
		consumer := services.NewEventConsumer(broker, topology)
		consumer.SetRedeliveryPolicy(cfg.Consumer.Redelivery)
		consumer.SetReconnectInterval(cfg.Broker.ReconnectInterval)
		services.NewNotifier().Register(consumer)
		rt.Consumer = consumer
	}

	logger.Debug("[store] driver=%s [queue] driver=%s exchange=%s consumer=%t",
		cfg.Store.Driver, cfg.Broker.Driver, topology.Exchange, cfg.Consumer.Enabled)
	return rt, nil
}

func openTaskStore(ctx context.Context, cfg domain.StoreConfig) (driven.TaskStore, func() error, error) {
	switch cfg.Driver {
	case domain.StoreDriverSQLite:
		store, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store.TaskStore(), store.Close, nil
	case domain.StoreDriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store.TaskStore(), func() error {
			store.Close()
			return nil
		}, nil
	case domain.StoreDriverMemory:
		return memory.NewTaskStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}

func openBroker(cfg domain.BrokerConfig) (driven.Broker, error) {
	switch cfg.Driver {
	case domain.BrokerDriverAMQP:
		broker, err := amqp.NewBroker(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		return broker, nil
	case domain.BrokerDriverMemory:
		return brokermemory.NewBroker(), nil
	default:
		return nil, fmt.Errorf("%w: unknown broker driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}
