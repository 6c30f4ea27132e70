package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/tasker/internal/core/domain"
	"github.com/custodia-labs/tasker/internal/core/ports/driven"
	"github.com/custodia-labs/tasker/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyHTTPAddr                = "http.addr"
	KeyStoreDriver             = "store.driver"
	KeyStorePath               = "store.path"
	KeyStoreURL                = "store.url"
	KeyBrokerDriver            = "broker.driver"
	KeyBrokerURL               = "broker.url"
	KeyBrokerExchange          = "broker.exchange"
	KeyBrokerReconnectInterval = "broker.reconnect_interval"
	KeyConsumerEnabled         = "consumer.enabled"
	KeyConsumerRequeue         = "consumer.requeue"
	KeyConsumerRequeueDelay    = "consumer.requeue_delay"
	KeyLogVerbose              = "log.verbose"
)

type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindDuration
	kindStoreDriver
	kindBrokerDriver
)

var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{KeyHTTPAddr, kindString},
	{KeyStoreDriver, kindStoreDriver},
	{KeyStorePath, kindString},
	{KeyStoreURL, kindString},
	{KeyBrokerDriver, kindBrokerDriver},
	{KeyBrokerURL, kindString},
	{KeyBrokerExchange, kindString},
	{KeyBrokerReconnectInterval, kindDuration},
	{KeyConsumerEnabled, kindBool},
	{KeyConsumerRequeue, kindBool},
	{KeyConsumerRequeueDelay, kindDuration},
	{KeyLogVerbose, kindBool},
}

// SettingsService reads and writes the tasker configuration.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get builds the configuration from the store. Unset or malformed values
// fall back to their defaults; Validate reports them.
func (s *SettingsService) Get() (*domain.Config, error) {
	if s.configStore == nil {
		return nil, domain.ErrNotImplemented
	}
	defaults := domain.DefaultConfig()

	cfg := &domain.Config{
		HTTP: domain.HTTPConfig{
			Addr: s.getString(KeyHTTPAddr, defaults.HTTP.Addr),
		},
		Store: domain.StoreConfig{
			Driver: s.getStoreDriver(defaults.Store.Driver),
			Path:   s.configStore.GetString(KeyStorePath),
			URL:    s.configStore.GetString(KeyStoreURL),
		},
		Broker: domain.BrokerConfig{
			Driver:            s.getBrokerDriver(defaults.Broker.Driver),
			URL:               s.getString(KeyBrokerURL, defaults.Broker.URL),
			Exchange:          s.getString(KeyBrokerExchange, defaults.Broker.Exchange),
			ReconnectInterval: s.getDuration(KeyBrokerReconnectInterval, defaults.Broker.ReconnectInterval),
		},
		Consumer: domain.ConsumerConfig{
			Enabled: s.getBool(KeyConsumerEnabled, defaults.Consumer.Enabled),
			Redelivery: domain.RedeliveryPolicy{
				Requeue: s.getBool(KeyConsumerRequeue, defaults.Consumer.Redelivery.Requeue),
				Delay:   s.getDuration(KeyConsumerRequeueDelay, defaults.Consumer.Redelivery.Delay),
			},
		},
		Verbose: s.getBool(KeyLogVerbose, defaults.Verbose),
	}
	return cfg, nil
}

// Set parses value according to the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	for _, k := range settingKeys {
		if k.key != key {
			continue
		}
		parsed, err := parseSetting(k.kind, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		return s.configStore.Set(key, parsed)
	}
	return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
}

// Keys returns every recognised key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Validate checks every stored value and the cross-key requirements.
func (s *SettingsService) Validate() error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	var errs []error
	for _, k := range settingKeys {
		raw, ok := s.configStore.Get(k.key)
		if !ok {
			continue
		}
		if k.kind == kindDuration {
			if d, ok := s.configStore.GetDuration(k.key); !ok || d < 0 {
				errs = append(errs, fmt.Errorf("%s: invalid duration %v", k.key, raw))
			}
			continue
		}
		if _, err := parseSetting(k.kind, fmt.Sprint(raw)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k.key, err))
		}
	}

	cfg, err := s.Get()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == domain.StoreDriverPostgres && cfg.Store.URL == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is postgres", KeyStoreURL, KeyStoreDriver))
	}
	if cfg.Broker.Driver == domain.BrokerDriverAMQP && cfg.Broker.URL == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is amqp", KeyBrokerURL, KeyBrokerDriver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// GetDefaults returns the built-in configuration.
func (s *SettingsService) GetDefaults() domain.Config {
	return domain.DefaultConfig()
}

func parseSetting(kind keyKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, errors.New("duration must not be negative")
		}
		return value, nil
	case kindStoreDriver:
		if !domain.StoreDriver(value).IsValid() {
			return nil, fmt.Errorf("unknown store driver %q", value)
		}
		return value, nil
	case kindBrokerDriver:
		if !domain.BrokerDriver(value).IsValid() {
			return nil, fmt.Errorf("unknown broker driver %q", value)
		}
		return value, nil
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, ok := s.configStore.GetDuration(key)
	if !ok || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStoreDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	driver := domain.StoreDriver(s.configStore.GetString(KeyStoreDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}

func (s *SettingsService) getBrokerDriver(defaultVal domain.BrokerDriver) domain.BrokerDriver {
	driver := domain.BrokerDriver(s.configStore.GetString(KeyBrokerDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}
