package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tasker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tasker/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NotNil(t, service)
	assert.NotNil(t, service.configStore)
}

func TestSettingsService_NilStore(t *testing.T) {
	service := NewSettingsService(nil)

	_, err := service.Get()
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
	assert.ErrorIs(t, service.Set(KeyHTTPAddr, ":1"), domain.ErrNotImplemented)
	assert.ErrorIs(t, service.Validate(), domain.ErrNotImplemented)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	cfg, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfig(), *cfg)
	assert.Equal(t, domain.DefaultConfig(), service.GetDefaults())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyHTTPAddr, ":8080")
	_ = store.Set(KeyStoreDriver, "postgres")
	_ = store.Set(KeyStoreURL, "postgres://localhost/tasks")
	_ = store.Set(KeyBrokerDriver, "memory")
	_ = store.Set(KeyBrokerExchange, "tasks.v2")
	_ = store.Set(KeyBrokerReconnectInterval, "0s")
	_ = store.Set(KeyConsumerEnabled, false)
	_ = store.Set(KeyConsumerRequeue, false)
	_ = store.Set(KeyConsumerRequeueDelay, "250ms")
	_ = store.Set(KeyLogVerbose, true)
	service := NewSettingsService(store)

	cfg, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, domain.StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/tasks", cfg.Store.URL)
	assert.Equal(t, domain.BrokerDriverMemory, cfg.Broker.Driver)
	assert.Equal(t, "tasks.v2", cfg.Broker.Exchange)
	assert.Equal(t, time.Duration(0), cfg.Broker.ReconnectInterval)
	assert.False(t, cfg.Consumer.Enabled)
	assert.False(t, cfg.Consumer.Redelivery.Requeue)
	assert.Equal(t, 250*time.Millisecond, cfg.Consumer.Redelivery.Delay)
	assert.True(t, cfg.Verbose)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyStoreDriver, "mongodb")
	_ = store.Set(KeyBrokerDriver, "kafka")
	_ = store.Set(KeyBrokerReconnectInterval, "soon")
	_ = store.Set(KeyConsumerRequeueDelay, "-1s")
	service := NewSettingsService(store)

	cfg, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultConfig()
	assert.Equal(t, defaults.Store.Driver, cfg.Store.Driver)
	assert.Equal(t, defaults.Broker.Driver, cfg.Broker.Driver)
	assert.Equal(t, defaults.Broker.ReconnectInterval, cfg.Broker.ReconnectInterval)
	assert.Equal(t, defaults.Consumer.Redelivery.Delay, cfg.Consumer.Redelivery.Delay)

	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{KeyHTTPAddr, ":9000", ":9000", false},
		{KeyStoreDriver, "sqlite", "sqlite", false},
		{KeyStoreDriver, "mysql", nil, true},
		{KeyBrokerDriver, "amqp", "amqp", false},
		{KeyBrokerDriver, "sqs", nil, true},
		{KeyBrokerReconnectInterval, "5s", "5s", false},
		{KeyBrokerReconnectInterval, "five", nil, true},
		{KeyConsumerRequeueDelay, "-1s", nil, true},
		{KeyConsumerEnabled, "false", false, false},
		{KeyLogVerbose, "yes", nil, true},
		{"search.mode", "hybrid", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)

			err := service.Set(tt.key, tt.value)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, ok := store.Get(tt.key)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			val, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, val)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	keys := service.Keys()

	assert.Len(t, keys, 12)
	assert.Equal(t, KeyHTTPAddr, keys[0])
	assert.Contains(t, keys, KeyConsumerRequeueDelay)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		assert.NoError(t, service.Validate())
	})

	t.Run("postgres needs a url", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set(KeyStoreDriver, "postgres")
		service := NewSettingsService(store)

		err := service.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), KeyStoreURL)
	})

	t.Run("set values round trip", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore())
		require.NoError(t, service.Set(KeyConsumerRequeue, "false"))
		require.NoError(t, service.Set(KeyBrokerReconnectInterval, "2s"))
		assert.NoError(t, service.Validate())

		cfg, err := service.Get()
		require.NoError(t, err)
		assert.False(t, cfg.Consumer.Redelivery.Requeue)
		assert.Equal(t, 2*time.Second, cfg.Broker.ReconnectInterval)
	})

	t.Run("durations in whole seconds", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set(KeyConsumerRequeueDelay, int64(3))
		service := NewSettingsService(store)
		assert.NoError(t, service.Validate())

		cfg, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, cfg.Consumer.Redelivery.Delay)
	})
}
