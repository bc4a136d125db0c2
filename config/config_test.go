package config

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	iface, ok := cfg.Interface("public")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", iface.InetAddress)
	assert.Equal(t, "public", cfg.SocketBindings.DefaultInterface)
	assert.True(t, cfg.Registry.DrainOnStop)
	assert.Equal(t, 10*time.Second, cfg.Registry.ShutdownTimeout.Duration())
}

func TestInterfaceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     InterfaceConfig
		wantErr bool
	}{
		{"inet address", InterfaceConfig{Name: "a", InetAddress: "10.0.0.1"}, false},
		{"any address ipv6", InterfaceConfig{Name: "a", AnyAddress: true, Family: FamilyIPv6}, false},
		{"loopback", InterfaceConfig{Name: "a", Loopback: true}, false},
		{"nic", InterfaceConfig{Name: "a", NIC: "eth0"}, false},
		{"missing name", InterfaceConfig{InetAddress: "10.0.0.1"}, true},
		{"no criteria", InterfaceConfig{Name: "a"}, true},
		{"two criteria", InterfaceConfig{Name: "a", Loopback: true, AnyAddress: true}, true},
		{"bad address", InterfaceConfig{Name: "a", InetAddress: "not-an-ip"}, true},
		{"bad family", InterfaceConfig{Name: "a", Loopback: true, Family: "ipx"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSocketBindingGroupConfig(t *testing.T) {
	t.Run("EffectivePort", func(t *testing.T) {
		g := DefaultSocketBindingGroupConfig().WithPortOffset(100)
		assert.Equal(t, 8180, g.EffectivePort(SocketBindingConfig{Port: 8080}))
		assert.Equal(t, 8080, g.EffectivePort(SocketBindingConfig{Port: 8080, FixedPort: true}))
		assert.Equal(t, 0, g.EffectivePort(SocketBindingConfig{Port: 0}))
	})

	t.Run("WithBindingReplaces", func(t *testing.T) {
		g := DefaultSocketBindingGroupConfig().
			WithBinding(SocketBindingConfig{Name: "http", Port: 8080, Transport: TransportTCP}).
			WithBinding(SocketBindingConfig{Name: "http", Port: 8081, Transport: TransportTCP})
		require.Len(t, g.Bindings, 1)
		assert.Equal(t, 8081, g.Bindings[0].Port)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		g := DefaultSocketBindingGroupConfig()
		g.Bindings = []SocketBindingConfig{
			{Name: "dns", Port: 53, Transport: TransportUDP},
			{Name: "dns", Port: 54, Transport: TransportUDP},
		}
		assert.ErrorIs(t, g.Validate(), ErrInvalidConfig)
	})

	t.Run("OffsetOverflow", func(t *testing.T) {
		g := DefaultSocketBindingGroupConfig().
			WithPortOffset(10).
			WithBinding(SocketBindingConfig{Name: "x", Port: 65530, Transport: TransportTCP})
		assert.ErrorIs(t, g.Validate(), ErrInvalidConfig)
	})

	t.Run("BadTransport", func(t *testing.T) {
		err := SocketBindingConfig{Name: "x", Port: 1, Transport: "sctp"}.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_ValidateUnknownInterface(t *testing.T) {
	cfg := NewConfig()
	cfg.SocketBindings = cfg.SocketBindings.WithBinding(SocketBindingConfig{
		Name:      "mgmt",
		Interface: "management",
		Port:      9990,
		Transport: TransportTCP,
	})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.WithInterface(InterfaceConfig{Name: "management", Loopback: true})
	assert.NoError(t, cfg.Validate())
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"interfaces": [{"name": "public", "any_address": true}],
		"socket_bindings": {
			"default_interface": "public",
			"port_offset": 100,
			"bindings": [{"name": "http", "port": 8080, "transport": "tcp"}]
		},
		"registry": {"drain_on_stop": true, "shutdown_timeout": "3s"}
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Interfaces[0].AnyAddress)
	assert.Equal(t, 100, cfg.SocketBindings.PortOffset)
	assert.Equal(t, 3*time.Second, cfg.Registry.ShutdownTimeout.Duration())
	// 未出现的字段保留默认值
	assert.Equal(t, "netbind", cfg.Metrics.Namespace)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netbind.json")

	cfg := NewConfig()
	cfg.SocketBindings = cfg.SocketBindings.WithBinding(SocketBindingConfig{
		Name: "dns", Port: 5353, Transport: TransportUDP,
	})
	require.NoError(t, SaveFile(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}

func TestCloneConfig(t *testing.T) {
	cfg := NewConfig()
	clone := CloneConfig(cfg)
	clone.Interfaces[0].InetAddress = "10.0.0.1"
	assert.Equal(t, "127.0.0.1", cfg.Interfaces[0].InetAddress)
	assert.Nil(t, CloneConfig(nil))
}
