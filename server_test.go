package netbind_test

import (
	"context"
	"net"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	netbind "github.com/dep2p/go-netbind"
	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/binding"
	"github.com/dep2p/go-netbind/internal/core/capability"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/tests/testutil"
)

func newServer(t *testing.T, opts ...netbind.Option) *netbind.Server {
	t.Helper()
	srv, err := netbind.New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// ============================================================================
//                              生命周期
// ============================================================================

func TestServer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	assert.Equal(t, netbind.StateIdle, srv.State())
	assert.ErrorIs(t, srv.Stop(ctx), netbind.ErrNotStarted)

	require.NoError(t, srv.Start(ctx))
	assert.Equal(t, netbind.StateRunning, srv.State())
	assert.True(t, srv.IsRunning())
	assert.ErrorIs(t, srv.Start(ctx), netbind.ErrAlreadyStarted)

	require.NoError(t, srv.Stop(ctx))
	assert.Equal(t, netbind.StateStopped, srv.State())
	assert.ErrorIs(t, srv.Start(ctx), netbind.ErrServerStopped)

	require.NoError(t, srv.Close())
	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(ctx), netbind.ErrServerClosed)
	assert.ErrorIs(t, srv.Stop(ctx), netbind.ErrServerClosed)
}

func TestServer_StartOpensConfiguredBindings(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t,
		netbind.WithConfig(testutil.LoopbackConfig(
			testutil.TCPBinding("http"),
			testutil.UDPBinding("dns"),
		)),
	)
	require.NoError(t, srv.Start(ctx))

	assert.Len(t, srv.OpenedBindings(), 2)
	assert.Equal(t, 2, srv.NamedRegistry().Len())

	httpBinding, err := srv.Lookup("http")
	require.NoError(t, err)
	ln, ok := httpBinding.(net.Listener)
	require.True(t, ok, "TCP 绑定应实现 net.Listener")
	assert.Equal(t, httpBinding.BindAddress().String(), ln.Addr().String())
	assert.NotZero(t, httpBinding.BindAddress().Port())

	dnsBinding, err := srv.Lookup("dns")
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), dnsBinding.BindAddress().Addr())

	// 能力发布是异步的
	caps := srv.Capabilities()
	testutil.Eventually(t, 2*time.Second, func() bool {
		return len(caps.Records(capability.SocketBindingCapabilityName)) == 2
	}, "应该发布两个套接字绑定能力")

	rec, ok := caps.Record(capability.SocketBindingCapabilityName + ".http")
	require.True(t, ok)
	value, ok := rec.Value.(pkgif.SocketBindingRecord)
	require.True(t, ok)
	assert.Equal(t, httpBinding.BindAddress(), value.Address)
	assert.Equal(t, pkgif.TransportTCP, value.Transport)

	_, ok = caps.Record(capability.InterfaceCapabilityName + ".public")
	assert.True(t, ok, "启动时应发布接口能力")
	require.Len(t, srv.Interfaces(), 1)
	assert.Equal(t, "public", srv.Interfaces()[0].Name)
}

func TestServer_StopDrainsAllBindings(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t, netbind.WithConfig(testutil.LoopbackConfig(testutil.TCPBinding("http"))))
	require.NoError(t, srv.Start(ctx))

	// 运行期间动态创建的绑定同样被排空
	dyn, err := srv.Manager().CreateDatagramSocket("dynamic", testutil.LoopbackAny)
	require.NoError(t, err)
	unnamed, err := srv.Manager().CreateServerSocket("", testutil.LoopbackAny)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.NamedRegistry().Len())
	assert.Equal(t, 1, srv.UnnamedRegistry().Len())

	require.NoError(t, srv.Stop(ctx))

	assert.Equal(t, 0, srv.NamedRegistry().Len())
	assert.Equal(t, 0, srv.UnnamedRegistry().Len())
	assert.True(t, dyn.IsClosed())
	assert.True(t, unnamed.IsClosed())
	assert.Empty(t, srv.OpenedBindings())

	_, err = srv.Manager().CreateDatagramSocket("late", testutil.LoopbackAny)
	assert.ErrorIs(t, err, netbind.ErrManagerClosed)
}

// 停止前交出的未绑定套接字在停止后不能再绑定
func TestServer_StopClosesUnboundSockets(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	require.NoError(t, srv.Start(ctx))

	pending, err := srv.Manager().CreateUnboundDatagramSocket("pending")
	require.NoError(t, err)

	require.NoError(t, srv.Stop(ctx))

	assert.ErrorIs(t, pending.Bind(testutil.LoopbackAny), netbind.ErrSocketClosed)
	assert.Equal(t, 0, srv.NamedRegistry().Len())
	_, err = srv.Lookup("pending")
	assert.ErrorIs(t, err, netbind.ErrBindingNotFound)

	// 注册表本身也已拒绝新注册
	stray, err := binding.NewManagedDatagramSocketBinding("stray", srv.NamedRegistry(), testutil.LoopbackAny)
	assert.ErrorIs(t, err, netbind.ErrRegistryClosed)
	assert.Nil(t, stray)
}

func TestServer_StartFailsAtomicallyOnBindConflict(t *testing.T) {
	occupied, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	srv := newServer(t, netbind.WithConfig(testutil.LoopbackConfig(
		testutil.UDPBinding("free"),
		config.SocketBindingConfig{Name: "taken", Port: port, Transport: config.TransportTCP},
	)))

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, netbind.ErrBindFailed)
	assert.True(t, netbind.IsAddressInUse(err))

	var bindErr *netbind.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "taken", bindErr.Name)

	assert.Equal(t, netbind.StateStopped, srv.State())
	assert.Equal(t, 0, srv.NamedRegistry().Len())
}

// ============================================================================
//                              选项
// ============================================================================

func TestNew_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := netbind.New(ctx, netbind.WithConfig(nil))
	assert.Error(t, err)

	_, err = netbind.New(ctx, netbind.WithLogLevel("loud"))
	assert.Error(t, err)

	_, err = netbind.New(ctx, netbind.WithMetricsRegisterer(nil))
	assert.Error(t, err)

	_, err = netbind.New(ctx, netbind.WithClock(nil))
	assert.Error(t, err)

	_, err = netbind.New(ctx, netbind.WithPortOffset(-1))
	assert.ErrorIs(t, err, netbind.ErrInvalidConfig)

	_, err = netbind.New(ctx, netbind.WithSocketBinding(config.SocketBindingConfig{
		Name: "x", Interface: "missing", Transport: config.TransportTCP,
	}))
	assert.ErrorIs(t, err, netbind.ErrInvalidConfig)

	_, err = netbind.New(ctx, netbind.WithConfigFile(filepath.Join(t.TempDir(), "absent.json")))
	assert.Error(t, err)
}

func TestNew_WithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netbind.json")
	cfg := testutil.LoopbackConfig(testutil.UDPBinding("syslog"))
	require.NoError(t, config.SaveFile(cfg, path))

	srv := newServer(t,
		netbind.WithConfigFile(path),
		netbind.WithInterface(config.InterfaceConfig{Name: "management", Loopback: true}),
	)

	got := srv.Config()
	_, ok := got.SocketBindings.Binding("syslog")
	assert.True(t, ok)
	_, ok = got.Interface("management")
	assert.True(t, ok)

	require.NoError(t, srv.Start(context.Background()))
	_, err := srv.Lookup("syslog")
	assert.NoError(t, err)
}

func TestServer_PortOffsetAndDefaultInterface(t *testing.T) {
	srv := newServer(t,
		netbind.WithInterface(config.InterfaceConfig{Name: "management", InetAddress: "127.0.0.1"}),
		netbind.WithDefaultInterface("management"),
		netbind.WithPortOffset(150),
	)

	m := srv.Manager()
	assert.Equal(t, 150, m.PortOffset())
	assert.Equal(t, "management", m.DefaultInterface())
}

func TestServer_WithClockStampsRegistrations(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	srv := newServer(t,
		netbind.WithClock(mock),
		netbind.WithConfig(testutil.LoopbackConfig(testutil.TCPBinding("http"))),
	)
	require.NoError(t, srv.Start(context.Background()))

	entries := srv.NamedRegistry().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].Name)
	assert.True(t, entries[0].RegisteredAt.Equal(mock.Now()))
	assert.NotEmpty(t, entries[0].RegistrationID)
}

func TestServer_MetricsRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := newServer(t,
		netbind.WithMetricsRegisterer(reg),
		netbind.WithConfig(testutil.LoopbackConfig(testutil.TCPBinding("http"), testutil.UDPBinding("dns"))),
	)
	assert.Same(t, reg, srv.Gatherer())

	require.NoError(t, srv.Start(context.Background()))

	expected := `
# HELP netbind_bindings_active Number of socket bindings currently registered.
# TYPE netbind_bindings_active gauge
netbind_bindings_active{registry="named"} 2
`
	err := promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "netbind_bindings_active")
	assert.NoError(t, err)
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := newServer(t, netbind.WithMetrics(false))
	require.NoError(t, srv.Start(context.Background()))

	families, err := srv.Gatherer().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestServer_WithFxOptions(t *testing.T) {
	var injected *binding.Manager
	srv := newServer(t, netbind.WithFxOptions(fx.Invoke(func(m *binding.Manager) {
		injected = m
	})))
	assert.Same(t, srv.Manager(), injected)
}

func TestServer_EventBusDeliversRegistrations(t *testing.T) {
	srv := newServer(t)
	require.NoError(t, srv.Start(context.Background()))

	sub, err := srv.EventBus().Subscribe(new(pkgif.EvtBindingRegistered))
	require.NoError(t, err)
	defer sub.Close()

	b, err := srv.Manager().CreateDatagramSocket("events", testutil.LoopbackAny)
	require.NoError(t, err)

	evt := testutil.WaitForEvent(t, sub, 2*time.Second)
	registered, ok := evt.(pkgif.EvtBindingRegistered)
	require.True(t, ok)
	assert.Equal(t, "events", registered.Name)
	assert.Equal(t, b.BindAddress(), registered.Address)
}

func TestStart_Convenience(t *testing.T) {
	srv, err := netbind.Start(context.Background(), netbind.WithLogLevel("warn"))
	require.NoError(t, err)
	defer srv.Close()
	assert.True(t, srv.IsRunning())
}

func TestServerState_String(t *testing.T) {
	assert.Equal(t, "idle", netbind.StateIdle.String())
	assert.Equal(t, "running", netbind.StateRunning.String())
	assert.Equal(t, "stopped", netbind.StateStopped.String())
	assert.Equal(t, "unknown", netbind.ServerState(42).String())
}

func TestVersionInfo(t *testing.T) {
	assert.True(t, strings.HasPrefix(netbind.VersionInfo(), "go-netbind "+netbind.Version))
}
