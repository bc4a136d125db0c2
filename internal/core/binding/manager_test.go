package binding

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/netif"
	"github.com/dep2p/go-netbind/internal/core/registry"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/tests/mocks"
)

func loopbackInterfaces() *netif.InterfaceSet {
	return netif.NewInterfaceSet(&netif.NetworkInterfaceBinding{
		Name:    "public",
		Address: netip.MustParseAddr("127.0.0.1"),
	})
}

func newTestManager(t *testing.T, group config.SocketBindingGroupConfig) *Manager {
	t.Helper()
	named, unnamed := newRegistries(t)
	m, err := NewManager(named, unnamed,
		WithInterfaces(loopbackInterfaces()),
		WithSocketBindingGroup(group),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_RoutesByName(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	namedSock, err := m.CreateDatagramSocket("dns", loopbackAny)
	require.NoError(t, err)
	unnamedSock, err := m.CreateServerSocket("", loopbackAny)
	require.NoError(t, err)

	assert.Equal(t, 1, m.NamedRegistry().Len())
	assert.Equal(t, 1, m.UnnamedRegistry().Len())

	got, err := m.NamedRegistry().Lookup("dns")
	require.NoError(t, err)
	assert.Same(t, namedSock, got)
	assert.Equal(t, []pkgif.ManagedBinding{unnamedSock}, m.UnnamedRegistry().ListActiveBindings())
}

func TestManager_CreateUnbound(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	d, err := m.CreateUnboundDatagramSocket("udp-late")
	require.NoError(t, err)
	s, err := m.CreateUnboundServerSocket("tcp-late")
	require.NoError(t, err)
	assert.Zero(t, m.NamedRegistry().Len())

	require.NoError(t, d.Bind(loopbackAny))
	require.NoError(t, s.Bind(loopbackAny))
	assert.Equal(t, 2, m.NamedRegistry().Len())

	_, err = m.CreateDatagramSocket("x", netip.AddrPort{})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestManager_OpenAppliesPortOffset(t *testing.T) {
	base := freeUDPPort(t)
	const offset = 100
	require.Greater(t, int(base.Port()), offset)

	group := config.DefaultSocketBindingGroupConfig().
		WithPortOffset(offset).
		WithBinding(config.SocketBindingConfig{Name: "dns", Port: int(base.Port()) - offset, Transport: config.TransportUDP}).
		WithBinding(config.SocketBindingConfig{Name: "http", Port: 0, Transport: config.TransportTCP})
	m := newTestManager(t, group)

	addr, _, err := m.ResolveAddress("dns")
	require.NoError(t, err)
	assert.Equal(t, base, addr)

	b, err := m.Open("dns")
	require.NoError(t, err)
	assert.Equal(t, base, b.BindAddress())
	assert.Equal(t, pkgif.TransportUDP, b.Transport())

	h, err := m.Open("http")
	require.NoError(t, err)
	assert.Equal(t, pkgif.TransportTCP, h.Transport())
	assert.NotZero(t, h.BindAddress().Port())

	assert.Equal(t, offset, m.PortOffset())
	assert.Equal(t, "public", m.DefaultInterface())
}

func TestManager_OpenErrors(t *testing.T) {
	group := config.DefaultSocketBindingGroupConfig().
		WithBinding(config.SocketBindingConfig{Name: "mgmt", Interface: "management", Port: 0, Transport: config.TransportTCP})
	m := newTestManager(t, group)

	_, err := m.Open("missing")
	assert.ErrorIs(t, err, ErrUnknownSocketBinding)

	_, err = m.Open("mgmt")
	assert.ErrorIs(t, err, netif.ErrInterfaceNotFound)
}

func TestManager_OpenAll(t *testing.T) {
	group := config.DefaultSocketBindingGroupConfig().
		WithBinding(config.SocketBindingConfig{Name: "a", Transport: config.TransportTCP}).
		WithBinding(config.SocketBindingConfig{Name: "b", Transport: config.TransportUDP}).
		WithBinding(config.SocketBindingConfig{Name: "c", Transport: config.TransportTCP})
	m := newTestManager(t, group)

	opened, err := m.OpenAll(context.Background())
	require.NoError(t, err)
	require.Len(t, opened, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, opened[i].SocketBindingName())
	}
	assert.Equal(t, 3, m.NamedRegistry().Len())
}

// 任一绑定失败时回滚已打开的绑定
func TestManager_OpenAllRollsBack(t *testing.T) {
	occupied, err := net.Listen("tcp4", loopbackAny.String())
	require.NoError(t, err)
	defer occupied.Close()
	port := addrPortOf(occupied.Addr()).Port()

	group := config.DefaultSocketBindingGroupConfig().
		WithBinding(config.SocketBindingConfig{Name: "ok-1", Transport: config.TransportUDP}).
		WithBinding(config.SocketBindingConfig{Name: "taken", Port: int(port), FixedPort: true, Transport: config.TransportTCP}).
		WithBinding(config.SocketBindingConfig{Name: "ok-2", Transport: config.TransportTCP})
	m := newTestManager(t, group)

	opened, err := m.OpenAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, opened)
	assert.ErrorIs(t, err, ErrBindFailed)
	assert.True(t, IsAddressInUse(err))
	assert.Zero(t, m.NamedRegistry().Len())
}

func TestManager_OpenAllCanceled(t *testing.T) {
	group := config.DefaultSocketBindingGroupConfig().
		WithBinding(config.SocketBindingConfig{Name: "a", Transport: config.TransportTCP})
	m := newTestManager(t, group)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.OpenAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.NamedRegistry().Len())
}

func TestManager_CloseDrains(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	d, err := m.CreateDatagramSocket("dns", loopbackAny)
	require.NoError(t, err)
	s, err := m.CreateServerSocket("", loopbackAny)
	require.NoError(t, err)

	// 不会自行注销的绑定也会被清理
	foreign := mocks.NewMockManagedBinding("foreign", netip.MustParseAddrPort("127.0.0.1:1"))
	require.NoError(t, m.NamedRegistry().RegisterBinding(foreign))

	require.NoError(t, m.Close())
	assert.True(t, d.IsClosed())
	assert.True(t, s.IsClosed())
	assert.EqualValues(t, 1, foreign.CloseCalls.Load())
	assert.Zero(t, m.NamedRegistry().Len())
	assert.Zero(t, m.UnnamedRegistry().Len())

	_, err = m.CreateDatagramSocket("late", loopbackAny)
	assert.ErrorIs(t, err, ErrManagerClosed)
	_, err = m.CreateUnboundServerSocket("late")
	assert.ErrorIs(t, err, ErrManagerClosed)

	require.NoError(t, m.Close())
}

// 管理器关闭后，之前交出的未绑定套接字不能再绑定并重新填充注册表
func TestManager_CloseClosesUnboundSockets(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	d, err := m.CreateUnboundDatagramSocket("late")
	require.NoError(t, err)
	s, err := m.CreateUnboundServerSocket("")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, d.IsClosed())
	assert.True(t, s.IsClosed())

	assert.ErrorIs(t, d.Bind(loopbackAny), ErrSocketClosed)
	assert.ErrorIs(t, s.Bind(loopbackAny), ErrSocketClosed)
	assert.Zero(t, m.NamedRegistry().Len())
	assert.Zero(t, m.UnnamedRegistry().Len())
}

// 未绑定套接字在不排空时同样被关闭，已绑定的保持存活
func TestManager_CloseWithoutDrainClosesUnbound(t *testing.T) {
	named, unnamed := newRegistries(t)
	m, err := NewManager(named, unnamed, WithDrainOnClose(false))
	require.NoError(t, err)

	bound, err := m.CreateUnboundDatagramSocket("bound")
	require.NoError(t, err)
	defer bound.Close()
	require.NoError(t, bound.Bind(loopbackAny))

	pending, err := m.CreateUnboundServerSocket("pending")
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, bound.IsBound())
	assert.True(t, pending.IsClosed())
	assert.ErrorIs(t, pending.Bind(loopbackAny), ErrSocketClosed)
	assert.Equal(t, 1, named.Len())
}

// 已绑定或已关闭的套接字不再被跟踪
func TestManager_TrackUnboundPrunes(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	a, err := m.CreateUnboundDatagramSocket("a")
	require.NoError(t, err)
	require.NoError(t, a.Bind(loopbackAny))
	b, err := m.CreateUnboundDatagramSocket("b")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = m.CreateUnboundServerSocket("c")
	require.NoError(t, err)

	m.unboundMu.Lock()
	defer m.unboundMu.Unlock()
	assert.Len(t, m.unbound, 1)
}

func TestManager_CloseWithoutDrain(t *testing.T) {
	named, unnamed := newRegistries(t)
	m, err := NewManager(named, unnamed, WithDrainOnClose(false))
	require.NoError(t, err)

	b, err := m.CreateDatagramSocket("dns", loopbackAny)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
	assert.Equal(t, 1, named.Len())
}

func TestManager_DrainAggregatesErrors(t *testing.T) {
	m := newTestManager(t, config.DefaultSocketBindingGroupConfig())

	a := mocks.NewMockManagedBinding("a", netip.MustParseAddrPort("127.0.0.1:1"))
	a.CloseFunc = func() error { return assert.AnError }
	b := mocks.NewMockManagedBinding("", netip.MustParseAddrPort("127.0.0.1:2"))
	b.CloseFunc = func() error { return net.ErrClosed }
	require.NoError(t, m.NamedRegistry().RegisterBinding(a))
	require.NoError(t, m.UnnamedRegistry().RegisterBinding(b))

	err := m.Drain()
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, net.ErrClosed)
	assert.Zero(t, m.NamedRegistry().Len())
	assert.Zero(t, m.UnnamedRegistry().Len())
}

func TestNewManager_NilRegistry(t *testing.T) {
	_, err := NewManager(nil, nil)
	assert.ErrorIs(t, err, ErrNilRegistry)
}

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SocketBindings = cfg.SocketBindings.WithBinding(config.SocketBindingConfig{
		Name: "http", Transport: config.TransportTCP,
	})

	var m *Manager
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() *netif.InterfaceSet { return loopbackInterfaces() }),
		registry.Module(),
		Module(),
		fx.Populate(&m),
	)
	app.RequireStart()

	b, err := m.Open("http")
	require.NoError(t, err)
	assert.Equal(t, 1, m.NamedRegistry().Len())

	app.RequireStop()

	assert.True(t, m.IsClosed())
	assert.Zero(t, m.NamedRegistry().Len())
	assert.Equal(t, StateClosed, b.(*ManagedServerSocketBinding).State())
}
