package capability

import (
	"context"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-netbind/internal/core/eventbus"
	"github.com/dep2p/go-netbind/internal/core/netif"
	"github.com/dep2p/go-netbind/internal/core/registry"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/tests/mocks"
	"github.com/dep2p/go-netbind/tests/testutil"
)

func TestPublisher_FollowsRegistry(t *testing.T) {
	bus := eventbus.NewBus()
	named, err := registry.NewNamedRegistry(registry.WithEventBus(bus))
	require.NoError(t, err)

	caps := NewRegistry()
	pub, err := NewPublisher(caps, bus)
	require.NoError(t, err)
	require.NoError(t, pub.Start(context.Background(), named))
	defer pub.Stop()

	b := mocks.NewMockManagedBinding("http", netip.MustParseAddrPort("127.0.0.1:8080"))
	b.TransportType = pkgif.TransportTCP
	require.NoError(t, named.RegisterBinding(b))

	testutil.Eventually(t, time.Second, func() bool {
		_, ok := SocketBindingFor(caps, "http")
		return ok
	}, "应该发布 http 能力")

	rec, _ := SocketBindingFor(caps, "http")
	assert.Equal(t, netip.MustParseAddrPort("127.0.0.1:8080"), rec.Address)
	assert.Equal(t, pkgif.TransportTCP, rec.Transport)

	require.NoError(t, named.UnregisterBinding(b))
	testutil.Eventually(t, time.Second, func() bool {
		_, ok := SocketBindingFor(caps, "http")
		return !ok
	}, "应该撤回 http 能力")
}

// 启动时同步已存在的注册
func TestPublisher_SyncsExistingEntries(t *testing.T) {
	bus := eventbus.NewBus()
	named, err := registry.NewNamedRegistry(registry.WithEventBus(bus))
	require.NoError(t, err)

	b := mocks.NewMockManagedBinding("dns", netip.MustParseAddrPort("127.0.0.1:5353"))
	require.NoError(t, named.RegisterBinding(b))

	caps := NewRegistry()
	pub, err := NewPublisher(caps, bus)
	require.NoError(t, err)
	require.NoError(t, pub.Start(context.Background(), named))
	defer pub.Stop()

	rec, ok := SocketBindingFor(caps, "dns")
	require.True(t, ok)
	assert.Equal(t, pkgif.TransportUDP, rec.Transport)
}

// 注册突发超过订阅缓冲区时，发布的记录仍与注册表一致
func TestPublisher_BurstBeyondBuffer(t *testing.T) {
	bus := eventbus.NewBus()
	named, err := registry.NewNamedRegistry(registry.WithEventBus(bus))
	require.NoError(t, err)

	caps := NewRegistry()
	pub, err := NewPublisher(caps, bus)
	require.NoError(t, err)
	require.NoError(t, pub.Start(context.Background(), named))
	defer pub.Stop()

	const n = 20 * publisherBuffer
	bindings := make([]*mocks.MockManagedBinding, n)
	for i := range bindings {
		bindings[i] = mocks.NewMockManagedBinding(fmt.Sprintf("svc-%d", i), netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(10000+i)))
		require.NoError(t, named.RegisterBinding(bindings[i]))
	}

	testutil.Eventually(t, 5*time.Second, func() bool {
		return len(caps.Records(SocketBindingCapabilityName)) == n
	}, "应该发布全部绑定")
	rec, ok := SocketBindingFor(caps, "svc-0")
	require.True(t, ok)
	assert.Equal(t, bindings[0].Address, rec.Address)

	for _, b := range bindings {
		require.NoError(t, named.UnregisterBinding(b))
	}
	testutil.Eventually(t, 5*time.Second, func() bool {
		return len(caps.Records(SocketBindingCapabilityName)) == 0
	}, "应该撤回全部绑定")
}

// 记录与注册表不一致时以注册表为准
func TestPublisher_Resync(t *testing.T) {
	named, err := registry.NewNamedRegistry()
	require.NoError(t, err)

	caps := NewRegistry()
	pub, err := NewPublisher(caps, eventbus.NewBus())
	require.NoError(t, err)
	pub.reg = named

	stale := netip.MustParseAddrPort("127.0.0.1:1")
	pub.onRegistered(pkgif.EvtBindingRegistered{Name: "gone", Address: stale, RegistrationID: "r-gone"})
	pub.onRegistered(pkgif.EvtBindingRegistered{Name: "http", Address: stale, RegistrationID: "r-old"})

	b := mocks.NewMockManagedBinding("http", netip.MustParseAddrPort("127.0.0.1:8080"))
	require.NoError(t, named.RegisterBinding(b))
	pub.pending["r-lost"] = struct{}{}

	pub.resync()

	_, ok := SocketBindingFor(caps, "gone")
	assert.False(t, ok)
	rec, ok := SocketBindingFor(caps, "http")
	require.True(t, ok)
	assert.Equal(t, b.Address, rec.Address)
	assert.Equal(t, named.Entries()[0].RegistrationID, rec.RegistrationID)
	assert.Len(t, pub.published, 1)
	assert.Empty(t, pub.pending)
}

// 未命名绑定不发布能力
func TestPublisher_IgnoresUnnamed(t *testing.T) {
	caps := NewRegistry()
	pub, err := NewPublisher(caps, eventbus.NewBus())
	require.NoError(t, err)

	pub.onRegistered(pkgif.EvtBindingRegistered{RegistrationID: "r1"})
	assert.Empty(t, caps.Records(SocketBindingCapabilityName))
}

// 注销事件先于注册事件到达时，二者相互抵消
func TestPublisher_OutOfOrderEvents(t *testing.T) {
	caps := NewRegistry()
	pub, err := NewPublisher(caps, eventbus.NewBus())
	require.NoError(t, err)

	addr := netip.MustParseAddrPort("127.0.0.1:1")

	pub.onUnregistered(pkgif.EvtBindingUnregistered{Name: "x", Address: addr, RegistrationID: "a"})
	pub.onRegistered(pkgif.EvtBindingRegistered{Name: "x", Address: addr, RegistrationID: "a"})
	_, ok := SocketBindingFor(caps, "x")
	assert.False(t, ok)
	assert.Empty(t, pub.pending)

	// 新注册先于旧注销处理：保留新注册的记录
	pub.onRegistered(pkgif.EvtBindingRegistered{Name: "y", Address: addr, RegistrationID: "b1"})
	pub.onRegistered(pkgif.EvtBindingRegistered{Name: "y", Address: addr, RegistrationID: "b2"})
	pub.onUnregistered(pkgif.EvtBindingUnregistered{Name: "y", Address: addr, RegistrationID: "b1"})

	rec, ok := SocketBindingFor(caps, "y")
	require.True(t, ok)
	assert.Equal(t, "b2", rec.RegistrationID)

	pub.onUnregistered(pkgif.EvtBindingUnregistered{Name: "y", Address: addr, RegistrationID: "b2"})
	_, ok = SocketBindingFor(caps, "y")
	assert.False(t, ok)
	assert.Empty(t, pub.published)
}

func TestPublisher_StartStopIdempotent(t *testing.T) {
	pub, err := NewPublisher(NewRegistry(), eventbus.NewBus())
	require.NoError(t, err)

	require.NoError(t, pub.Start(context.Background(), nil))
	require.NoError(t, pub.Start(context.Background(), nil))
	require.NoError(t, pub.Stop())
	require.NoError(t, pub.Stop())
}

func TestModule(t *testing.T) {
	set := netif.NewInterfaceSet(&netif.NetworkInterfaceBinding{
		Name:    "public",
		Address: netip.MustParseAddr("127.0.0.1"),
	})

	var (
		caps  pkgif.CapabilityRegistry
		named pkgif.NamedBindingRegistry
	)
	app := fxtest.New(t,
		eventbus.Module(),
		registry.Module(),
		fx.Supply(set),
		Module(),
		fx.Populate(&caps, &named),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, ok := InterfaceFor(caps, "public")
	assert.True(t, ok)

	b := mocks.NewMockManagedBinding("http", netip.MustParseAddrPort("127.0.0.1:8080"))
	require.NoError(t, named.RegisterBinding(b))
	testutil.Eventually(t, time.Second, func() bool {
		_, ok := SocketBindingFor(caps, "http")
		return ok
	}, "应该发布 http 能力")
	require.NoError(t, named.UnregisterBinding(b))
}
