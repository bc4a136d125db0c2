package registry

import (
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// entry 注册条目
type entry struct {
	binding pkgif.ManagedBinding
	name    string
	address netip.AddrPort
	regID   string
	at      time.Time
}

func (e *entry) snapshot() pkgif.BindingEntry {
	return pkgif.BindingEntry{
		Binding:        e.binding,
		Name:           e.name,
		Address:        e.address,
		RegistrationID: e.regID,
		RegisteredAt:   e.at,
	}
}

// notifier 负责注册表的事件发射、观察者回调和条目创建
//
// 所有方法都在注册表锁内调用。
type notifier struct {
	kind     string
	clock    clock.Clock
	observer pkgif.BindingObserver

	registered   pkgif.Emitter
	unregistered pkgif.Emitter
}

func newNotifier(kind string, o *options) (*notifier, error) {
	n := &notifier{
		kind:     kind,
		clock:    o.clock,
		observer: o.observer,
	}
	if o.bus == nil {
		return n, nil
	}

	var err error
	if n.registered, err = o.bus.Emitter(new(pkgif.EvtBindingRegistered)); err != nil {
		return nil, err
	}
	if n.unregistered, err = o.bus.Emitter(new(pkgif.EvtBindingUnregistered)); err != nil {
		_ = n.registered.Close()
		return nil, err
	}
	return n, nil
}

// newEntry 创建注册条目
func (n *notifier) newEntry(b pkgif.ManagedBinding, addr netip.AddrPort) *entry {
	return &entry{
		binding: b,
		name:    b.SocketBindingName(),
		address: addr,
		regID:   uuid.NewString(),
		at:      n.clock.Now(),
	}
}

func (n *notifier) onRegistered(e *entry) {
	if n.observer != nil {
		n.observer.OnRegistered(n.kind, e.binding)
	}
	if n.registered != nil {
		_ = n.registered.Emit(pkgif.EvtBindingRegistered{
			Name:           e.name,
			Address:        e.address,
			Transport:      transportOf(e.binding),
			RegistrationID: e.regID,
			At:             e.at,
		})
	}
}

func (n *notifier) onUnregistered(e *entry, addr netip.AddrPort) {
	if n.observer != nil {
		n.observer.OnUnregistered(n.kind, e.binding)
	}
	if n.unregistered != nil {
		_ = n.unregistered.Emit(pkgif.EvtBindingUnregistered{
			Name:           e.name,
			Address:        addr,
			Transport:      transportOf(e.binding),
			RegistrationID: e.regID,
			At:             n.clock.Now(),
		})
	}
}

func (n *notifier) onDuplicate(name string) {
	if n.observer != nil {
		n.observer.OnDuplicate(name)
	}
}

func (n *notifier) close() error {
	var err error
	if n.registered != nil {
		err = multierr.Append(err, n.registered.Close())
	}
	if n.unregistered != nil {
		err = multierr.Append(err, n.unregistered.Close())
	}
	return err
}

// transportOf 返回绑定的传输协议（未知时为空）
func transportOf(b pkgif.ManagedBinding) pkgif.Transport {
	if tb, ok := b.(pkgif.TransportBinding); ok {
		return tb.Transport()
	}
	return ""
}
