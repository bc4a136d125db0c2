package capability

import (
	"context"
	"net/netip"
	"sync"

	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// publisherBuffer 事件订阅缓冲区
const publisherBuffer = 256

// Publisher 根据注册表事件发布套接字绑定能力
//
// 设置了命名注册表时，事件只作为触发信号：每处理完一批事件就以
// reg.Entries() 校正已发布的记录。订阅缓冲区满时事件会被丢弃，但丢弃
// 发生时缓冲区中仍有待处理事件，随后的校正会读到被丢弃的那次变更。
//
// 未设置注册表时按事件记账。注册与注销事件来自两个独立订阅，处理顺序
// 可能与发生顺序不同：注销只撤回同一次注册发布的记录，
// 先于注册到达的注销会抵消随后到达的那次注册。
type Publisher struct {
	caps pkgif.CapabilityRegistry
	bus  pkgif.EventBus

	// 以下字段只在 Start 与事件循环中访问
	reg       pkgif.NamedBindingRegistry
	published map[string]string   // regID -> name
	pending   map[string]struct{} // 已注销但注册事件尚未到达的 regID
	current   map[string]string   // name -> 当前记录的 regID

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	regSub   pkgif.Subscription
	unregSub pkgif.Subscription
}

// NewPublisher 创建 Publisher
func NewPublisher(caps pkgif.CapabilityRegistry, bus pkgif.EventBus) (*Publisher, error) {
	if err := ensureCapability(caps, SocketBindingCapability); err != nil {
		return nil, err
	}
	return &Publisher{
		caps:      caps,
		bus:       bus,
		published: make(map[string]string),
		pending:   make(map[string]struct{}),
		current:   make(map[string]string),
	}, nil
}

// Start 订阅注册表事件并启动事件循环
//
// 订阅建立后再以 reg 的当前条目做一次同步，reg 可以为 nil。
func (p *Publisher) Start(_ context.Context, reg pkgif.NamedBindingRegistry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil
	}

	regSub, err := p.bus.Subscribe(new(pkgif.EvtBindingRegistered), pkgif.BufSize(publisherBuffer))
	if err != nil {
		return err
	}
	unregSub, err := p.bus.Subscribe(new(pkgif.EvtBindingUnregistered), pkgif.BufSize(publisherBuffer))
	if err != nil {
		_ = regSub.Close()
		return err
	}

	p.reg = reg
	if reg != nil {
		p.resync()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.regSub = regSub
	p.unregSub = unregSub

	go p.loop(ctx, regSub, unregSub, p.done)
	return nil
}

// Stop 停止事件循环并关闭订阅
func (p *Publisher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return nil
	}

	p.cancel()
	<-p.done
	err := multierr.Combine(p.regSub.Close(), p.unregSub.Close())
	p.done = nil
	return err
}

func (p *Publisher) loop(ctx context.Context, regSub, unregSub pkgif.Subscription, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-regSub.Out():
			if !ok {
				return
			}
			p.handle(e)
		case e, ok := <-unregSub.Out():
			if !ok {
				return
			}
			p.handle(e)
		}
		if !p.drain(regSub, unregSub) {
			return
		}
		if p.reg != nil {
			p.resync()
		}
	}
}

// drain 非阻塞地处理已排队的事件，订阅关闭时返回 false
func (p *Publisher) drain(regSub, unregSub pkgif.Subscription) bool {
	for {
		select {
		case e, ok := <-regSub.Out():
			if !ok {
				return false
			}
			p.handle(e)
		case e, ok := <-unregSub.Out():
			if !ok {
				return false
			}
			p.handle(e)
		default:
			return true
		}
	}
}

// handle 按事件记账，设置了注册表时由 resync 负责
func (p *Publisher) handle(e interface{}) {
	if p.reg != nil {
		return
	}
	switch evt := e.(type) {
	case pkgif.EvtBindingRegistered:
		p.onRegistered(evt)
	case pkgif.EvtBindingUnregistered:
		p.onUnregistered(evt)
	}
}

// resync 以注册表当前条目校正已发布的记录
func (p *Publisher) resync() {
	entries := p.reg.Entries()
	live := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		live[e.Name] = struct{}{}
		regID, ok := p.current[e.Name]
		if ok && regID == e.RegistrationID {
			continue
		}
		if ok {
			delete(p.published, regID)
		}
		p.publish(e.Name, e.Address, transportOf(e.Binding), e.RegistrationID)
	}

	for name, regID := range p.current {
		if _, ok := live[name]; ok {
			continue
		}
		delete(p.current, name)
		delete(p.published, regID)
		if err := p.caps.Withdraw(SocketBindingCapabilityName, name); err != nil {
			logger.Debug("撤回套接字绑定能力失败", "name", name, "error", err)
		}
	}
	clear(p.pending)
}

func (p *Publisher) publish(name string, addr netip.AddrPort, transport pkgif.Transport, regID string) {
	err := p.caps.Publish(SocketBindingCapabilityName, name, pkgif.SocketBindingRecord{
		Name:           name,
		Address:        addr,
		Transport:      transport,
		RegistrationID: regID,
	})
	if err != nil {
		logger.Warn("发布套接字绑定能力失败", "name", name, "error", err)
		return
	}
	p.published[regID] = name
	p.current[name] = regID
}

func (p *Publisher) onRegistered(evt pkgif.EvtBindingRegistered) {
	if evt.Name == "" {
		return
	}
	if _, ok := p.published[evt.RegistrationID]; ok {
		return
	}
	if _, ok := p.pending[evt.RegistrationID]; ok {
		delete(p.pending, evt.RegistrationID)
		return
	}
	p.publish(evt.Name, evt.Address, evt.Transport, evt.RegistrationID)
}

func (p *Publisher) onUnregistered(evt pkgif.EvtBindingUnregistered) {
	if evt.Name == "" {
		return
	}
	if _, ok := p.published[evt.RegistrationID]; !ok {
		p.pending[evt.RegistrationID] = struct{}{}
		return
	}
	delete(p.published, evt.RegistrationID)

	if p.current[evt.Name] != evt.RegistrationID {
		return
	}
	delete(p.current, evt.Name)
	if err := p.caps.Withdraw(SocketBindingCapabilityName, evt.Name); err != nil {
		logger.Debug("撤回套接字绑定能力失败", "name", evt.Name, "error", err)
	}
}

// transportOf 返回绑定的传输协议（未知时为空）
func transportOf(b pkgif.ManagedBinding) pkgif.Transport {
	if tb, ok := b.(pkgif.TransportBinding); ok {
		return tb.Transport()
	}
	return ""
}
