package netbind

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-netbind/config"
	"github.com/dep2p/go-netbind/internal/core/binding"
	"github.com/dep2p/go-netbind/internal/core/netif"
	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("netbind")

// startTimeout Fx App 启动超时
const startTimeout = 30 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              服务器状态
// ════════════════════════════════════════════════════════════════════════════

// ServerState 服务器状态
type ServerState int

const (
	// StateIdle 已创建，未启动
	StateIdle ServerState = iota

	// StateStarting 启动中（Fx App 启动、打开配置的绑定）
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopping 停止中（排空注册表）
	StateStopping

	// StateStopped 已停止
	StateStopped
)

// String 返回状态的字符串表示
func (s ServerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Server
// ════════════════════════════════════════════════════════════════════════════

// Server 受管套接字绑定服务器
//
// 持有命名/未命名注册表、绑定管理器和能力注册表。
// 所有方法都是并发安全的。
type Server struct {
	config *serverConfig
	app    *fx.App

	// 由 Fx 注入
	manager    *binding.Manager
	named      pkgif.NamedBindingRegistry
	unnamed    pkgif.UnnamedBindingRegistry
	caps       pkgif.CapabilityRegistry
	bus        pkgif.EventBus
	gatherer   prometheus.Gatherer
	interfaces *netif.InterfaceSet

	mu     sync.RWMutex
	state  ServerState
	opened []pkgif.TransportBinding
	closed bool
}

// New 创建服务器
//
// 构建依赖图但不打开任何套接字，需要调用 Start。
//
//	srv, err := netbind.New(ctx,
//	    netbind.WithConfigFile("netbind.json"),
//	    netbind.WithPortOffset(100),
//	)
func New(_ context.Context, opts ...Option) (*Server, error) {
	cfg := newServerConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if cfg.logLevel != nil {
		log.SetLevel(*cfg.logLevel)
	}

	srv := &Server{config: cfg}

	var err error
	srv.app, err = buildFxApp(cfg, srv)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	return srv, nil
}

// Start 快捷启动函数
//
// 等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Server, error) {
	srv, err := New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("start server: %w", err)
	}
	return srv, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动服务器
//
//  1. 启动 Fx App：发布接口能力，启动套接字绑定能力发布者
//  2. 并发打开配置中的全部套接字绑定，任一失败则全部回滚并停止
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	switch s.state {
	case StateStarting, StateRunning:
		return ErrAlreadyStarted
	case StateStopping, StateStopped:
		return ErrServerStopped
	}

	s.state = StateStarting
	logger.Info("正在启动服务器")

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()

	if err := s.app.Start(startCtx); err != nil {
		s.state = StateStopped
		logger.Error("服务器启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	opened, err := s.manager.OpenAll(ctx)
	if err != nil {
		s.state = StateStopping
		logger.Error("打开套接字绑定失败", "error", err)
		stopCtx, stopCancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer stopCancel()
		_ = s.app.Stop(stopCtx)
		s.state = StateStopped
		return fmt.Errorf("open socket bindings: %w", err)
	}

	s.opened = opened
	s.state = StateRunning
	logger.Info("服务器已启动",
		"bindings", len(opened),
		"port_offset", s.manager.PortOffset(),
		"default_interface", s.manager.DefaultInterface())
	return nil
}

// Stop 停止服务器
//
// 排空两个注册表（关闭每个仍然存活的绑定，包括运行期间动态创建的绑定），
// 之后服务器不能再次启动。
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.state != StateRunning {
		return ErrNotStarted
	}
	return s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) error {
	s.state = StateStopping
	logger.Info("正在停止服务器")

	err := s.app.Stop(ctx)
	s.opened = nil
	s.state = StateStopped
	if err != nil {
		logger.Error("停止服务器失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}

	logger.Info("服务器已停止")
	return nil
}

// Close 关闭服务器并释放所有资源
//
// 运行中时先以配置的关闭超时执行 Stop。幂等。
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.state != StateRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()
	return s.stopLocked(ctx)
}

func (s *Server) shutdownTimeout() time.Duration {
	if d := s.config.config.Registry.ShutdownTimeout.Duration(); d > 0 {
		return d
	}
	return config.DefaultRegistryConfig().ShutdownTimeout.Duration()
}

// State 返回服务器状态
func (s *Server) State() ServerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning 服务器是否在运行
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Manager 返回套接字绑定管理器
//
// 用于在运行期间动态创建命名或未命名的套接字。
func (s *Server) Manager() *binding.Manager {
	return s.manager
}

// NamedRegistry 返回命名绑定注册表
func (s *Server) NamedRegistry() pkgif.NamedBindingRegistry {
	return s.named
}

// UnnamedRegistry 返回未命名绑定注册表
func (s *Server) UnnamedRegistry() pkgif.UnnamedBindingRegistry {
	return s.unnamed
}

// Capabilities 返回能力注册表
func (s *Server) Capabilities() pkgif.CapabilityRegistry {
	return s.caps
}

// EventBus 返回事件总线
//
// 可订阅 pkgif.EvtBindingRegistered / pkgif.EvtBindingUnregistered。
func (s *Server) EventBus() pkgif.EventBus {
	return s.bus
}

// Gatherer 返回指标收集器
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Interfaces 返回已解析的命名网络接口
func (s *Server) Interfaces() []*netif.NetworkInterfaceBinding {
	if s.interfaces == nil {
		return nil
	}
	return s.interfaces.All()
}

// Config 返回配置副本
func (s *Server) Config() *config.Config {
	return config.CloneConfig(s.config.config)
}

// Lookup 按名称查找活动的命名绑定
func (s *Server) Lookup(name string) (pkgif.ManagedBinding, error) {
	return s.named.Lookup(name)
}

// OpenedBindings 返回 Start 时按配置打开的绑定
func (s *Server) OpenedBindings() []pkgif.TransportBinding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pkgif.TransportBinding, len(s.opened))
	copy(out, s.opened)
	return out
}
