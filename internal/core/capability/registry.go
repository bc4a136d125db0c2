package capability

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sync"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
	"github.com/dep2p/go-netbind/pkg/lib/log"
)

var logger = log.Logger("core/capability")

// Registry 能力注册表
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]pkgif.RuntimeCapability
	records map[string]pkgif.CapabilityRecord
}

// 确保实现接口
var _ pkgif.CapabilityRegistry = (*Registry)(nil)

// NewRegistry 创建能力注册表
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string]pkgif.RuntimeCapability),
		records: make(map[string]pkgif.CapabilityRecord),
	}
}

// RegisterCapability 注册能力定义
func (r *Registry) RegisterCapability(c pkgif.RuntimeCapability) error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCapability)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[c.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCapabilityExists, c.Name)
	}
	r.defs[c.Name] = c
	return nil
}

// Capability 返回能力定义
func (r *Registry) Capability(name string) (pkgif.RuntimeCapability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.defs[name]
	return c, ok
}

// Publish 发布能力记录，已有同名记录时替换
func (r *Registry) Publish(base, element string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[base]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, base)
	}
	if def.Dynamic != (element != "") {
		return fmt.Errorf("%w: %s element %q", ErrInvalidCapability, base, element)
	}
	if def.ValueType != nil && reflect.TypeOf(value) != def.ValueType {
		return fmt.Errorf("%w: %s expects %s, got %T", ErrValueType, base, def.ValueType, value)
	}

	name := def.DynamicName(element)
	r.records[name] = pkgif.CapabilityRecord{
		Capability: name,
		Base:       base,
		Value:      value,
	}
	logger.Debug("能力已发布", "capability", name)
	return nil
}

// Withdraw 撤回能力记录
func (r *Registry) Withdraw(base, element string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[base]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, base)
	}
	name := def.DynamicName(element)
	if _, ok := r.records[name]; !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	delete(r.records, name)
	logger.Debug("能力已撤回", "capability", name)
	return nil
}

// Record 查询能力记录
func (r *Registry) Record(capability string) (pkgif.CapabilityRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[capability]
	return rec, ok
}

// Records 返回指定基础能力的全部记录（按能力名排序）
func (r *Registry) Records(base string) []pkgif.CapabilityRecord {
	r.mu.RLock()
	out := make([]pkgif.CapabilityRecord, 0)
	for _, rec := range r.records {
		if rec.Base == base {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b pkgif.CapabilityRecord) int {
		return cmp.Compare(a.Capability, b.Capability)
	})
	return out
}
