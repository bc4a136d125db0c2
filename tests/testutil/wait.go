package testutil

import (
	"context"
	"testing"
	"time"

	pkgif "github.com/dep2p/go-netbind/pkg/interfaces"
)

// WaitForCondition 等待条件满足或超时
//
// 参数：
//   - t: 测试对象
//   - timeout: 超时时间
//   - interval: 检查间隔
//   - condition: 条件函数，返回 true 表示条件满足
//
// 返回：条件是否满足（超时返回 false）
func WaitForCondition(t *testing.T, timeout time.Duration, interval time.Duration, condition func() bool) bool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即检查一次
	if condition() {
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}

// WaitForConditionOrFail 等待条件满足，超时则 fail 测试
func WaitForConditionOrFail(t *testing.T, timeout time.Duration, interval time.Duration, condition func() bool, msg string) {
	t.Helper()

	if !WaitForCondition(t, timeout, interval, condition) {
		t.Fatalf("等待超时: %s", msg)
	}
}

// Eventually 在指定时间内重试条件检查
//
// 使用默认间隔 10ms。
//
// 示例:
//
//	testutil.Eventually(t, time.Second, func() bool {
//	    _, ok := caps.Record("org.wildfly.network.socket-binding.http")
//	    return ok
//	}, "应该发布 http 能力")
func Eventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	WaitForConditionOrFail(t, timeout, 10*time.Millisecond, condition, msg)
}

// WaitForBindingCount 等待注册表中的活动绑定数达到预期值
func WaitForBindingCount(t *testing.T, reg pkgif.ManagedBindingRegistry, count int, timeout time.Duration) {
	t.Helper()
	Eventually(t, timeout, func() bool {
		return reg.Len() == count
	}, "活动绑定数未达到预期")
}

// WaitForEvent 从订阅中等待一个事件
func WaitForEvent(t *testing.T, sub pkgif.Subscription, timeout time.Duration) interface{} {
	t.Helper()

	select {
	case evt, ok := <-sub.Out():
		if !ok {
			t.Fatal("订阅已关闭")
		}
		return evt
	case <-time.After(timeout):
		t.Fatal("等待事件超时")
		return nil
	}
}
