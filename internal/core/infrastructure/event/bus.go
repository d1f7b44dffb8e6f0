// Package event 提供基于asaskevich/EventBus的事件总线实现
//
// 保单生命周期事件（policy:eligible、policy:ineligible、policy:claimed）
// 经由总线异步广播，订阅方（API推送、CLI展示）自行决定如何消费。
// 发布是fire-and-forget：没有订阅者时事件被丢弃，不阻塞发布方。
package event

import (
	evbus "github.com/asaskevich/EventBus"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/event"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
)

// Bus 实现event.Bus接口
type Bus struct {
	bus    evbus.Bus
	logger log.Logger
}

// New 创建事件总线实例
func New(logger log.Logger) *Bus {
	return &Bus{
		bus:    evbus.New(),
		logger: logger,
	}
}

// Publish 发布事件
// 订阅回调在总线自己的goroutine中异步执行，不阻塞发布方
func (b *Bus) Publish(topic string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debugf("发布事件: topic=%s", topic)
	}
	b.bus.Publish(topic, args...)
}

// Subscribe 订阅事件主题
// fn必须是函数，参数签名与发布方的args一致
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe 取消订阅
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync 等待所有在途的异步回调完成，供优雅停机使用
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

var _ event.Bus = (*Bus)(nil)
