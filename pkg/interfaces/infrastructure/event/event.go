// Package event 定义PriceShield的事件总线接口
//
// 保单生命周期事件（合格、不合格、已理赔）通过事件总线对外广播，
// 供UI协作方订阅刷新。底层由asaskevich/EventBus实现。
package event

// 保单生命周期事件主题
const (
	TopicPolicyEligible   = "policy:eligible"
	TopicPolicyIneligible = "policy:ineligible"
	TopicPolicyClaimed    = "policy:claimed"
)

// Bus 事件总线接口
type Bus interface {
	// Publish 发布事件（异步投递，不阻塞调用方）
	Publish(topic string, args ...interface{})

	// Subscribe 订阅事件主题
	Subscribe(topic string, fn interface{}) error

	// Unsubscribe 取消订阅
	Unsubscribe(topic string, fn interface{}) error
}
