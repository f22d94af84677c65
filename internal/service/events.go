package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

// OrderCreatedEvent is published after every successful phone-order
// submission, for any external subscriber.
type OrderCreatedEvent struct {
	OrderID     uint
	OrderNumber string
	Phone       string
	ProductID   uint
	CreatedAt   time.Time
}

// Subscriber 订单事件回调；在 dispatcher 的 worker 协程里执行
type Subscriber func(ctx context.Context, evt OrderCreatedEvent)

// Dispatcher 本地异步事件分发器，有界队列，满了丢弃并告警
type Dispatcher struct {
	subs []Subscriber
	ch   chan OrderCreatedEvent
}

func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Dispatcher{ch: make(chan OrderCreatedEvent, queueSize)}
}

// Subscribe registers a subscriber. Not safe to call after Start.
func (d *Dispatcher) Subscribe(fn Subscriber) {
	d.subs = append(d.subs, fn)
}

// Start 启动若干 worker 消费事件；返回停止函数。
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case evt := <-d.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					for _, fn := range d.subs {
						fn(ctx, evt)
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(d.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

// Publish enqueues the event; drops with a warning when the queue is full
// so submissions are never blocked by slow subscribers.
func (d *Dispatcher) Publish(evt OrderCreatedEvent) {
	select {
	case d.ch <- evt:
	default:
		logger.Warn("event queue full, drop order-created event",
			zap.Uint("order_id", evt.OrderID), zap.Uint("product_id", evt.ProductID))
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (d *Dispatcher) QueueLen() int { return len(d.ch) }
