package notifications

import (
	"sync"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/logger"
)

// Alert is one queued notification
type Alert struct {
	Level   string
	Message string
}

// Dispatcher delivers alerts asynchronously through a bounded queue. Publish
// never blocks the trading loop; when the queue is full the alert is dropped
// and counted.
type Dispatcher struct {
	notifiers []Notifier
	queue     chan Alert
	log       *logger.Logger

	mu      sync.Mutex
	dropped int64
	done    chan struct{}
	once    sync.Once
}

// NewDispatcher creates a dispatcher over the given notifiers and starts its
// delivery goroutine
func NewDispatcher(queueSize int, log *logger.Logger, notifiers ...Notifier) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		notifiers: notifiers,
		queue:     make(chan Alert, queueSize),
		log:       log,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for alert := range d.queue {
		for _, notifier := range d.notifiers {
			if err := notifier.SendAlert(alert.Level, alert.Message); err != nil && d.log != nil {
				d.log.Warning("notification delivery failed: %v", err)
			}
		}
	}
	close(d.done)
}

// Publish enqueues an alert without blocking; full queue drops the alert
func (d *Dispatcher) Publish(level, message string) {
	select {
	case d.queue <- Alert{Level: level, Message: message}:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		if d.log != nil {
			d.log.Warning("notification queue full, dropped %s alert", level)
		}
	}
}

// Dropped returns how many alerts were discarded because the queue was full
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close drains the queue and stops the delivery goroutine
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
		<-d.done
	})
}
