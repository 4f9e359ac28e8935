package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// ErrDispatcherClosed is returned by Submit after Stop
var ErrDispatcherClosed = errors.New("dispatcher closed")

const (
	// defaultQueueSize bounds the backlog of a single group
	defaultQueueSize = 256
	// defaultIdleTimeout retires a group worker with nothing to do
	defaultIdleTimeout = 10 * time.Minute
)

// MessageProcessor handles a single inbound message
type MessageProcessor interface {
	Monitors(msg *domain.Message) bool
	Process(ctx context.Context, msg *domain.Message) (*domain.DecisionResult, error)
}

// groupQueue is the backlog of one group. pending counts senders that hold
// the queue but have not finished sending.
type groupQueue struct {
	ch      chan *domain.Message
	pending int
}

// Dispatcher runs one FIFO worker per monitored group so messages of a group
// are processed in arrival order while other groups are not blocked. Workers
// exit after idleTimeout without messages.
type Dispatcher struct {
	processor   MessageProcessor
	queueSize   int
	idleTimeout time.Duration
	logger      *zap.Logger

	closeMu sync.RWMutex // write-held by Stop while queues close
	closed  bool

	mu      sync.Mutex
	queues  map[string]*groupQueue
	wg      sync.WaitGroup
	dropped int64
}

// NewDispatcher creates a new per-group dispatcher
func NewDispatcher(processor MessageProcessor, queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		processor:   processor,
		queueSize:   queueSize,
		idleTimeout: defaultIdleTimeout,
		logger:      logger,
		queues:      make(map[string]*groupQueue),
	}
}

// Submit enqueues msg on its group's queue. Messages from chats that are not
// monitored are dropped without starting a worker. It blocks while the
// group's queue is full.
func (d *Dispatcher) Submit(msg *domain.Message) error {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	if !d.processor.Monitors(msg) {
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		return nil
	}

	queue := d.acquire(msg.GroupID)
	queue.ch <- msg

	d.mu.Lock()
	queue.pending--
	d.mu.Unlock()
	return nil
}

// acquire returns the queue of groupID, starting its worker if needed, and
// registers the caller as a pending sender
func (d *Dispatcher) acquire(groupID string) *groupQueue {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue, ok := d.queues[groupID]
	if !ok {
		queue = &groupQueue{ch: make(chan *domain.Message, d.queueSize)}
		d.queues[groupID] = queue
		d.wg.Add(1)
		go d.work(groupID, queue)
	}
	queue.pending++
	return queue
}

func (d *Dispatcher) work(groupID string, queue *groupQueue) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case msg, ok := <-queue.ch:
			if !ok {
				return
			}
			d.process(groupID, msg)

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.idleTimeout)

		case <-idle.C:
			if d.retire(groupID, queue) {
				return
			}
			idle.Reset(d.idleTimeout)
		}
	}
}

// retire removes an idle queue unless a message or sender is on its way
func (d *Dispatcher) retire(groupID string, queue *groupQueue) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(queue.ch) > 0 || queue.pending > 0 || d.queues[groupID] != queue {
		return false
	}
	delete(d.queues, groupID)
	d.logger.Debug("Group worker retired", zap.String("group_id", groupID))
	return true
}

func (d *Dispatcher) process(groupID string, msg *domain.Message) {
	result, err := d.processor.Process(context.Background(), msg)
	if err != nil {
		d.logger.Warn("Message processing failed",
			zap.String("group_id", groupID),
			zap.Int64("message_id", msg.MessageID),
			zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.String("group_id", groupID),
		zap.Int64("message_id", msg.MessageID),
		zap.String("decision", string(result.Decision)),
	}
	if result.Decision.IsDuplicate() {
		d.logger.Info("Duplicate handled", fields...)
		return
	}
	d.logger.Debug("Message processed", fields...)
}

// Stop rejects new messages and waits until queued messages are processed
func (d *Dispatcher) Stop() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true

	d.mu.Lock()
	for _, queue := range d.queues {
		close(queue.ch)
	}
	d.queues = make(map[string]*groupQueue)
	d.mu.Unlock()
	d.closeMu.Unlock()

	d.wg.Wait()
}

// ActiveGroups returns the number of groups with a worker
func (d *Dispatcher) ActiveGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Dropped returns the number of messages ignored because their chat is not monitored
func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}
