package world

import (
	"sync"
	"time"
)

// Task — единица кооперативной работы. Выполняется целиком без вытеснения.
type Task func()

// Scheduler принимает единицы работы и выполняет их, не блокируя вызывающего.
// timeout ограничивает, сколько единица может ждать свободного времени.
type Scheduler interface {
	Schedule(task Task, timeout time.Duration)
}

// InlineScheduler выполняет единицу сразу в вызывающей горутине
type InlineScheduler struct{}

// Schedule реализует Scheduler
func (InlineScheduler) Schedule(task Task, _ time.Duration) {
	task()
}

type queuedTask struct {
	task     Task
	deadline time.Time // нулевое значение — без таймаута
}

// IdleScheduler копит единицы в FIFO-очереди; их выполняет RunIdle в свободное время кадра.
type IdleScheduler struct {
	mu    sync.Mutex
	queue []queuedTask
	now   func() time.Time
}

// NewIdleScheduler создаёт планировщик. now позволяет подменить часы в тестах.
func NewIdleScheduler(now func() time.Time) *IdleScheduler {
	if now == nil {
		now = time.Now
	}
	return &IdleScheduler{now: now}
}

// Schedule реализует Scheduler
func (s *IdleScheduler) Schedule(task Task, timeout time.Duration) {
	qt := queuedTask{task: task}
	if timeout > 0 {
		qt.deadline = s.now().Add(timeout)
	}
	s.mu.Lock()
	s.queue = append(s.queue, qt)
	s.mu.Unlock()
}

// Pending возвращает длину очереди
func (s *IdleScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// RunIdle выполняет единицы, пока не исчерпан budget. Хотя бы одна единица выполняется
// всегда; после исчерпания бюджета дополнительно выполняются все просроченные единицы.
// Возвращает количество выполненных единиц.
func (s *IdleScheduler) RunIdle(budget time.Duration) int {
	start := s.now()
	ran := 0
	for {
		if ran > 0 && s.now().Sub(start) >= budget {
			break
		}
		qt, ok := s.pop()
		if !ok {
			return ran
		}
		qt.task()
		ran++
	}

	for _, qt := range s.takeExpired(s.now()) {
		qt.task()
		ran++
	}
	return ran
}

// Drain выполняет все единицы, включая поставленные во время выполнения
func (s *IdleScheduler) Drain() int {
	ran := 0
	for {
		qt, ok := s.pop()
		if !ok {
			return ran
		}
		qt.task()
		ran++
	}
}

func (s *IdleScheduler) pop() (queuedTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return queuedTask{}, false
	}
	qt := s.queue[0]
	s.queue[0] = queuedTask{}
	s.queue = s.queue[1:]
	return qt, true
}

// takeExpired извлекает из очереди единицы с истёкшим таймаутом, сохраняя порядок остальных
func (s *IdleScheduler) takeExpired(now time.Time) []queuedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []queuedTask
	kept := s.queue[:0]
	for _, qt := range s.queue {
		if !qt.deadline.IsZero() && !now.Before(qt.deadline) {
			expired = append(expired, qt)
			continue
		}
		kept = append(kept, qt)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = queuedTask{}
	}
	s.queue = kept
	return expired
}
