package daemon

import (
	"sync"
	"time"
)

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventAllocation = "allocation"
)

// eventLog is a bounded, ID-ordered history of events plus the live SSE
// subscribers that receive new ones.
type eventLog struct {
	mu    sync.RWMutex
	limit int
	last  int64
	buf   []Event

	nextSub int
	subs    map[int]chan Event
}

func newEventLog(limit int) *eventLog {
	return &eventLog{limit: limit, subs: make(map[int]chan Event)}
}

// emit assigns the next ID, stores the event and fans it out. A subscriber
// whose channel is full misses the event.
func (l *eventLog) emit(typ string, at time.Time, sum Summary, delta Delta) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last++
	ev := Event{ID: l.last, Type: typ, Timestamp: at, Summary: sum, Delta: delta}
	l.push(ev)

	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// push appends ev and drops the oldest entries past the limit. Callers hold mu.
func (l *eventLog) push(ev Event) {
	l.buf = append(l.buf, ev)
	if over := len(l.buf) - l.limit; over > 0 {
		l.buf = append(l.buf[:0:0], l.buf[over:]...)
	}
}

func (l *eventLog) list() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event(nil), l.buf...)
}

func (l *eventLog) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buf)
}

func (l *eventLog) subscribe(ch chan Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSub++
	l.subs[l.nextSub] = ch
	return l.nextSub
}

func (l *eventLog) unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs, id)
}

func (l *eventLog) subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
