package docsync

import (
	"sync"

	"github.com/google/uuid"

	"github.com/viant/gridsync/collection"
	"github.com/viant/gridsync/errs"
)

// Subscription receives the events committed to one collection in commit
// order per document. C is closed by Close, by service Close, or when the
// subscriber falls more than the configured buffer behind.
type Subscription struct {
	ID         string
	Collection string
	C          <-chan Event

	ch      chan Event
	service *Service
	once    sync.Once
}

// Subscribe opens a subscription to every op committed to coll.
func (s *Service) Subscribe(coll string) (*Subscription, error) {
	id, err := collection.Parse(coll)
	if err != nil {
		return nil, normalize(err)
	}
	ch := make(chan Event, s.cfg.SubscriberBuffer)
	sub := &Subscription{ID: uuid.NewString(), Collection: id.String(), C: ch, ch: ch, service: s}

	s.subsMu.Lock()
	if s.subsClosed {
		s.subsMu.Unlock()
		return nil, normalize(errs.New(errs.Unavailable, "docsync: service closed"))
	}
	byID, ok := s.subs[sub.Collection]
	if !ok {
		byID = make(map[string]*Subscription)
		s.subs[sub.Collection] = byID
	}
	byID[sub.ID] = sub
	s.metrics.Subscribers.Inc()
	s.subsMu.Unlock()
	return sub, nil
}

// Close stops the subscription and closes C.
func (sub *Subscription) Close() {
	s := sub.service
	s.subsMu.Lock()
	byID := s.subs[sub.Collection]
	_, registered := byID[sub.ID]
	if registered {
		delete(byID, sub.ID)
		if len(byID) == 0 {
			delete(s.subs, sub.Collection)
		}
		s.metrics.Subscribers.Dec()
	}
	sub.closeChannel()
	s.subsMu.Unlock()
}

func (sub *Subscription) closeChannel() {
	sub.once.Do(func() { close(sub.ch) })
}

// publish delivers event to every subscriber of its collection without
// blocking; subscribers with a full buffer are closed.
func (s *Service) publish(event Event) {
	if SkipPoll(event.Op) {
		s.metrics.PollsSkipped.Inc()
	}
	coll := event.Collection.String()
	var lagging []*Subscription
	s.subsMu.RLock()
	for _, sub := range s.subs[coll] {
		select {
		case sub.ch <- event:
		default:
			lagging = append(lagging, sub)
		}
	}
	s.subsMu.RUnlock()
	for _, sub := range lagging {
		s.logger.Info("closing lagging subscriber", "collection", coll, "subscription", sub.ID)
		sub.Close()
	}
}
