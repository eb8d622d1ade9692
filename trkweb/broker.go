package trkweb

import (
	"fmt"
	"sync"

	"github.com/objtrack/trk"
)

// Broker fans completed sweeps out to subscribers. Sends never block: a
// subscriber whose channel is full has that sweep dropped, and the drop is
// counted against it.
type Broker struct {
	mtx  sync.Mutex
	subs map[chan<- trk.SweepData]*subscriber
}

type subscriber struct {
	sends uint64
	drops uint64
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: map[chan<- trk.SweepData]*subscriber{},
	}
}

// Publish offers the sweep to every subscriber.
func (b *Broker) Publish(sw trk.SweepData) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	for ch, sub := range b.subs {
		select {
		case ch <- sw:
			sub.sends++
		default:
			sub.drops++
		}
	}
}

// Subscribe registers the channel to receive future sweeps.
func (b *Broker) Subscribe(ch chan<- trk.SweepData) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if _, ok := b.subs[ch]; ok {
		return fmt.Errorf("already subscribed")
	}

	b.subs[ch] = &subscriber{}

	return nil
}

// Unsubscribe removes the channel and reports its delivery stats.
func (b *Broker) Unsubscribe(ch chan<- trk.SweepData) (sends, drops uint64, _ error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	sub, ok := b.subs[ch]
	if !ok {
		return 0, 0, fmt.Errorf("not subscribed")
	}

	delete(b.subs, ch)

	return sub.sends, sub.drops, nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return len(b.subs)
}
