// Package broker fans presentation events out to renderers.
package broker

type subscription[T any] struct {
	id      int
	channel chan T
}

// Broker delivers every published message to all current subscribers. Each subscriber has a buffered
// channel; messages to a subscriber whose buffer is full are dropped.
type Broker[T any] struct {
	buffer             int
	stopChannel        chan struct{}
	publishChannel     chan T
	subscribeChannel   chan subscription[T]
	unsubscribeChannel chan int
	nextID             chan int
}

// New creates a Broker with per-subscriber buffers of the given size. Call Start in a goroutine and Stop
// when done.
func New[T any](buffer int) *Broker[T] {
	return &Broker[T]{
		buffer:             buffer,
		stopChannel:        make(chan struct{}),
		publishChannel:     make(chan T),
		subscribeChannel:   make(chan subscription[T]),
		unsubscribeChannel: make(chan int),
		nextID:             make(chan int),
	}
}

// Start handles subscriptions and publications until Stop is called. Subscriber channels are closed on exit.
func (b *Broker[T]) Start() {
	subscribers := map[int]chan T{}
	id := 0
	defer func() {
		for _, c := range subscribers {
			close(c)
		}
	}()
	for {
		select {
		case <-b.stopChannel:
			return

		case b.nextID <- id:
			id++

		case s := <-b.subscribeChannel:
			subscribers[s.id] = s.channel

		case sid := <-b.unsubscribeChannel:
			if c, ok := subscribers[sid]; ok {
				close(c)
				delete(subscribers, sid)
			}

		case msg := <-b.publishChannel:
			for _, c := range subscribers {
				select {
				case c <- msg:
				default:
				}
			}
		}
	}
}

// Stop the goroutine that handles the broker.
func (b *Broker[T]) Stop() {
	close(b.stopChannel)
}

// Subscribe returns an id for Unsubscribe and the channel messages arrive on. After Stop the returned channel
// is already closed.
func (b *Broker[T]) Subscribe() (int, <-chan T) {
	channel := make(chan T, b.buffer)
	select {
	case <-b.stopChannel:
		close(channel)
		return -1, channel
	case id := <-b.nextID:
		select {
		case b.subscribeChannel <- subscription[T]{id: id, channel: channel}:
		case <-b.stopChannel:
			close(channel)
		}
		return id, channel
	}
}

// Unsubscribe closes the channel of subscriber id.
func (b *Broker[T]) Unsubscribe(id int) {
	select {
	case b.unsubscribeChannel <- id:
	case <-b.stopChannel:
	}
}

// Publish sends msg to every subscriber. It returns immediately after Stop.
func (b *Broker[T]) Publish(msg T) {
	select {
	case b.publishChannel <- msg:
	case <-b.stopChannel:
	}
}
