package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_hub.go -package=mocks . Publisher,Hub

// Publisher sends committed changes to a channel. Delivery is best effort and
// at most once per subscriber; ordering holds only within one channel.
type Publisher interface {
	Publish(channel string, event *Event)
}

// Hub is a Publisher that also manages subscriptions.
type Hub interface {
	Publisher
	// Subscribe registers handler on channel. The returned func unsubscribes
	// and is safe to call more than once.
	Subscribe(channel string, handler Handler) (unsubscribe func())
	SubscriberCount(channel string) int
	Stop()
}
