package monitor

import (
	"strings"
	"sync"

	"github.com/heatwarden/core/internal/infrastructure/mqtt"
)

// publication is one recorded Publish call.
type publication struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// fakeClient is an in-process MQTTClient: it records publishes, tracks
// subscriptions, and lets tests inject inbound messages with deliver.
type fakeClient struct {
	mu           sync.Mutex
	published    []publication
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string

	publishErr   error
	subscribeErr error

	// onPublish, when set, runs after each successful publish (outside the
	// lock) so tests can simulate devices replying to a query.
	onPublish func(topic string, payload []byte)
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	if f.publishErr != nil {
		f.mu.Unlock()
		return f.publishErr
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	f.published = append(f.published, publication{topic: topic, payload: data, qos: qos, retained: retained})
	hook := f.onPublish
	f.mu.Unlock()

	if hook != nil {
		hook(topic, payload)
	}
	return nil
}

func (f *fakeClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakeClient) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	f.unsubscribed = append(f.unsubscribed, topic)
	return nil
}

// deliver routes an inbound message to the first matching subscription.
// Returns false when no filter matches.
func (f *fakeClient) deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	var handler mqtt.MessageHandler
	for filter, h := range f.handlers {
		if topicMatches(filter, topic) {
			handler = h
			break
		}
	}
	f.mu.Unlock()

	if handler == nil {
		return false
	}
	handler(topic, payload)
	return true
}

// publications returns a snapshot of recorded publishes to the given topic.
func (f *fakeClient) publications(topic string) []publication {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publication
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// subscribedTo reports whether a subscription exists for the exact filter.
func (f *fakeClient) subscribedTo(filter string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[filter]
	return ok
}

// topicMatches implements MQTT filter matching for the single-level "+" and
// multi-level "#" wildcards.
func topicMatches(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")

	for i, f := range fs {
		if f == "#" {
			return true
		}
		if i >= len(ts) {
			return false
		}
		if f != "+" && f != ts[i] {
			return false
		}
	}
	return len(fs) == len(ts)
}
