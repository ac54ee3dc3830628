package enumerator

// Observer receives enumerator lifecycle events. Methods may be called from
// the goroutine that completes a fetch, never concurrently for one enumerator.
type Observer interface {
	// OnElement is called for every element handed to the consumer.
	OnElement()
	// OnFetch is called for every page request; prefetch is true for
	// read-ahead requests issued while elements were still buffered.
	OnFetch(prefetch bool)
	// OnSuspend is called when the buffer runs dry and the drive waits for a page.
	OnSuspend()
	// OnTerminate is called once with the terminal error, nil on success.
	OnTerminate(err error)
}

type nopObserver struct{}

func (nopObserver) OnElement()        {}
func (nopObserver) OnFetch(bool)      {}
func (nopObserver) OnSuspend()        {}
func (nopObserver) OnTerminate(error) {}
