package kmeta

// Listener is a subscription token for a metadata update callback. Tokens
// have identity, so two listeners registered with the same function are
// removable independently.
type Listener struct {
	fn func(*Cluster)
}

// AddListener registers fn to be called once per successful metadata update,
// after all state mutation, with the updated cluster. Invocation order across
// listeners is unspecified. The callback runs under the cluster's lock and
// must not call back into the cluster's mutating methods.
func (c *Cluster) AddListener(fn func(*Cluster)) *Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := &Listener{fn: fn}
	c.listeners[l] = struct{}{}
	return l
}

// RemoveListener deregisters a previously added listener, returning
// ErrListenerNotFound if the token was never added or was already removed.
func (c *Cluster) RemoveListener(l *Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.listeners[l]; !ok {
		return ErrListenerNotFound
	}
	delete(c.listeners, l)
	return nil
}
