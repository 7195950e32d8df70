package assets

import (
	"sync"
)

// entry holds everything the engine knows about one audio asset.
type entry struct {
	raw      []byte // encoded bytes as loaded (ogg/wav)
	pcm      []byte // decoded 16-bit stereo PCM, nil until decoded
	decoded  bool
	decoding bool // an asynchronous decode is in flight
	locked   bool // gesture-restricted, unusable until Unlock
}

// Cache stores raw and decoded audio bytes per asset key. The per-frame
// engine reads it from the tick goroutine while decode workers read raw
// bytes concurrently, so access is guarded by a mutex.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	unlockSubs []func(key string)
}

// NewCache creates an empty asset cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
	}
}

// AddRaw registers the encoded bytes for an asset key. Re-adding a key
// replaces it and clears any previously decoded data.
func (c *Cache) AddRaw(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{raw: data}
}

// AddRawLocked registers an asset that may not play until a user
// gesture unlocks it.
func (c *Cache) AddRawLocked(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{raw: data, locked: true}
}

// Has reports whether the key is present at all.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// IsReady reports whether the asset's bytes are available and the asset
// is not gesture-locked.
func (c *Cache) IsReady(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && e.raw != nil && !e.locked
}

// IsDecoded reports whether decoded PCM is available for the key.
func (c *Cache) IsDecoded(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && e.decoded
}

// IsDecoding reports whether an asynchronous decode is in flight.
func (c *Cache) IsDecoding(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && e.decoding
}

// MarkDecoding flags or clears the in-flight decode marker. A second
// decode request for a key already marked decoding is suppressed by the
// caller checking IsDecoding first.
func (c *Cache) MarkDecoding(key string, decoding bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.decoding = decoding
	}
}

// RawData returns the encoded bytes for the key, or nil.
func (c *Cache) RawData(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.raw
	}
	return nil
}

// DecodedData returns the decoded PCM for the key, or nil if the asset
// is missing or not decoded yet.
func (c *Cache) DecodedData(key string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.pcm
	}
	return nil
}

// SetDecodedData stores decoded PCM for the key and clears the decoding
// flag. A no-op if the asset was removed while the decode was running.
func (c *Cache) SetDecodedData(key string, pcm []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.pcm = pcm
	e.decoded = true
	e.decoding = false
}

// Remove evicts an asset. Sounds bound to the key destroy themselves on
// their next update.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Keys returns all registered asset keys.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// SubscribeUnlock registers a callback invoked once per asset that
// transitions from locked to ready.
func (c *Cache) SubscribeUnlock(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unlockSubs = append(c.unlockSubs, fn)
}

// UnlockAll clears the locked flag on every asset and notifies
// subscribers for each asset that was locked.
func (c *Cache) UnlockAll() {
	c.mu.Lock()
	var unlocked []string
	for k, e := range c.entries {
		if e.locked {
			e.locked = false
			unlocked = append(unlocked, k)
		}
	}
	subs := make([]func(string), len(c.unlockSubs))
	copy(subs, c.unlockSubs)
	c.mu.Unlock()

	for _, k := range unlocked {
		for _, fn := range subs {
			fn(k)
		}
	}
}
