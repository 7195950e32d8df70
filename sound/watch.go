package sound

import "github.com/sunfall/chime/assets"

// watchList is a set of asset keys awaiting asynchronous decode
// completion, paired with a one-shot callback. Keys whose decode fails
// stay in the set, so the callback never fires for a failed batch; the
// manager surfaces the failure through its decode-error signal instead.
type watchList struct {
	keys     map[string]struct{}
	callback func()
}

func newWatchList(keys []string, callback func()) *watchList {
	w := &watchList{
		keys:     make(map[string]struct{}, len(keys)),
		callback: callback,
	}
	for _, k := range keys {
		w.keys[k] = struct{}{}
	}
	return w
}

// prune drops keys that are now decoded and reports whether the set is
// empty, i.e. the callback is due.
func (w *watchList) prune(cache *assets.Cache) bool {
	for k := range w.keys {
		if cache.IsDecoded(k) {
			delete(w.keys, k)
		}
	}
	return len(w.keys) == 0
}
