// accessor.go — Direct reads of host globals.
package bridge

// Read returns the current value of key from host. It reports ok == false when
// host is nil, the key is not one of the mirrored globals, or the host never
// populated it. Nothing is cached: every call re-reads the host, so call it
// from within a store recomputation rather than holding on to the result.
func Read(host Host, key Key) (any, bool) {
	if !IsHosted(host) || !key.IsKnown() {
		return nil, false
	}
	return host.Global(key)
}

// ReadAll reads every known key from host into a fresh snapshot.
func ReadAll(host Host) GlobalState {
	values := make(map[Key]any)
	for _, k := range knownKeys {
		if v, ok := Read(host, k); ok {
			values[k] = v
		}
	}
	return GlobalState{values: values}
}
