// Package bridge mirrors the host-provided widget globals (window.openai) and
// wraps the host's callable methods.
//
// The host is an injected dependency that may be absent at any call site.
// Reads of an absent host or an unpopulated property report ok == false;
// awaited methods on an absent host return ErrHostUnavailable; fire-and-forget
// methods (OpenExternal, NotifyIntrinsicHeight) become no-ops.
//
// Store is the single writer of the local GlobalState mirror. It subscribes to
// the one change event the host dispatches ("openai:set_globals"), merges each
// partial payload into a new immutable snapshot and notifies subscribers once
// per event.
package bridge
