// Package rpc brings a transport and a wire encoding into a usable state
// and tears them down again.
//
// A Manager is the explicit handle for what is process-wide state: the
// registry of live transport handles (one per kind), the single active
// encoding and the readiness flag. It moves through
//
//	Uninitialized -> Initializing -> Ready -> Finalizing -> Uninitialized
//
// and may be started again after a clean Stop.
//
// Setup is never rolled back: a Start that fails after the transport was
// registered leaves it registered, and the caller releases it with Stop.
// Teardown always makes forward progress: Stop drops the handle and
// finalizes the encoding even when the backend shutdown fails.
//
// Framing, dispatch and retries are left to the layers above.
package rpc
