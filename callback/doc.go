// Package callback bridges host closures to native function pointers.
//
// A Table issues FuncPtr values for host thunks. Native code receives a
// Binding, the {function pointer, user data} pair, and calls back through
// Table.Invoke with the addresses of its encoded arguments and of a return
// slot.
//
// # Adapters
//
//	Func      unchecked: a panic unwinds through the native caller
//	Checked   Result<R, E>: errors become Err, panics become Panic
//	Async     one-shot completion token awaited with Pending.Await
//	Delegates named slots stored as consecutive Bindings
//
// # Lifetime
//
// A function pointer stays valid until it is released. One-shot callbacks
// can be released as soon as the native call returns. Retained callbacks,
// such as a DelegateTable handed to a native registration call, must stay
// registered for as long as native code may call them; releasing early turns
// later calls into released errors, never into calls of unrelated closures,
// because pointers are not reused.
package callback
