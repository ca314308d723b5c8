// Package nativetest is a small native library that lives in a native
// Domain and talks to the host only through the unmanaged ABI: function
// pointers from a callback.Table, tagged unions and vectors stored in
// domain memory, and Wire buffers. Tests use it as the far side of the
// boundary.
package nativetest
