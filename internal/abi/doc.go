// Package abi provides internal helpers shared by the codecs and the native
// domains: checked 32-bit arithmetic, alignment, allocation limits and
// validation of unmanaged {pointer, length, capacity} triples.
package abi
