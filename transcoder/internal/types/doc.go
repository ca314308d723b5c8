// Package types defines the Kind discriminator shared by all codecs.
//
// This package is internal to the transcoder.
package types
