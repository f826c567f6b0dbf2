// Package queue holds the ordered playback queue of speech units consumed
// one at a time by the playback driver.
package queue
