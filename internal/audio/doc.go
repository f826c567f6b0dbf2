// Package audio plays raw 16-bit PCM through the system audio device
// using the oto/v3 library.
package audio
