// Package audio provides the output capabilities pulses are rendered to:
// an oto/v3 backed speaker device, a WAV file writer for headless use and a
// recording mock for tests. Every Device blocks in Play until the buffer has
// been fully consumed.
package audio
