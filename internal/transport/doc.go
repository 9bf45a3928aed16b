// Package transport owns stream connection lifecycle and wire framing.
//
// Ownership boundary:
// - connect/reconnect/close state machine over one TCP stream
// - raw framing (bytes in, bytes out, no boundaries preserved)
// - line-hex framing (lowercase hex body + '\n', one frame per line)
// - trace events handed to an injected Recorder
//
// Scheme dispatch, URI parsing, and retry policy live outside this package.
// Nothing here retries or reconnects on its own.
package transport
