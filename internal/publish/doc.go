// Package publish sends watched node values to a live preview.
//
// The Publisher emits every Update as a socket.io event. LogSink is used
// instead when no preview server is configured.
package publish
