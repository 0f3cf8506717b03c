// Package sockets provides an event-driven, single-threaded TCP sockets
// layer for an OPC UA stack: one reactor goroutine owns every listener and
// connection, drives each through a non-blocking state machine on top of
// select(2), and exposes its activity as a stream of output events to
// whatever secure-channel layer sits above it.
//
// Call Initialize to boot a Core, SetEventHandler to register where its
// output events go, EnqueueEvent to open listeners, dial peers, accept
// connections, write data and close things, and Clear to tear the core
// down. See events.go and errors.go for the full event and error taxonomy.
package sockets
