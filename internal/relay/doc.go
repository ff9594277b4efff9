// Package relay exposes the connection coordinator to dapps, over HTTP and
// over NATS request/reply.
package relay
