// Package distributionengine implements automatic lead/visit distribution
// for Lares.
//
// The module owns the distribution queue and attempt tables and exposes HTTP
// command/query handlers, the gateway webhook entrypoint, and worker
// entrypoints for timeout sweeping and audit outbox relay. One engine serves
// both leads and visits; the request kind only changes criteria extraction
// and the assignment write-back target.
package distributionengine
