// Package dnsproxy provides the UDP side of the proxy.
//
// DNSProxy receives datagrams on a single socket and hands each one to a fixed
// pool of workers. A worker extracts the queried name and checks it against
// the block list. Blocked queries are answered locally: the request itself is
// turned into an NXDOMAIN response, keeping its transaction ID and question.
// Other queries are forwarded to a randomly selected DNS-over-TLS provider
// and the provider's response is relayed back verbatim.
//
// Any failure while handling a request drops it without a reply.
package dnsproxy
