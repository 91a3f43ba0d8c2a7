// Package secp256k1 provides the secp256k1 implementation of [group.Group].
//
// It is the default curve for ceremonies and matches the keys used by
// Nostr and Bitcoin signers. Points are encoded in the 33-byte SEC1
// compressed form; the identity element is encoded as 33 zero bytes.
//
//	g := secp256k1.New()
//	f := frost.New(g)
package secp256k1
