// Package ceremony coordinates FROST key generation and signing
// ceremonies whose state lives entirely with the caller.
//
// Every operation is a transformation of caller-held state: it validates
// the state it receives, works on a deep copy, and returns the new state.
// On error the input state is untouched and the caller retries against it.
// A [Coordinator] therefore keeps nothing between calls and can serve any
// number of ceremonies concurrently.
//
// # Key Generation
//
//	c := ceremony.New(frost.New(secp256k1.New()))
//	s, _ := c.CreateKeygenState(2, 3)
//
//	r1, _ := c.KeygenRound1(s, "alice") // identifier 1
//	r2, _ := c.KeygenRound1(r1.State, "bob") // identifier 2, moves to round 2
//
//	all := map[string]ceremony.Blob{"alice": r1.Package, "bob": r2.Package}
//	k1, _ := c.KeygenRound2(r2.State, "alice", all)
//	k2, _ := c.KeygenRound2(k1.State, "bob", all)
//	// k2.State.GroupPublicKey is now set
//
// Identifiers are assigned once, at a participant's first round-1
// submission, and persisted in the state. Round 2 resolves every peer
// through that mapping, so the order in which packages are exchanged never
// changes who is who.
//
// # Signing
//
//	s, _ := c.CreateSigningState(msg, []string{"alice", "bob"})
//	a, _ := c.SigningRound1(s, "alice", k1.KeyPackage)
//	b, _ := c.SigningRound1(a.State, "bob", k2.KeyPackage)
//	pkg, _ := c.CreateSigningPackage(b.State)
//
//	x, _ := c.SigningRound2(b.State, "alice", k1.KeyPackage, pkg, groupKey)
//	y, _ := c.SigningRound2(x.State, "bob", k2.KeyPackage, pkg, groupKey)
//	// y.Signature is the aggregated signature
//
// The group public key is an explicit input of the final round; it is not
// carried over from key generation. Nonces are erased from the state as
// soon as they are used.
//
// # Errors
//
// All failures are *[Error] values classified by [ErrorKind] and can be
// matched with errors.Is against the Err* sentinels.
package ceremony
