package ceremony

import (
	"time"
)

// VerifySignature checks signature over message against the group public
// key package produced by keygen or the dealer.
func (c *Coordinator) VerifySignature(message []byte, signature, groupPublicKey Blob) (_ bool, err error) {
	defer c.track(OpVerifySignature, time.Now(), &err)

	sig, err := c.suite.DecodeSignature(signature)
	if err != nil {
		return false, wrapError(KindSerialization, err, "signature")
	}
	pub, err := c.suite.DecodePublicKeyPackage(groupPublicKey)
	if err != nil {
		return false, wrapError(KindSerialization, err, "group public key")
	}
	return c.suite.Verify(message, sig, pub.VerifyingKey), nil
}
