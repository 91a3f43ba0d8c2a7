package frost

import (
	"io"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/pkg/errors"
)

// ErrZeroSecret is returned when a dealer is asked to split the zero scalar.
var ErrZeroSecret = errors.New("frost: dealer secret must be non-zero")

// GenerateWithDealer splits secret into maxSigners shares with threshold
// minSigners, for identifiers 1..maxSigners. A nil secret is replaced by a
// fresh random scalar read from r.
func (f *FROST) GenerateWithDealer(r io.Reader, secret group.Scalar, maxSigners, minSigners uint16) (map[Identifier]*KeyPackage, *PublicKeyPackage, error) {
	if err := ValidateParameters(maxSigners, minSigners); err != nil {
		return nil, nil, err
	}
	if secret == nil {
		s, err := f.group.RandomScalar(r)
		if err != nil {
			return nil, nil, errors.Wrap(err, "sampling dealer secret")
		}
		secret = s
	}
	if secret.IsZero() {
		return nil, nil, ErrZeroSecret
	}

	coeffs, err := f.randomPolynomial(r, secret, int(minSigners)-1)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sampling polynomial")
	}
	commits := f.commit(coeffs)

	pub := &PublicKeyPackage{
		VerifyingShares: make(map[Identifier]group.Point, maxSigners),
		VerifyingKey:    commits[0],
		MinSigners:      minSigners,
	}
	packages := make(map[Identifier]*KeyPackage, maxSigners)
	for i := 1; i <= int(maxSigners); i++ {
		id := Identifier(i)
		share := f.evalPolynomial(coeffs, id.Scalar(f.group))
		verifying := f.group.NewPoint().ScalarMult(share, f.group.Generator())
		pub.VerifyingShares[id] = verifying
		packages[id] = &KeyPackage{
			ID:             id,
			SigningShare:   share,
			VerifyingShare: verifying,
			VerifyingKey:   pub.VerifyingKey,
			MinSigners:     minSigners,
		}
	}
	return packages, pub, nil
}
