package frost

import (
	"slices"
	"strconv"

	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/pkg/errors"
)

// Identifier is a participant's position in [1, maxSigners]. It is the
// x-coordinate at which the participant's share of the group secret is
// evaluated, so zero is never a valid identifier.
type Identifier uint16

// ErrInvalidIdentifier is returned for identifiers outside [1, maxSigners].
var ErrInvalidIdentifier = errors.New("frost: invalid identifier")

// Validate reports whether id is usable in a ceremony of maxSigners.
func (id Identifier) Validate(maxSigners uint16) error {
	if id == 0 || uint16(id) > maxSigners {
		return errors.Wrapf(ErrInvalidIdentifier, "%d not in [1, %d]", id, maxSigners)
	}
	return nil
}

// Scalar returns the identifier as a scalar of g.
func (id Identifier) Scalar(g group.Group) group.Scalar {
	return group.ScalarFromUint16(g, uint16(id))
}

func (id Identifier) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// sortedIdentifiers returns the keys of m in ascending order.
func sortedIdentifiers[V any](m map[Identifier]V) []Identifier {
	ids := make([]Identifier, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
