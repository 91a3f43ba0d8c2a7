package frost

import (
	"github.com/andotherstuff/hosted-nostr-auth-server/group"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// ErrGroupMismatch is returned when data encoded for one group or package
// kind is decoded as another.
var ErrGroupMismatch = errors.New("frost: encoded for a different group or kind")

// Package kinds carried in every encoding.
const (
	KindRound1Secret      = "round1-secret"
	KindRound1Package     = "round1-package"
	KindKeyPackage        = "key-package"
	KindPublicKeyPackage  = "public-key-package"
	KindSigningNonces     = "signing-nonces"
	KindSigningCommitment = "signing-commitments"
	KindSigningPackage    = "signing-package"
	KindSignatureShare    = "signature-share"
	KindSignature         = "signature"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// sealed is the outer frame of every encoding.
type sealed struct {
	Group string          `cbor:"1,keyasint"`
	Kind  string          `cbor:"2,keyasint"`
	Body  cbor.RawMessage `cbor:"3,keyasint"`
}

type wireRound1Secret struct {
	ID           uint16   `cbor:"1,keyasint"`
	Coefficients [][]byte `cbor:"2,keyasint"`
	Commitments  [][]byte `cbor:"3,keyasint"`
	MinSigners   uint16   `cbor:"4,keyasint"`
	MaxSigners   uint16   `cbor:"5,keyasint"`
}

type wireRound1Package struct {
	ID          uint16            `cbor:"1,keyasint"`
	Commitments [][]byte          `cbor:"2,keyasint"`
	ProofR      []byte            `cbor:"3,keyasint"`
	ProofZ      []byte            `cbor:"4,keyasint"`
	Shares      map[uint16][]byte `cbor:"5,keyasint"`
}

type wireKeyPackage struct {
	ID             uint16 `cbor:"1,keyasint"`
	SigningShare   []byte `cbor:"2,keyasint"`
	VerifyingShare []byte `cbor:"3,keyasint"`
	VerifyingKey   []byte `cbor:"4,keyasint"`
	MinSigners     uint16 `cbor:"5,keyasint"`
}

type wirePublicKeyPackage struct {
	VerifyingShares map[uint16][]byte `cbor:"1,keyasint"`
	VerifyingKey    []byte            `cbor:"2,keyasint"`
	MinSigners      uint16            `cbor:"3,keyasint"`
}

type wirePair struct {
	A []byte `cbor:"1,keyasint"`
	B []byte `cbor:"2,keyasint"`
}

type wireSigningPackage struct {
	Message     []byte              `cbor:"1,keyasint"`
	Commitments map[uint16]wirePair `cbor:"2,keyasint"`
}

func (f *FROST) seal(kind string, body any) ([]byte, error) {
	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", kind)
	}
	out, err := encMode.Marshal(&sealed{Group: f.group.Name(), Kind: kind, Body: raw})
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", kind)
	}
	return out, nil
}

func (f *FROST) open(kind string, data []byte, body any) error {
	var s sealed
	if err := cbor.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "decoding %s", kind)
	}
	if s.Group != f.group.Name() || s.Kind != kind {
		return errors.Wrapf(ErrGroupMismatch, "got %s/%s, want %s/%s", s.Group, s.Kind, f.group.Name(), kind)
	}
	if err := cbor.Unmarshal(s.Body, body); err != nil {
		return errors.Wrapf(err, "decoding %s body", kind)
	}
	return nil
}

// decoder parses group elements and keeps the first error.
type decoder struct {
	g   group.Group
	err error
}

func (d *decoder) scalar(b []byte) group.Scalar {
	if d.err != nil {
		return nil
	}
	s, err := d.g.NewScalar().SetBytes(b)
	if err == nil && string(s.Bytes()) != string(b) {
		err = errors.New("non-canonical scalar")
	}
	if err != nil {
		d.err = errors.Wrap(err, "decoding scalar")
		return nil
	}
	return s
}

func (d *decoder) point(b []byte) group.Point {
	if d.err != nil {
		return nil
	}
	p, err := d.g.NewPoint().SetBytes(b)
	if err != nil {
		d.err = errors.Wrap(err, "decoding point")
		return nil
	}
	return p
}

func (d *decoder) points(bs [][]byte) []group.Point {
	out := make([]group.Point, len(bs))
	for i, b := range bs {
		out[i] = d.point(b)
	}
	return out
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = errors.Wrapf(ErrMalformedPackage, format, args...)
	}
}

func pointBytes(ps []group.Point) [][]byte {
	out := make([][]byte, len(ps))
	for i, p := range ps {
		out[i] = p.Bytes()
	}
	return out
}

// EncodeRound1Secret serializes a DKG round-1 secret.
func (f *FROST) EncodeRound1Secret(s *Round1Secret) ([]byte, error) {
	coeffs := make([][]byte, len(s.Coefficients))
	for i, c := range s.Coefficients {
		coeffs[i] = c.Bytes()
	}
	return f.seal(KindRound1Secret, &wireRound1Secret{
		ID:           uint16(s.ID),
		Coefficients: coeffs,
		Commitments:  pointBytes(s.Commitments),
		MinSigners:   s.MinSigners,
		MaxSigners:   s.MaxSigners,
	})
}

// DecodeRound1Secret parses a DKG round-1 secret.
func (f *FROST) DecodeRound1Secret(data []byte) (*Round1Secret, error) {
	var w wireRound1Secret
	if err := f.open(KindRound1Secret, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &Round1Secret{
		ID:           Identifier(w.ID),
		Coefficients: make([]group.Scalar, len(w.Coefficients)),
		Commitments:  d.points(w.Commitments),
		MinSigners:   w.MinSigners,
		MaxSigners:   w.MaxSigners,
	}
	for i, c := range w.Coefficients {
		out.Coefficients[i] = d.scalar(c)
	}
	if len(out.Coefficients) == 0 || len(out.Coefficients) != int(w.MinSigners) || len(out.Commitments) != len(out.Coefficients) {
		d.fail("round 1 secret has %d coefficients for threshold %d", len(out.Coefficients), w.MinSigners)
	}
	if err := out.ID.Validate(w.MaxSigners); err != nil && d.err == nil {
		d.err = err
	}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeRound1Package serializes a DKG round-1 package.
func (f *FROST) EncodeRound1Package(p *Round1Package) ([]byte, error) {
	shares := make(map[uint16][]byte, len(p.Shares))
	for id, s := range p.Shares {
		shares[uint16(id)] = s.Bytes()
	}
	return f.seal(KindRound1Package, &wireRound1Package{
		ID:          uint16(p.ID),
		Commitments: pointBytes(p.Commitments),
		ProofR:      p.ProofR.Bytes(),
		ProofZ:      p.ProofZ.Bytes(),
		Shares:      shares,
	})
}

// DecodeRound1Package parses a DKG round-1 package.
func (f *FROST) DecodeRound1Package(data []byte) (*Round1Package, error) {
	var w wireRound1Package
	if err := f.open(KindRound1Package, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &Round1Package{
		ID:          Identifier(w.ID),
		Commitments: d.points(w.Commitments),
		ProofR:      d.point(w.ProofR),
		ProofZ:      d.scalar(w.ProofZ),
		Shares:      make(map[Identifier]group.Scalar, len(w.Shares)),
	}
	for id, s := range w.Shares {
		out.Shares[Identifier(id)] = d.scalar(s)
	}
	if out.ID == 0 || len(out.Commitments) == 0 {
		d.fail("round 1 package without identifier or commitments")
	}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeKeyPackage serializes a participant's key package.
func (f *FROST) EncodeKeyPackage(kp *KeyPackage) ([]byte, error) {
	return f.seal(KindKeyPackage, &wireKeyPackage{
		ID:             uint16(kp.ID),
		SigningShare:   kp.SigningShare.Bytes(),
		VerifyingShare: kp.VerifyingShare.Bytes(),
		VerifyingKey:   kp.VerifyingKey.Bytes(),
		MinSigners:     kp.MinSigners,
	})
}

// DecodeKeyPackage parses a participant's key package.
func (f *FROST) DecodeKeyPackage(data []byte) (*KeyPackage, error) {
	var w wireKeyPackage
	if err := f.open(KindKeyPackage, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &KeyPackage{
		ID:             Identifier(w.ID),
		SigningShare:   d.scalar(w.SigningShare),
		VerifyingShare: d.point(w.VerifyingShare),
		VerifyingKey:   d.point(w.VerifyingKey),
		MinSigners:     w.MinSigners,
	}
	if out.ID == 0 || out.MinSigners == 0 {
		d.fail("key package without identifier or threshold")
	}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodePublicKeyPackage serializes the group public key package.
func (f *FROST) EncodePublicKeyPackage(p *PublicKeyPackage) ([]byte, error) {
	shares := make(map[uint16][]byte, len(p.VerifyingShares))
	for id, s := range p.VerifyingShares {
		shares[uint16(id)] = s.Bytes()
	}
	return f.seal(KindPublicKeyPackage, &wirePublicKeyPackage{
		VerifyingShares: shares,
		VerifyingKey:    p.VerifyingKey.Bytes(),
		MinSigners:      p.MinSigners,
	})
}

// DecodePublicKeyPackage parses the group public key package.
func (f *FROST) DecodePublicKeyPackage(data []byte) (*PublicKeyPackage, error) {
	var w wirePublicKeyPackage
	if err := f.open(KindPublicKeyPackage, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &PublicKeyPackage{
		VerifyingShares: make(map[Identifier]group.Point, len(w.VerifyingShares)),
		VerifyingKey:    d.point(w.VerifyingKey),
		MinSigners:      w.MinSigners,
	}
	for id, s := range w.VerifyingShares {
		out.VerifyingShares[Identifier(id)] = d.point(s)
	}
	if out.MinSigners == 0 {
		d.fail("public key package without threshold")
	}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeSigningNonces serializes a secret nonce pair.
func (f *FROST) EncodeSigningNonces(n *SigningNonces) ([]byte, error) {
	return f.seal(KindSigningNonces, &wirePair{A: n.Hiding.Bytes(), B: n.Binding.Bytes()})
}

// DecodeSigningNonces parses a secret nonce pair.
func (f *FROST) DecodeSigningNonces(data []byte) (*SigningNonces, error) {
	var w wirePair
	if err := f.open(KindSigningNonces, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &SigningNonces{Hiding: d.scalar(w.A), Binding: d.scalar(w.B)}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeSigningCommitments serializes a signer's public commitments.
func (f *FROST) EncodeSigningCommitments(c *SigningCommitments) ([]byte, error) {
	return f.seal(KindSigningCommitment, &wirePair{A: c.Hiding.Bytes(), B: c.Binding.Bytes()})
}

// DecodeSigningCommitments parses a signer's public commitments.
func (f *FROST) DecodeSigningCommitments(data []byte) (*SigningCommitments, error) {
	var w wirePair
	if err := f.open(KindSigningCommitment, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &SigningCommitments{Hiding: d.point(w.A), Binding: d.point(w.B)}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeSigningPackage serializes a signing package.
func (f *FROST) EncodeSigningPackage(p *SigningPackage) ([]byte, error) {
	cs := make(map[uint16]wirePair, len(p.Commitments))
	for id, c := range p.Commitments {
		cs[uint16(id)] = wirePair{A: c.Hiding.Bytes(), B: c.Binding.Bytes()}
	}
	return f.seal(KindSigningPackage, &wireSigningPackage{Message: p.Message, Commitments: cs})
}

// DecodeSigningPackage parses a signing package.
func (f *FROST) DecodeSigningPackage(data []byte) (*SigningPackage, error) {
	var w wireSigningPackage
	if err := f.open(KindSigningPackage, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &SigningPackage{
		Message:     w.Message,
		Commitments: make(map[Identifier]*SigningCommitments, len(w.Commitments)),
	}
	for id, c := range w.Commitments {
		if id == 0 {
			d.fail("commitment for identifier 0")
		}
		out.Commitments[Identifier(id)] = &SigningCommitments{Hiding: d.point(c.A), Binding: d.point(c.B)}
	}
	if len(out.Commitments) == 0 {
		d.fail("signing package without commitments")
	}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeSignatureShare serializes a signature share.
func (f *FROST) EncodeSignatureShare(s *SignatureShare) ([]byte, error) {
	return f.seal(KindSignatureShare, &wirePair{A: s.Z.Bytes()})
}

// DecodeSignatureShare parses a signature share.
func (f *FROST) DecodeSignatureShare(data []byte) (*SignatureShare, error) {
	var w wirePair
	if err := f.open(KindSignatureShare, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &SignatureShare{Z: d.scalar(w.A)}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}

// EncodeSignature serializes a final signature.
func (f *FROST) EncodeSignature(s *Signature) ([]byte, error) {
	return f.seal(KindSignature, &wirePair{A: s.R.Bytes(), B: s.Z.Bytes()})
}

// DecodeSignature parses a final signature.
func (f *FROST) DecodeSignature(data []byte) (*Signature, error) {
	var w wirePair
	if err := f.open(KindSignature, data, &w); err != nil {
		return nil, err
	}
	d := &decoder{g: f.group}
	out := &Signature{R: d.point(w.A), Z: d.scalar(w.B)}
	if d.err != nil {
		return nil, d.err
	}
	return out, nil
}
