// Package bjj is the Baby Jubjub [group.Group], selected for ceremonies
// with FROST_CURVE=bjj.
//
// The curve is the twisted Edwards curve a*x^2 + y^2 = 1 + d*x^2*y^2 with
// a = 168700 and d = 168696 over the BN254 scalar field. Scalars live
// modulo the prime subgroup order
//
//	2736030358979909402780800718157159386076813972158567259200215660948447373041
//
// and point arithmetic is delegated to gnark-crypto. It pairs with the
// Blake2b hash suite for Ledger/iden3 compatible signatures:
//
//	f := frost.NewWithHasher(bjj.New(), frost.NewBlake2bHasher())
package bjj
