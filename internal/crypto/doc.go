// Package crypto provides the primitive adapter for the group key subsystem.
//
// It wraps four capabilities behind algorithm-agnostic functions so that
// higher layers never see scheme-specific types:
//
//   - ML-KEM-1024 key encapsulation (Encapsulate, Decapsulate)
//   - AES-256-GCM authenticated encryption (EncryptAESGCM, DecryptAESGCM)
//   - RFC 3394 AES key wrapping (WrapKey, UnwrapKey)
//   - ML-DSA-87 signatures (Sign, VerifySig)
//
// All wire-format sizes are named constants derived from the published
// parameters of the chosen primitives, so swapping a primitive is a
// single-point change.
package crypto
