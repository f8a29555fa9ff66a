/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package hashing computes the two content hashes the pipeline keys on:
// a fast non-cryptographic xxhash64 for the in-memory cache id, and the
// durable SHA-256 digest IdentityWave records as image_hash.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Digest carries both hash forms for a single read of the image bytes.
type Digest struct {
	SHA256  string // hex-encoded, durable image_hash / SignalStore key
	XXHash  uint64 // fast, non-cryptographic, in-memory cache id
}

// FromBytes hashes b once with each algorithm.
func FromBytes(b []byte) Digest {
	sum := sha256.Sum256(b)
	return Digest{
		SHA256: hex.EncodeToString(sum[:]),
		XXHash: xxhash.Sum64(b),
	}
}

// FromReader streams r through both hashers without buffering the whole
// payload, for large or animated source files.
func FromReader(r io.Reader) (Digest, error) {
	sha := sha256.New()
	xh := xxhash.New()
	mw := io.MultiWriter(sha, xh)
	if _, err := io.Copy(mw, r); err != nil {
		return Digest{}, err
	}
	return Digest{
		SHA256: hex.EncodeToString(sha.Sum(nil)),
		XXHash: xh.Sum64(),
	}, nil
}

// CacheKey is the fast in-memory LRU key: a fixed-width hex encoding of
// the xxhash64, distinct from the durable SHA-256 image_hash.
func (d Digest) CacheKey() string {
	return hex.EncodeToString(uint64ToBytes(d.XXHash))
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
