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

package wavectx

import (
	"github.com/klauspost/compress/zstd"

	"github.com/jordigilh/imagewave/pkg/store"
)

// auditEncoder/auditDecoder are process-wide: zstd encoders/decoders are
// safe for concurrent use and expensive enough to construct that sharing
// one pair across every Context is worth the global.
var (
	auditEncoder, _ = zstd.NewWriter(nil)
	auditDecoder, _ = zstd.NewReader(nil)
)

// AuditSnapshot returns a zstd-compressed JSON encoding of c's signals
// at the moment of the call. It exists for audit logging and debug
// export of large profiles (many OCR frames, long vision-LLM captions)
// without carrying every byte of the uncompressed profile through a log
// shipper or the operator-facing debug endpoint.
func (c *Context) AuditSnapshot() []byte {
	raw := store.EncodeProfile(c.AllSignals())
	return auditEncoder.EncodeAll(raw, nil)
}

// DecodeAuditSnapshot reverses the zstd framing AuditSnapshot applies.
// The returned bytes are the same JSON store.EncodeProfile produces;
// callers still need a profile decoder to parse them into signals.
func DecodeAuditSnapshot(compressed []byte) ([]byte, error) {
	return auditDecoder.DecodeAll(compressed, nil)
}
