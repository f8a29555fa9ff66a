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

package visionllm

import "encoding/base64"

// encodeBase64 is the shared transport-boundary encoding step collab's
// doc comment on GenerateRequest.Images calls for: raw bytes in, base64
// applied by whichever backend needs it on the wire.
func encodeBase64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
