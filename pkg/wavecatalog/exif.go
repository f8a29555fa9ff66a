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

package wavecatalog

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"time"

	"github.com/jordigilh/imagewave/pkg/imgio"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// ExifForensicsWave runs at priority 90: sniff the container format from
// magic bytes (independent of whatever decoder IdentityWave used), and
// for JPEGs, walk the EXIF TIFF structure for a small set of forensic
// fields. The exif.detected_format signal is what the
// exif_format_mismatch contradiction rule cross-checks against
// identity.format — a mismatch there usually means a renamed or
// re-packaged file.
type ExifForensicsWave struct{}

func NewExifForensicsWave() *ExifForensicsWave { return &ExifForensicsWave{} }

func (w *ExifForensicsWave) Name() string   { return "ExifForensics" }
func (w *ExifForensicsWave) Priority() int  { return wave.PriorityExifForensics }
func (w *ExifForensicsWave) Tags() []string { return []string{"identity"} }
func (w *ExifForensicsWave) ShouldRun(context.Context, string, *wavectx.Context) bool {
	return true
}

func (w *ExifForensicsWave) Analyze(_ context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("read image", err).WithResource(imagePath)
	}
	now := time.Now().UTC()
	format := imgio.SniffFormat(data)

	sigs := []signal.Signal{w.sig("exif.detected_format", signal.StringValue(format), 1.0, now)}

	if format != "jpeg" {
		return sigs, nil
	}

	seg, ok := findEXIFSegment(data)
	sigs = append(sigs, w.sig("exif.present", signal.BoolValue(ok), 1.0, now))
	if !ok {
		return sigs, nil
	}

	tags := parseEXIFTags(seg)
	if v, ok := tags[tagMake]; ok {
		sigs = append(sigs, w.sig("exif.camera_make", signal.StringValue(v), 0.9, now))
	}
	if v, ok := tags[tagModel]; ok {
		sigs = append(sigs, w.sig("exif.camera_model", signal.StringValue(v), 0.9, now))
	}
	if v, ok := tags[tagSoftware]; ok {
		sigs = append(sigs, w.sig("exif.software", signal.StringValue(v), 0.9, now))
	}
	if v, ok := tags[tagDateTime]; ok {
		sigs = append(sigs, w.sig("exif.datetime_original", signal.StringValue(v), 0.9, now))
	}
	_, hasGPS := tags[tagGPSInfo]
	sigs = append(sigs, w.sig("exif.has_gps", signal.BoolValue(hasGPS), 0.9, now))

	return sigs, nil
}

func (w *ExifForensicsWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"identity"}, at)
	if err != nil {
		panic(err)
	}
	return s
}

// findEXIFSegment scans JPEG markers for an APP1 segment carrying the
// "Exif\x00\x00" signature and returns the TIFF payload that follows it.
func findEXIFSegment(data []byte) ([]byte, bool) {
	i := 2 // skip SOI marker 0xFFD8
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xDA { // start of scan: no more markers follow
			break
		}
		if i+4 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			break
		}
		segment := data[i+4 : i+2+length]
		if marker == 0xE1 && bytes.HasPrefix(segment, []byte("Exif\x00\x00")) {
			return segment[6:], true
		}
		i += 2 + length
	}
	return nil, false
}

const (
	tagMake     = 0x010F
	tagModel    = 0x0110
	tagSoftware = 0x0131
	tagDateTime = 0x0132
	tagGPSInfo  = 0x8825
)

// parseEXIFTags walks IFD0 of a TIFF-structured EXIF payload and returns
// the handful of ASCII-valued tags this wave surfaces. It deliberately
// only supports ASCII (type 2) values inline or via offset — enough for
// make/model/software/datetime, not a general-purpose EXIF decoder.
func parseEXIFTags(tiff []byte) map[uint16]string {
	out := map[uint16]string{}
	if len(tiff) < 8 {
		return out
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return out
	}
	ifdOffset := order.Uint32(tiff[4:8])
	if int(ifdOffset)+2 > len(tiff) {
		return out
	}
	entryCount := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	base := int(ifdOffset) + 2

	for e := 0; e < entryCount; e++ {
		entryOff := base + e*12
		if entryOff+12 > len(tiff) {
			break
		}
		entry := tiff[entryOff : entryOff+12]
		tag := order.Uint16(entry[0:2])
		typ := order.Uint16(entry[2:4])
		count := order.Uint32(entry[4:8])

		if tag == tagGPSInfo {
			out[tag] = "" // presence only; GPS IFD itself isn't walked
			continue
		}
		if typ != 2 || count == 0 { // only ASCII strings
			continue
		}

		var valueBytes []byte
		if count <= 4 {
			valueBytes = entry[8 : 8+count]
		} else {
			valOffset := order.Uint32(entry[8:12])
			end := int(valOffset) + int(count)
			if end > len(tiff) || int(valOffset) > end {
				continue
			}
			valueBytes = tiff[valOffset:end]
		}
		out[tag] = string(bytes.TrimRight(valueBytes, "\x00"))
	}
	return out
}
