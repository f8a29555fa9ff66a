package signal

import (
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		key     string
		conf    float64
		wantErr bool
	}{
		{"valid", "identity.width", 0.9, false},
		{"empty key", "", 0.5, true},
		{"confidence too high", "identity.width", 1.5, true},
		{"confidence too low", "identity.width", -0.1, true},
		{"uppercase key", "Identity.Width", 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key, IntValue(10), tt.conf, "identity", []string{"identity"}, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q, conf=%v) err = %v, wantErr %v", tt.key, tt.conf, err, tt.wantErr)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	now := time.Now().UTC()
	a, _ := New("identity.width", IntValue(10), 0.9, "identity", nil, now)
	b, _ := New("identity.width", IntValue(20), 0.1, "identity", nil, now)
	if !a.Equal(b) {
		t.Errorf("signals with same (key, source, timestamp) should be equal regardless of value/confidence")
	}
	c, _ := New("identity.width", IntValue(10), 0.9, "other-wave", nil, now)
	if a.Equal(c) {
		t.Errorf("signals with different source should not be equal")
	}
}

func TestHasTag(t *testing.T) {
	s, _ := New("identity.width", IntValue(10), 0.9, "identity", []string{"identity", "visual"}, time.Now())
	if !s.HasTag("visual") {
		t.Errorf("HasTag(visual) should be true")
	}
	if s.HasTag("ocr") {
		t.Errorf("HasTag(ocr) should be false")
	}
}
