package colaa

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleScanData(layer LayerAngle, fill uint16) *ScanData {
	dist := ChannelData{
		Content:     "DIST1",
		ScaleFactor: 1,
		ScaleOffset: 0,
		StartAngle:  -1375000,
		AngularStep: 2500,
		Data:        []uint16{fill, fill + 1, fill + 2},
	}
	rssi := dist
	rssi.Content = "RSSI1"
	rssi.Data = []uint16{10, 20, 30}
	return &ScanData{
		Header: ScanDataHeader{
			VersionNumber:        1,
			DeviceNumber:         1,
			SerialNumber:         0x00E1A2B3,
			TelegramCounter:      7,
			ScanCounter:          7,
			TimeSinceStartup:     123456,
			TransmissionTime:     123999,
			LayerAngle:           layer,
			ScanFrequency:        5000,
			MeasurementFrequency: 3600,
		},
		DistChannels: []ChannelData{dist},
		RSSIChannels: []ChannelData{rssi},
	}
}

func TestParseScanData(t *testing.T) {
	want := sampleScanData(Layer3, 100)
	payload := MarshalScanData(want)

	if !IsScanData(payload) {
		t.Fatalf("IsScanData(%q) = false", payload[:32])
	}

	got, err := ParseScanData(payload)
	if err != nil {
		t.Fatalf("ParseScanData: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scan data mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScanDataNegativeLayerAngle(t *testing.T) {
	// -500 (Layer4) crosses the signed boundary: wire encoding is fe0c.
	payload := MarshalScanData(sampleScanData(Layer4, 1))
	if !strings.Contains(payload, " fe0c ") {
		t.Errorf("payload missing two's complement layer angle: %q", payload)
	}
	got, err := ParseScanData(payload)
	if err != nil {
		t.Fatalf("ParseScanData: %v", err)
	}
	if got.Header.LayerAngle != Layer4 {
		t.Errorf("LayerAngle = %d, want %d", got.Header.LayerAngle, Layer4)
	}
}

func TestParseScanDataRejectsWrongTelegram(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"wrong type", "sRA LMDscandata 1 1"},
		{"wrong name", "sSN LMDoutputstate 0 0"},
		{"truncated", "sSN LMDscandata 1 1 e1a2b3"},
		{"channel overflow", "sSN LMDscandata 1 1 e1a2b3 0 7 7 1e240 1e45f fff0 1388 e10 9"},
	}
	for _, c := range cases {
		if _, err := ParseScanData(c.payload); err == nil {
			t.Errorf("%s: ParseScanData accepted %q", c.name, c.payload)
		}
	}
}

func TestParseScanDataNoRemission(t *testing.T) {
	data := sampleScanData(Layer2, 5)
	data.RSSIChannels = nil
	got, err := ParseScanData(MarshalScanData(data))
	if err != nil {
		t.Fatalf("ParseScanData: %v", err)
	}
	if len(got.RSSIChannels) != 0 {
		t.Errorf("RSSIChannels = %d, want 0", len(got.RSSIChannels))
	}
}

func TestFieldScannerSigned(t *testing.T) {
	s := newFieldScanner("fe0c ffeb0250")
	if got := s.hexI16(); got != -500 {
		t.Errorf("hexI16 = %d, want -500", got)
	}
	if got := s.hexI32(); got != -1375664 {
		t.Errorf("hexI32 = %d, want -1375664", got)
	}
	if s.err != nil {
		t.Fatalf("scanner error: %v", s.err)
	}
	s.next()
	if s.err == nil {
		t.Error("expected short telegram error after consuming all fields")
	}
}
