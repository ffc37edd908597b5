package colaa

import (
	"fmt"
	"strings"
)

// Telegram type identifiers.
const (
	cmdRead         = "sRN"
	cmdReadAnswer   = "sRA"
	cmdWrite        = "sWN"
	cmdWriteAnswer  = "sWA"
	cmdMethod       = "sMN"
	cmdMethodAnswer = "sAN"
	cmdEvent        = "sEN"
	cmdEventAnswer  = "sEA"
	cmdEventData    = "sSN"

	nameScanData = "LMDscandata"
)

// maxChannels bounds the echo channel blocks accepted per telegram. The
// MRS1000 outputs at most three DIST/RSSI channel pairs.
const maxChannels = 3

// maxBeamsPerChannel bounds the per-channel sample count (275 deg at
// 0.25 deg plus one, with headroom).
const maxBeamsPerChannel = 1101

// IsScanData reports whether payload is an LMDscandata event telegram.
func IsScanData(payload string) bool {
	return strings.HasPrefix(payload, cmdEventData+" "+nameScanData)
}

// ParseScanData decodes the body of an sSN LMDscandata telegram into a
// ScanData measurement unit.
func ParseScanData(payload string) (*ScanData, error) {
	s := newFieldScanner(payload)
	if typ := s.next(); typ != cmdEventData {
		return nil, fmt.Errorf("colaa: unexpected telegram type %q", typ)
	}
	if name := s.next(); name != nameScanData {
		return nil, fmt.Errorf("colaa: unexpected telegram name %q", name)
	}

	var data ScanData
	h := &data.Header
	h.VersionNumber = s.hexU16()
	h.DeviceNumber = s.hexU16()
	h.SerialNumber = s.hexU32()
	h.DeviceStatus = s.hexU16()
	h.TelegramCounter = s.hexU16()
	h.ScanCounter = s.hexU16()
	h.TimeSinceStartup = s.hexU32()
	h.TransmissionTime = s.hexU32()
	h.LayerAngle = LayerAngle(s.hexI16())
	h.ScanFrequency = s.hexU32()
	h.MeasurementFrequency = s.hexU32()
	if s.err != nil {
		return nil, s.err
	}

	dist, err := parseChannelBlocks(s, "DIST")
	if err != nil {
		return nil, err
	}
	data.DistChannels = dist

	rssi, err := parseChannelBlocks(s, "RSSI")
	if err != nil {
		return nil, err
	}
	data.RSSIChannels = rssi

	return &data, nil
}

func parseChannelBlocks(s *fieldScanner, kind string) ([]ChannelData, error) {
	count := s.hexU16()
	if s.err != nil {
		return nil, s.err
	}
	if count > maxChannels {
		return nil, fmt.Errorf("colaa: %d %s channels exceeds limit %d", count, kind, maxChannels)
	}
	channels := make([]ChannelData, 0, count)
	for i := 0; i < int(count); i++ {
		var ch ChannelData
		ch.Content = s.next()
		ch.ScaleFactor = s.hexFloat32()
		ch.ScaleOffset = s.hexFloat32()
		ch.StartAngle = s.hexI32()
		ch.AngularStep = s.hexU16()
		samples := s.hexU16()
		if s.err != nil {
			return nil, s.err
		}
		if !strings.HasPrefix(ch.Content, kind) {
			return nil, fmt.Errorf("colaa: channel %d content %q, want %s*", i, ch.Content, kind)
		}
		if samples > maxBeamsPerChannel {
			return nil, fmt.Errorf("colaa: channel %q has %d samples, limit %d", ch.Content, samples, maxBeamsPerChannel)
		}
		ch.Data = make([]uint16, samples)
		for j := range ch.Data {
			ch.Data[j] = s.hexU16()
		}
		if s.err != nil {
			return nil, s.err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// MarshalScanData builds the payload of an sSN LMDscandata telegram. It is
// the inverse of ParseScanData; the telegram-replay tool and the fake
// device used in tests emit telegrams through it.
func MarshalScanData(data *ScanData) string {
	var b strings.Builder
	h := &data.Header
	fmt.Fprintf(&b, "%s %s", cmdEventData, nameScanData)
	fmt.Fprintf(&b, " %s %s %s %s", hexU16(h.VersionNumber), hexU16(h.DeviceNumber), hexU32(h.SerialNumber), hexU16(h.DeviceStatus))
	fmt.Fprintf(&b, " %s %s", hexU16(h.TelegramCounter), hexU16(h.ScanCounter))
	fmt.Fprintf(&b, " %s %s", hexU32(h.TimeSinceStartup), hexU32(h.TransmissionTime))
	fmt.Fprintf(&b, " %s %s %s", hexI16(int16(h.LayerAngle)), hexU32(h.ScanFrequency), hexU32(h.MeasurementFrequency))
	marshalChannelBlocks(&b, data.DistChannels)
	marshalChannelBlocks(&b, data.RSSIChannels)
	return b.String()
}

func marshalChannelBlocks(b *strings.Builder, channels []ChannelData) {
	fmt.Fprintf(b, " %s", hexU16(uint16(len(channels))))
	for _, ch := range channels {
		fmt.Fprintf(b, " %s %s %s %s %s %s",
			ch.Content,
			hexFloat32(ch.ScaleFactor),
			hexFloat32(ch.ScaleOffset),
			hexI32(ch.StartAngle),
			hexU16(ch.AngularStep),
			hexU16(uint16(len(ch.Data))))
		for _, v := range ch.Data {
			fmt.Fprintf(b, " %s", hexU16(v))
		}
	}
}
