// Package colaa implements the SICK CoLa A command protocol spoken by the
// MRS1000 over TCP. It owns telegram framing, the login/configuration
// command set, and parsing of LMDscandata measurement telegrams.
package colaa

// LayerAngle identifies the scan plane that produced a measurement. The
// device encodes it as 1/100 degree in the scan header status info.
type LayerAngle int16

// The four MRS1000 scan planes. Physical emission order per rotation is
// Layer2, Layer3, Layer1, Layer4.
const (
	Layer1 LayerAngle = 250  // +2.50 deg
	Layer2 LayerAngle = 0    // 0 deg
	Layer3 LayerAngle = -250 // -2.50 deg
	Layer4 LayerAngle = -500 // -5.00 deg
)

// ScanConfig holds the device-reported sweep parameters (sRN LMPscancfg).
// Raw wire units: frequency in 1/100 Hz, angles in 1/10000 degree.
type ScanConfig struct {
	ScanFrequency     uint32 // 1/100 Hz (5000 = 50 Hz)
	NumSectors        int16
	AngularResolution uint32 // 1/10000 deg (2500 = 0.25 deg)
	StartAngle        int32  // 1/10000 deg
	StopAngle         int32  // 1/10000 deg
}

// ScanOutputRange holds the device-reported output angular range
// (sRN LMPoutputRange).
type ScanOutputRange struct {
	AngularResolution uint32 // 1/10000 deg
	StartAngle        int32  // 1/10000 deg
	StopAngle         int32  // 1/10000 deg
}

// ScanDataConfig selects which fields the device includes in measurement
// telegrams (sWN LMDscandatacfg).
type ScanDataConfig struct {
	OutputChannel  int  // bitmask of echo channels to output (7 = first three)
	Remission      bool // include RSSI channels
	Resolution     int  // 0 = 8 bit, 1 = 16 bit remission values
	Encoder        int
	Position       bool
	DeviceName     bool
	Comment        bool
	Timestamp      int // 1 = include transmission timestamp
	OutputInterval int // 1 = every scan
}

// EchoFilter selects which echoes the device reports per beam
// (sWN FREchoFilter).
type EchoFilter int

const (
	EchoFirst EchoFilter = 0
	EchoAll   EchoFilter = 1
	EchoLast  EchoFilter = 2
)

// ScanDataHeader is the fixed leading part of an LMDscandata telegram.
type ScanDataHeader struct {
	VersionNumber        uint16
	DeviceNumber         uint16
	SerialNumber         uint32
	DeviceStatus         uint16
	TelegramCounter      uint16
	ScanCounter          uint16
	TimeSinceStartup     uint32 // microseconds
	TransmissionTime     uint32 // microseconds
	LayerAngle           LayerAngle
	ScanFrequency        uint32 // 1/100 Hz
	MeasurementFrequency uint32 // 100 Hz units
}

// ChannelData is one 16-bit output channel block (DIST or RSSI) from an
// LMDscandata telegram.
type ChannelData struct {
	Content     string  // "DIST1".."DIST3", "RSSI1".."RSSI3"
	ScaleFactor float64 // multiplier applied to raw values
	ScaleOffset float64
	StartAngle  int32  // 1/10000 deg
	AngularStep uint16 // 1/10000 deg
	Data        []uint16
}

// ScanData is one layer's single-sweep measurement unit: the parsed body
// of an LMDscandata telegram.
type ScanData struct {
	Header       ScanDataHeader
	DistChannels []ChannelData
	RSSIChannels []ChannelData
}
