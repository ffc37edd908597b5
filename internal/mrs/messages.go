// Package mrs contains the core of the MRS1000 streaming node: the
// session state machine that drives the CoLa A device session, the layer
// router that fans single-layer sweeps out to per-layer scan channels,
// and the cloud assembler that synchronizes the four layers into one
// aggregate point cloud per rotation cycle.
package mrs

import "time"

// Geometry and field contracts of the published messages.
const (
	// BeamCount is the configured beam count: 275 deg at 0.25 deg + 1.
	BeamCount = 275*4 + 1

	// LayerCount is the number of scan planes per rotation.
	LayerCount = 4

	// EchoCount is the number of return slots per beam.
	EchoCount = 3

	// RangeMin and RangeMax bound valid distance measurements in meters.
	RangeMin = 0.2
	RangeMax = 64.0
)

// LaserScan is one layer's 2D scan: one range/intensity value per beam
// (first echo only).
type LaserScan struct {
	FrameID        string    `json:"frame_id"`
	Stamp          time.Time `json:"stamp"`
	AngleMin       float64   `json:"angle_min"`       // radians
	AngleMax       float64   `json:"angle_max"`       // radians
	AngleIncrement float64   `json:"angle_increment"` // radians
	ScanTime       float64   `json:"scan_time"`       // seconds per sweep
	TimeIncrement  float64   `json:"time_increment"`  // seconds per beam
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float32 `json:"ranges"`      // meters, len BeamCount
	Intensities    []float32 `json:"intensities"` // len BeamCount
}

// EchoChannel is one return slot holding a per-beam value array.
type EchoChannel struct {
	Echoes []float32 `json:"echoes"` // len BeamCount
}

// MultiEchoLaserScan is one layer's multi-return scan: EchoCount return
// slots, each sized to the beam count.
type MultiEchoLaserScan struct {
	FrameID        string        `json:"frame_id"`
	Stamp          time.Time     `json:"stamp"`
	AngleMin       float64       `json:"angle_min"`
	AngleMax       float64       `json:"angle_max"`
	AngleIncrement float64       `json:"angle_increment"`
	ScanTime       float64       `json:"scan_time"`
	TimeIncrement  float64       `json:"time_increment"`
	RangeMin       float64       `json:"range_min"`
	RangeMax       float64       `json:"range_max"`
	Ranges         []EchoChannel `json:"ranges"`      // len EchoCount
	Intensities    []EchoChannel `json:"intensities"` // len EchoCount
}

// PointField declares one numeric channel of the point cloud.
type PointField struct {
	Name     string `json:"name"`
	Offset   int    `json:"offset"`
	Datatype string `json:"datatype"`
	Count    int    `json:"count"`
}

// CloudFields is the fixed channel layout of the aggregate cloud:
// four float32 channels per point.
var CloudFields = []PointField{
	{Name: "x", Offset: 0, Datatype: "float32", Count: 1},
	{Name: "y", Offset: 4, Datatype: "float32", Count: 1},
	{Name: "z", Offset: 8, Datatype: "float32", Count: 1},
	{Name: "intensity", Offset: 12, Datatype: "float32", Count: 1},
}

// PointCloud is the aggregate 3D cloud for one full cycle: LayerCount rows
// (one per canonical layer slot) by BeamCount columns, stored
// channel-major. Points without a return carry NaN coordinates, so the
// cloud is not dense.
type PointCloud struct {
	FrameID   string       `json:"frame_id"`
	Stamp     time.Time    `json:"stamp"` // start time of the cycle
	CycleID   string       `json:"cycle_id"`
	Height    int          `json:"height"` // LayerCount
	Width     int          `json:"width"`  // BeamCount
	Fields    []PointField `json:"fields"`
	BigEndian bool         `json:"is_bigendian"` // always false
	Dense     bool         `json:"is_dense"`     // always false
	X         []float32    `json:"x"`
	Y         []float32    `json:"y"`
	Z         []float32    `json:"z"`
	Intensity []float32    `json:"intensity"`
}

// ScanPublisher is the per-layer output side consumed by the router.
// Implementations must not block the session loop.
type ScanPublisher interface {
	PublishScan(slot Slot, scan *LaserScan) error
	PublishMultiEcho(slot Slot, scan *MultiEchoLaserScan) error
}

// CloudPublisher is the aggregate cloud output consumed by the assembler.
type CloudPublisher interface {
	PublishCloud(cloud *PointCloud) error
}
