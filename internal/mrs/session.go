package mrs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/mrs1000/internal/colaa"
	"github.com/banshee-data/mrs1000/internal/monitoring"
	"github.com/banshee-data/mrs1000/internal/timeutil"
	"github.com/banshee-data/mrs1000/internal/units"
)

// State is the session's lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateConfiguring
	StateStreaming
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateConfiguring:
		return "configuring"
	case StateStreaming:
		return "streaming"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Recovery delays. A data timeout costs a longer back-off than a failed
// connect because the device restarts measurement after reconfiguration
// and needs time to settle.
const (
	ConnectRetryInterval = 1 * time.Second
	FaultRecoveryDelay   = 10 * time.Second
)

// Driver is the device control surface the session drives. colaa.Client
// is the production implementation; tests substitute a fake.
type Driver interface {
	Connect(host string, port int) error
	IsConnected() bool
	Disconnect() error

	Login() error
	ScanConfig() (colaa.ScanConfig, error)
	ScanOutputRange() (colaa.ScanOutputRange, error)
	SetScanDataConfig(cfg colaa.ScanDataConfig) error
	SetEchoFilter(filter colaa.EchoFilter) error
	EnableRangingApplication() error
	SaveConfig() error
	StartDevice() error
	StartMeasurement() error
	ScanContinuous(enable bool) error
	GetScanData(data *colaa.ScanData) bool
}

var _ Driver = (*colaa.Client)(nil)

// Timing carries the per-scan timing fields derived from the device's
// reported scan configuration.
type Timing struct {
	// ScanTime is the duration of one full rotation in seconds.
	ScanTime float64
	// TimeIncrement is the time between consecutive beams in seconds.
	TimeIncrement float64
}

// DeriveTiming computes scan timing from the device-reported sweep
// frequency (1/100 Hz) and the output range's angular resolution
// (1/10000 degree). The time increment formula matches the device
// driver's historical behavior: resolution in degrees over 360, divided
// by the scan time.
func DeriveTiming(cfg colaa.ScanConfig, rng colaa.ScanOutputRange) Timing {
	if cfg.ScanFrequency == 0 {
		return Timing{}
	}
	scanTime := units.CentiHzPerHz / float64(cfg.ScanFrequency)
	return Timing{
		ScanTime:      scanTime,
		TimeIncrement: units.TicksToDegrees(int32(rng.AngularResolution)) / 360.0 / scanTime,
	}
}

// SessionConfig wires a Session to its device and output pipeline.
type SessionConfig struct {
	Host string
	Port int

	Driver    Driver
	Router    *Router
	Assembler *CloudAssembler

	// Clock defaults to the real clock when nil.
	Clock timeutil.Clock
}

// Session runs the device lifecycle: connect, authenticate, configure,
// then stream measurement data into the router and cloud assembler.
// Every failure is recoverable; the session retries indefinitely until
// its context is cancelled.
type Session struct {
	id    string
	cfg   SessionConfig
	clock timeutil.Clock
	state State
}

// NewSession creates a session for the given configuration. Each session
// gets an ID that tags its log lines.
func NewSession(cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		clock: clock,
		state: StateDisconnected,
	}
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State { return s.state }

func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	monitoring.Logf("mrs: session %s: %s -> %s", s.id, s.state, to)
	s.state = to
}

// Run drives the session until ctx is cancelled. It always returns
// ctx.Err(), with the device disconnected.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.cfg.Driver.Disconnect(); err != nil {
			monitoring.Logf("mrs: disconnect: %v", err)
		}
		s.transition(StateDisconnected)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.cfg.Driver.IsConnected() {
			s.transition(StateConnecting)
			if err := s.cfg.Driver.Connect(s.cfg.Host, s.cfg.Port); err != nil {
				monitoring.Logf("mrs: connect %s:%d: %v", s.cfg.Host, s.cfg.Port, err)
				s.transition(StateDisconnected)
				s.clock.Sleep(ConnectRetryInterval)
				continue
			}
		}

		if err := s.configure(); err != nil {
			monitoring.Logf("mrs: configure: %v", err)
			s.fault()
			continue
		}

		if timedOut := s.stream(ctx); timedOut {
			s.fault()
			continue
		}
	}
}

// configure logs in, reads the device's scan parameters, and arms
// continuous measurement. On success the session is streaming.
func (s *Session) configure() error {
	s.transition(StateAuthenticating)
	if err := s.cfg.Driver.Login(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	scanCfg, err := s.cfg.Driver.ScanConfig()
	if err != nil {
		return fmt.Errorf("read scan config: %w", err)
	}
	outputRange, err := s.cfg.Driver.ScanOutputRange()
	if err != nil {
		return fmt.Errorf("read output range: %w", err)
	}
	monitoring.Logf("mrs: device scan frequency %.2f Hz, resolution %.4f deg, range [%.2f, %.2f] deg",
		units.CentiHzToHz(scanCfg.ScanFrequency),
		units.TicksToDegrees(int32(outputRange.AngularResolution)),
		units.TicksToDegrees(outputRange.StartAngle),
		units.TicksToDegrees(outputRange.StopAngle))

	s.transition(StateConfiguring)
	dataCfg := colaa.ScanDataConfig{
		OutputChannel:  0x07, // all three echo channels
		Remission:      true,
		Resolution:     0,
		Encoder:        0,
		Position:       false,
		DeviceName:     false,
		Comment:        false,
		Timestamp:      1,
		OutputInterval: 1,
	}
	if err := s.cfg.Driver.SetScanDataConfig(dataCfg); err != nil {
		return fmt.Errorf("set scan data config: %w", err)
	}
	if err := s.cfg.Driver.SetEchoFilter(colaa.EchoAll); err != nil {
		return fmt.Errorf("set echo filter: %w", err)
	}
	if err := s.cfg.Driver.EnableRangingApplication(); err != nil {
		return fmt.Errorf("enable ranging: %w", err)
	}
	if err := s.cfg.Driver.SaveConfig(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := s.cfg.Driver.StartDevice(); err != nil {
		return fmt.Errorf("start device: %w", err)
	}
	if err := s.cfg.Driver.StartMeasurement(); err != nil {
		return fmt.Errorf("start measurement: %w", err)
	}
	if err := s.cfg.Driver.ScanContinuous(true); err != nil {
		return fmt.Errorf("enable continuous scan: %w", err)
	}

	s.cfg.Router.SetTiming(DeriveTiming(scanCfg, outputRange))
	s.cfg.Assembler.Desync()
	s.transition(StateStreaming)
	return nil
}

// stream consumes measurement units until the context is cancelled or
// the device stops delivering data. It reports true when streaming ended
// on a data timeout rather than cancellation.
func (s *Session) stream(ctx context.Context) (timedOut bool) {
	var unit colaa.ScanData
	for {
		if ctx.Err() != nil {
			return false
		}
		if !s.cfg.Driver.GetScanData(&unit) {
			monitoring.Logf("mrs: no scan data from device, restarting session")
			return true
		}
		stamp := s.clock.Now()
		s.cfg.Router.Route(&unit, stamp)
		s.cfg.Assembler.Observe(&unit, stamp)
	}
}

// fault backs off, then tears the connection down so the next iteration
// reconnects from scratch.
func (s *Session) fault() {
	s.transition(StateFaulted)
	s.clock.Sleep(FaultRecoveryDelay)
	if err := s.cfg.Driver.Disconnect(); err != nil {
		monitoring.Logf("mrs: disconnect: %v", err)
	}
	s.transition(StateDisconnected)
}
