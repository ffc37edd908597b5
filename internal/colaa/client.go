package colaa

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/banshee-data/mrs1000/internal/monitoring"
)

// Default client timeouts. The read timeout bounds a single GetScanData
// wait; session-level recovery on timeout is the caller's concern.
const (
	DefaultDialTimeout = 5 * time.Second
	DefaultReadTimeout = 2 * time.Second
)

// Client is a CoLa A session over TCP. It is not safe for concurrent use;
// the session loop is the sole owner.
type Client struct {
	conn        net.Conn
	br          *bufio.Reader
	dialTimeout time.Duration
	readTimeout time.Duration
}

// NewClient returns a disconnected client with default timeouts.
func NewClient() *Client {
	return &Client{
		dialTimeout: DefaultDialTimeout,
		readTimeout: DefaultReadTimeout,
	}
}

// Connect opens the TCP transport to the device. A failed dial leaves the
// client disconnected; callers retry via IsConnected.
func (c *Client) Connect(host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("colaa: connect %s: %w", addr, err)
	}
	c.conn = conn
	c.br = bufio.NewReaderSize(conn, 64*1024)
	return nil
}

// IsConnected reports whether the transport is open.
func (c *Client) IsConnected() bool {
	return c.conn != nil
}

// Disconnect force-closes the transport. Safe to call when already closed.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// request sends one command telegram and returns the next reply payload.
func (c *Client) request(payload string) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("colaa: not connected")
	}
	if err := writeTelegram(c.conn, payload); err != nil {
		return "", err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return "", fmt.Errorf("colaa: set read deadline: %w", err)
	}
	reply, err := readTelegram(c.br)
	if err != nil {
		return "", fmt.Errorf("colaa: read reply to %q: %w", payload, err)
	}
	return reply, nil
}

// expect sends a command and verifies the reply starts with the given
// answer prefix (e.g. "sAN Run").
func (c *Client) expect(payload, answerPrefix string) (string, error) {
	reply, err := c.request(payload)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(reply, answerPrefix) {
		return "", fmt.Errorf("colaa: command %q: unexpected reply %q", payload, reply)
	}
	return reply, nil
}

// Login authenticates as authorized client (sMN SetAccessMode).
func (c *Client) Login() error {
	_, err := c.expect("sMN SetAccessMode 03 F4724744", "sAN SetAccessMode")
	return err
}

// ScanConfig reads the current sweep parameters (sRN LMPscancfg).
func (c *Client) ScanConfig() (ScanConfig, error) {
	reply, err := c.expect("sRN LMPscancfg", "sRA LMPscancfg")
	if err != nil {
		return ScanConfig{}, err
	}
	s := newFieldScanner(reply)
	s.next() // sRA
	s.next() // LMPscancfg
	cfg := ScanConfig{
		ScanFrequency:     s.hexU32(),
		NumSectors:        s.hexI16(),
		AngularResolution: s.hexU32(),
		StartAngle:        s.hexI32(),
		StopAngle:         s.hexI32(),
	}
	if s.err != nil {
		return ScanConfig{}, fmt.Errorf("colaa: parse LMPscancfg: %w", s.err)
	}
	return cfg, nil
}

// ScanOutputRange reads the output angular range (sRN LMPoutputRange).
func (c *Client) ScanOutputRange() (ScanOutputRange, error) {
	reply, err := c.expect("sRN LMPoutputRange", "sRA LMPoutputRange")
	if err != nil {
		return ScanOutputRange{}, err
	}
	s := newFieldScanner(reply)
	s.next() // sRA
	s.next() // LMPoutputRange
	s.next() // range count, always 1 on this device
	r := ScanOutputRange{
		AngularResolution: s.hexU32(),
		StartAngle:        s.hexI32(),
		StopAngle:         s.hexI32(),
	}
	if s.err != nil {
		return ScanOutputRange{}, fmt.Errorf("colaa: parse LMPoutputRange: %w", s.err)
	}
	return r, nil
}

// SetScanDataConfig pushes the scan data output configuration
// (sWN LMDscandatacfg).
func (c *Client) SetScanDataConfig(cfg ScanDataConfig) error {
	payload := fmt.Sprintf("sWN LMDscandatacfg %02X 00 %s %d 0 %02X %s %s %s %d +%d",
		cfg.OutputChannel,
		boolField(cfg.Remission),
		cfg.Resolution,
		cfg.Encoder,
		boolField(cfg.Position),
		boolField(cfg.DeviceName),
		boolField(cfg.Comment),
		cfg.Timestamp,
		cfg.OutputInterval,
	)
	_, err := c.expect(payload, "sWA LMDscandatacfg")
	return err
}

// SetEchoFilter selects which echoes are reported per beam
// (sWN FREchoFilter).
func (c *Client) SetEchoFilter(f EchoFilter) error {
	_, err := c.expect(fmt.Sprintf("sWN FREchoFilter %d", f), "sWA FREchoFilter")
	return err
}

// EnableRangingApplication activates the ranging application so the device
// emits measurement data (sWN SetActiveApplications).
func (c *Client) EnableRangingApplication() error {
	_, err := c.expect("sWN SetActiveApplications 1 RANG 1", "sWA SetActiveApplications")
	return err
}

// SaveConfig persists the pushed configuration to the device
// (sMN mEEwriteall).
func (c *Client) SaveConfig() error {
	_, err := c.expect("sMN mEEwriteall", "sAN mEEwriteall")
	return err
}

// StartDevice logs out of configuration mode and re-enables the system
// (sMN Run).
func (c *Client) StartDevice() error {
	_, err := c.expect("sMN Run", "sAN Run")
	return err
}

// StartMeasurement spins up the measurement subsystem (sMN LMCstartmeas).
func (c *Client) StartMeasurement() error {
	_, err := c.expect("sMN LMCstartmeas", "sAN LMCstartmeas")
	return err
}

// ScanContinuous subscribes to (or cancels) the continuous LMDscandata
// event stream (sEN LMDscandata).
func (c *Client) ScanContinuous(enable bool) error {
	_, err := c.expect(fmt.Sprintf("sEN LMDscandata %s", boolField(enable)), "sEA LMDscandata")
	return err
}

// GetScanData blocks for up to the read timeout waiting for the next
// LMDscandata event and decodes it into data. It returns false on timeout;
// the session treats that as a liveness failure. Non-scan telegrams
// arriving on the stream are skipped.
func (c *Client) GetScanData(data *ScanData) bool {
	if c.conn == nil {
		return false
	}
	deadline := time.Now().Add(c.readTimeout)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return false
	}
	for {
		payload, err := readTelegram(c.br)
		if err != nil {
			return false
		}
		if !IsScanData(payload) {
			monitoring.Logf("colaa: skipping non-scan telegram %.32q", payload)
			continue
		}
		parsed, err := ParseScanData(payload)
		if err != nil {
			monitoring.Logf("colaa: bad scan telegram: %v", err)
			continue
		}
		*data = *parsed
		return true
	}
}
