// Package publish sends the node's scan and cloud messages to NATS
// subjects as JSON.
package publish

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/mrs1000/internal/mrs"
)

// layerNumber maps a canonical slot back to the device's layer numbering
// so subject names match the planes as the device documentation labels
// them (slot 0 carries layer 2, the 0 degree plane).
var layerNumber = [mrs.LayerCount]int{2, 3, 1, 4}

// ScanSubject returns the subject for one layer's 2D scans, e.g.
// "lidar.scan.layer_2".
func ScanSubject(prefix string, slot mrs.Slot) string {
	return fmt.Sprintf("%s.scan.layer_%d", prefix, layerNumber[slot])
}

// MultiEchoSubject returns the subject for one layer's multi-echo scans.
func MultiEchoSubject(prefix string, slot mrs.Slot) string {
	return ScanSubject(prefix, slot) + ".multi"
}

// CloudSubject returns the subject for the aggregate point cloud.
func CloudSubject(prefix string) string {
	return prefix + ".cloud"
}

// sender is the transport under the publisher. *nats.Conn satisfies it.
type sender interface {
	Publish(subject string, data []byte) error
}

// Publisher marshals node messages to JSON and hands them to a sender.
// It implements mrs.ScanPublisher and mrs.CloudPublisher.
type Publisher struct {
	prefix string
	conn   sender
}

// NewPublisher wraps an existing transport connection.
func NewPublisher(prefix string, conn sender) *Publisher {
	return &Publisher{prefix: prefix, conn: conn}
}

func (p *Publisher) publish(subject string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishScan sends one layer's 2D scan.
func (p *Publisher) PublishScan(slot mrs.Slot, scan *mrs.LaserScan) error {
	return p.publish(ScanSubject(p.prefix, slot), scan)
}

// PublishMultiEcho sends one layer's multi-echo scan.
func (p *Publisher) PublishMultiEcho(slot mrs.Slot, scan *mrs.MultiEchoLaserScan) error {
	return p.publish(MultiEchoSubject(p.prefix, slot), scan)
}

// PublishCloud sends the aggregate cloud for one rotation cycle.
func (p *Publisher) PublishCloud(cloud *mrs.PointCloud) error {
	return p.publish(CloudSubject(p.prefix), cloud)
}
