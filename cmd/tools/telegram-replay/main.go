// Command telegram-replay emulates the CoLa A side of an MRS1000 so the
// node can be run against recorded or synthetic data.
//
// It answers the node's login and configuration commands with canned
// replies and, once continuous output is enabled, streams LMDscandata
// telegrams at the device's layer rate. Telegrams come from a recording
// (one payload per line, STX/ETX stripped) or, with no -log flag, from a
// built-in synthetic four-layer cycle.
//
// Usage:
//
//	go run ./cmd/tools/telegram-replay [flags]
//
// Flags:
//
//	-addr      Listen address (default: localhost:2111)
//	-log       Path to a telegram recording (optional)
//	-interval  Delay between telegrams (default: 5ms, one layer at 50 Hz)
//	-loop      Restart the recording when it ends (default: true)
package main

import (
	"bufio"
	"flag"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/mrs1000/internal/colaa"
)

var (
	addr     = flag.String("addr", "localhost:2111", "Listen address")
	logPath  = flag.String("log", "", "Path to telegram recording (optional)")
	interval = flag.Duration("interval", 5*time.Millisecond, "Delay between telegrams")
	loop     = flag.Bool("loop", true, "Restart the recording when it ends")
)

// replies answers the configuration commands the node issues on connect.
// Values mirror a device configured for 50 Hz, 0.25 deg, 275 deg range.
var replies = map[string]string{
	"sMN SetAccessMode":         "sAN SetAccessMode 1",
	"sRN LMPscancfg":            "sRA LMPscancfg 1388 1 9c4 ffeb04e8 14fb18",
	"sRN LMPoutputRange":        "sRA LMPoutputRange 1 9c4 ffeb04e8 14fb18",
	"sWN LMDscandatacfg":        "sWA LMDscandatacfg",
	"sWN FREchoFilter":          "sWA FREchoFilter",
	"sWN SetActiveApplications": "sWA SetActiveApplications",
	"sMN mEEwriteall":           "sAN mEEwriteall 1",
	"sMN Run":                   "sAN Run 1",
	"sMN LMCstartmeas":          "sAN LMCstartmeas 0",
	"sEN LMDscandata":           "sEA LMDscandata 1",
}

func main() {
	flag.Parse()

	telegrams, err := loadTelegrams(*logPath)
	if err != nil {
		log.Fatalf("Failed to load recording: %v", err)
	}
	log.Printf("Serving %d telegrams on %s (interval %v, loop %v)",
		len(telegrams), *addr, *interval, *loop)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", *addr, err)
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalf("Accept: %v", err)
		}
		log.Printf("Client connected from %s", conn.RemoteAddr())
		go serve(conn, telegrams)
	}
}

// loadTelegrams reads one telegram payload per line, or builds a
// synthetic four-layer cycle when path is empty.
func loadTelegrams(path string) ([]string, error) {
	if path == "" {
		return syntheticCycle(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var telegrams []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !colaa.IsScanData(line) {
			log.Printf("Skipping non-scan line: %.40s...", line)
			continue
		}
		telegrams = append(telegrams, line)
	}
	return telegrams, sc.Err()
}

// syntheticCycle builds one rotation of scan telegrams in emission order
// with a flat wall at 10 m.
func syntheticCycle() []string {
	const beams = 1101
	dist := make([]uint16, beams)
	rssi := make([]uint16, beams)
	for i := range dist {
		dist[i] = 10000 // 10 m in mm
		rssi[i] = 120
	}

	var telegrams []string
	for i, layer := range []colaa.LayerAngle{colaa.Layer2, colaa.Layer3, colaa.Layer1, colaa.Layer4} {
		data := &colaa.ScanData{
			Header: colaa.ScanDataHeader{
				VersionNumber:        1,
				ScanCounter:          uint16(i),
				LayerAngle:           layer,
				ScanFrequency:        5000,
				MeasurementFrequency: 2750,
			},
			DistChannels: []colaa.ChannelData{{
				Content:     "DIST1",
				ScaleFactor: 1,
				StartAngle:  -1375000,
				AngularStep: 2500,
				Data:        dist,
			}},
			RSSIChannels: []colaa.ChannelData{{
				Content:     "RSSI1",
				ScaleFactor: 1,
				StartAngle:  -1375000,
				AngularStep: 2500,
				Data:        rssi,
			}},
		}
		telegrams = append(telegrams, colaa.MarshalScanData(data))
	}
	return telegrams
}

// serve answers commands on one connection, then streams telegrams once
// continuous output is requested.
func serve(conn net.Conn, telegrams []string) {
	defer conn.Close()
	br := bufio.NewReader(conn)

	for {
		payload, err := colaa.ReadTelegram(br)
		if err != nil {
			log.Printf("Client %s gone: %v", conn.RemoteAddr(), err)
			return
		}

		reply, ok := lookupReply(payload)
		if !ok {
			log.Printf("Unknown command %q", payload)
			continue
		}
		if err := colaa.WriteTelegram(conn, reply); err != nil {
			log.Printf("Write to %s: %v", conn.RemoteAddr(), err)
			return
		}

		if strings.HasPrefix(payload, "sEN LMDscandata 1") {
			stream(conn, telegrams)
			return
		}
	}
}

func lookupReply(payload string) (string, bool) {
	for prefix, reply := range replies {
		if strings.HasPrefix(payload, prefix) {
			return reply, true
		}
	}
	return "", false
}

func stream(conn net.Conn, telegrams []string) {
	for {
		for _, payload := range telegrams {
			if err := colaa.WriteTelegram(conn, payload); err != nil {
				log.Printf("Stream to %s ended: %v", conn.RemoteAddr(), err)
				return
			}
			time.Sleep(*interval)
		}
		if !*loop {
			log.Printf("Recording finished for %s", conn.RemoteAddr())
			return
		}
	}
}
