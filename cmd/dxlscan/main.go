// Command dxlscan opens a serial port and scans it for Protocol 2
// Dynamixel devices, printing every id that answers PING.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seagullcjung/dynamixel-go/dxl"
	"github.com/seagullcjung/dynamixel-go/serialport"
)

func main() {
	portVal := flag.String("port", "", "Serial port device path (required)")
	baudVal := flag.String("baud", "", "Comma-separated baudrates to try (default: all common Dynamixel baudrates)")
	timeoutVal := flag.Duration("timeout", 10*time.Millisecond, "Serial port read timeout (each silent id still waits up to dxl.DefaultTimeout)")
	flag.Parse()

	if *portVal == "" {
		fmt.Println("Usage: dxlscan -port <device> [-baud 57600,1000000] [-timeout 10ms]")
		os.Exit(1)
	}

	baudrates, err := parseBaudrates(*baudVal)
	if err != nil {
		fmt.Printf("Error parsing -baud: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanning %s with a %v port read timeout across %d baudrate(s)...\n", *portVal, *timeoutVal, len(baudrates))

	port, err := serialport.Open(*portVal, baudrates[0], *timeoutVal)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	hits, err := dxl.ScanV2(port, baudrates, func(id uint8, baudrate int) {
		fmt.Printf("\rprobing id=%3d baud=%-9d", id, baudrate)
	})
	fmt.Println()
	if err != nil {
		fmt.Printf("Scan stopped early: %v\n", err)
	}

	if len(hits) == 0 {
		fmt.Println("No devices found.")
		return
	}

	fmt.Printf("Found %d device(s):\n", len(hits))
	for _, h := range hits {
		fmt.Printf("  id=%3d baud=%-9d model=%d firmware=%d\n", h.ID, h.Baudrate, h.Info.ModelNumber, h.Info.Firmware)
	}
}

func parseBaudrates(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return serialport.CommonBaudrates, nil
	}

	var baudrates []int
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid baudrate %q: %w", field, err)
		}
		baudrates = append(baudrates, n)
	}
	if len(baudrates) == 0 {
		return nil, fmt.Errorf("no baudrates given")
	}
	return baudrates, nil
}
