/*
 *    ipstream library for IPv4 fragment reassembly
 *
 *    Copyright (C) 2014, 2015  David Stainton
 *
 *    This program is free software: you can redistribute it and/or modify
 *    it under the terms of the GNU General Public License as published by
 *    the Free Software Foundation, either version 3 of the License, or
 *    (at your option) any later version.
 *
 *    This program is distributed in the hope that it will be useful,
 *    but WITHOUT ANY WARRANTY; without even the implied warranty of
 *    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *    GNU General Public License for more details.
 *
 *    You should have received a copy of the GNU General Public License
 *    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"flag"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	gologging "github.com/op/go-logging"

	"github.com/david415/ipstream"
	"github.com/david415/ipstream/logging"
	"github.com/david415/ipstream/types"
)

// config holds the defaults for every command line flag. Each can be
// overridden by its IPSTREAM_* environment variable; flags win over both.
type config struct {
	DAQ             string        `env:"IPSTREAM_DAQ" envDefault:"pcapgo"`
	Interface       string        `env:"IPSTREAM_INTERFACE" envDefault:"eth0"`
	PcapFile        string        `env:"IPSTREAM_PCAPFILE"`
	Snaplen         int           `env:"IPSTREAM_SNAPLEN" envDefault:"65536"`
	Filter          string        `env:"IPSTREAM_FILTER" envDefault:"ip"`
	WireTimeout     time.Duration `env:"IPSTREAM_WIRE_TIMEOUT" envDefault:"3s"`
	Fragments       string        `env:"IPSTREAM_FRAGMENTS" envDefault:"reassemble"`
	FragmentTimeout time.Duration `env:"IPSTREAM_FRAGMENT_TIMEOUT" envDefault:"30s"`
	MaxGroups       int           `env:"IPSTREAM_MAX_GROUPS" envDefault:"0"`
	EventLog        string        `env:"IPSTREAM_EVENT_LOG"`
	OutputPcap      string        `env:"IPSTREAM_OUTPUT_PCAP"`
	MaxPcapLogSize  int           `env:"IPSTREAM_MAX_PCAP_LOG_SIZE" envDefault:"1"`
	MaxPcapLogs     int           `env:"IPSTREAM_MAX_PCAP_ROTATIONS" envDefault:"10"`
	LogLevel        string        `env:"IPSTREAM_LOG_LEVEL" envDefault:"INFO"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("invalid environment: %v", err)
	}

	var (
		daq             = flag.String("daq", cfg.DAQ, "Data AcQuisition packet source")
		iface           = flag.String("i", cfg.Interface, "Interface to get packets from")
		pcapfile        = flag.String("pcapfile", cfg.PcapFile, "pcap filename to read packets from rather than a wire interface.")
		snaplen         = flag.Int("s", cfg.Snaplen, "SnapLen for pcap packet capture")
		filter          = flag.String("f", cfg.Filter, "BPF filter for pcap")
		wireTimeout     = flag.Duration("w", cfg.WireTimeout, "timeout for reading packets off the wire")
		fragments       = flag.String("fragments", cfg.Fragments, "what to do with IPv4 fragments: reassemble, drop or pass")
		fragmentTimeout = flag.Duration("fragment_timeout", cfg.FragmentTimeout, "how long to hold an incomplete datagram")
		maxGroups       = flag.Int("max_groups", cfg.MaxGroups, "maximum number of incomplete datagrams to hold; 0 is unlimited")
		eventLog        = flag.String("event_log", cfg.EventLog, "file to append JSON diagnostics to")
		outputPcap      = flag.String("output_pcap", cfg.OutputPcap, "pcap file to write emitted datagrams to")
		maxPcapLogSize  = flag.Int("max_pcap_log_size", cfg.MaxPcapLogSize, "maximum pcap size per rotation in megabytes")
		maxPcapLogs     = flag.Int("max_pcap_rotations", cfg.MaxPcapLogs, "maximum number of output pcap rotations")
		logLevel        = flag.String("log_level", cfg.LogLevel, "library log level: DEBUG, INFO, NOTICE, WARNING, ERROR or CRITICAL")
	)
	flag.Parse()

	level, err := gologging.LogLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", *logLevel, err)
	}
	gologging.SetLevel(level, "")

	if *daq == "" {
		log.Fatal("must specify a Data AcQuisition packet source")
	}
	if *daq == "pcapgo" && *pcapfile == "" {
		log.Fatal("the pcapgo DAQ can only read pcap files; use -pcapfile")
	}
	if _, err := ipstream.ParseFragmentsMode(*fragments); err != nil {
		log.Fatal(err)
	}

	var logger types.Logger
	if *eventLog != "" {
		eventLogger := logging.NewEventJsonLogger(*eventLog)
		if err := eventLogger.Start(); err != nil {
			log.Fatal(err)
		}
		defer eventLogger.Stop()
		logger = eventLogger
	}

	var packetLogger types.PacketLogger
	if *outputPcap != "" {
		packetLogger = logging.NewPcapLogger(*outputPcap, *maxPcapLogs, *maxPcapLogSize)
	}

	snifferDriverOptions := types.SnifferDriverOptions{
		DAQ:          *daq,
		Device:       *iface,
		Filename:     *pcapfile,
		WireDuration: *wireTimeout,
		Snaplen:      int32(*snaplen),
		Filter:       *filter,
	}

	dispatcherOptions := ipstream.DispatcherOptions{
		StreamOptions: ipstream.StreamOptions{
			Fragments:       *fragments,
			FragmentTimeout: *fragmentTimeout,
			MaxGroups:       *maxGroups,
			Logger:          logger,
		},
		PacketLogger: packetLogger,
	}

	log.Println("ipstream: IPv4 fragment reassembly.")
	supervisor, err := ipstream.NewSupervisor(ipstream.SupervisorOptions{
		SnifferDriverOptions: &snifferDriverOptions,
		DispatcherOptions:    dispatcherOptions,
		SnifferFactory:       ipstream.NewSniffer,
	})
	if err != nil {
		log.Fatal(err)
	}
	supervisor.Run()
	stats := supervisor.GetDispatcher().Stats()
	log.Printf("%d frames received: %d emitted, %d held, %d ignored", stats.Received, stats.Emitted, stats.Held, stats.Ignored)
}
