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
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/david415/ipstream/logging"
	"github.com/david415/ipstream/types"
)

var reasonColors = map[types.Reason]*color.Color{
	types.ReasonNotIP:           color.New(color.FgCyan),
	types.ReasonDecodeFailed:    color.New(color.FgMagenta),
	types.ReasonFragmentDropped: color.New(color.FgYellow),
	types.ReasonFragmentTimeout: color.New(color.FgRed),
	types.ReasonEncodeFailed:    color.New(color.FgBlue),
}

func colorFor(reason types.Reason) *color.Color {
	if c, ok := reasonColors[reason]; ok {
		return c
	}
	return color.New(color.FgWhite)
}

func printEvent(event *logging.SerializedEvent, dump bool) error {
	c := colorFor(event.Reason)
	c.Printf("%s %s", event.Time.Format("2006-01-02T15:04:05.000Z07:00"), event.Reason)
	if event.Key != "" {
		fmt.Printf(" datagram %s", event.Key)
	}
	fmt.Println()
	if event.Src != "" {
		fmt.Printf("  %s > %s id %d offset %d more fragments %v length %d\n",
			event.Src, event.Dst, event.Id, int(event.FragOffset)*8, event.MoreFrags, event.DataLength)
	}
	if event.OuterFrame != "" {
		fmt.Printf("  outer frame: %s\n", event.OuterFrame)
	}
	if event.Error != "" {
		color.Red("  %s", event.Error)
	}
	if !dump || event.Data == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(event.Data)
	if err != nil {
		return err
	}
	color.New(color.FgBlue).Print(hex.Dump(data))
	return nil
}

// expandReport prints every event in one diagnostics log and adds its
// reason counts to totals.
func expandReport(reportPath string, dump bool, totals map[types.Reason]int) error {
	fmt.Printf("diagnostics log: %s\n", reportPath)
	file, err := os.Open(reportPath)
	if err != nil {
		return err
	}
	defer file.Close()
	reader := bufio.NewReader(file)

	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			event := logging.SerializedEvent{}
			if jsonErr := json.Unmarshal(line, &event); jsonErr != nil {
				return fmt.Errorf("%s: %w", reportPath, jsonErr)
			}
			totals[event.Reason] += 1
			if printErr := printEvent(&event, dump); printErr != nil {
				return printErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func printTotals(totals map[types.Reason]int) {
	reasons := make([]string, 0, len(totals))
	for reason := range totals {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	fmt.Println("summary:")
	for _, reason := range reasons {
		colorFor(types.Reason(reason)).Printf("  %-18s %d\n", reason, totals[types.Reason(reason)])
	}
}

func main() {
	var (
		dump    = flag.Bool("dump", true, "hex dump the payload of every event")
		noColor = flag.Bool("no_color", false, "disable colored output")
	)
	flag.Parse()
	if *noColor {
		color.NoColor = true
	}

	totals := make(map[types.Reason]int)
	for _, report := range flag.Args() {
		if err := expandReport(report, *dump, totals); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	printTotals(totals)
}
