/*
 *    ipstream core library for IPv4 fragment reassembly
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

package ipstream

import (
	"fmt"
)

// FragmentsMode selects what a Stream does with fragmented datagrams.
type FragmentsMode int

const (
	// FragmentsReassemble holds fragments until their datagram is complete.
	FragmentsReassemble FragmentsMode = iota
	// FragmentsDrop reports every fragment as ignored.
	FragmentsDrop
	// FragmentsPass emits fragments as they are, without buffering.
	FragmentsPass
)

var fragmentsModeNames = map[FragmentsMode]string{
	FragmentsReassemble: "reassemble",
	FragmentsDrop:       "drop",
	FragmentsPass:       "pass",
}

// ParseFragmentsMode parses one of "reassemble", "drop" or "pass". The
// empty string selects reassemble.
func ParseFragmentsMode(s string) (FragmentsMode, error) {
	if s == "" {
		return FragmentsReassemble, nil
	}
	for mode, name := range fragmentsModeNames {
		if name == s {
			return mode, nil
		}
	}
	return FragmentsReassemble, fmt.Errorf("fragments option must be one of [reassemble, drop, pass]; value [%s] is invalid: %w", s, ErrInvalidFragmentsMode)
}

func (m FragmentsMode) String() string {
	name, ok := fragmentsModeNames[m]
	if !ok {
		return fmt.Sprintf("FragmentsMode(%d)", int(m))
	}
	return name
}
