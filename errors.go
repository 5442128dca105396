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
	"errors"
)

var (
	ErrNotIP                = errors.New("message is not IPv4")
	ErrUnsupportedItem      = errors.New("item must be a []byte or *types.Message")
	ErrUnsupportedLinkType  = errors.New("unsupported link type")
	ErrFragmentDropped      = errors.New("fragmented packet")
	ErrFragmentTimeout      = errors.New("fragment timed out")
	ErrInvalidFragmentsMode = errors.New("invalid fragments mode")
	ErrInvalidHeader        = errors.New("default IP header cannot be encoded")
	ErrNoHeader             = errors.New("no IP header to write")
	ErrTruncatedFragment    = errors.New("fragment payload shorter than its header claims")
)
