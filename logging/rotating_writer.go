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

package logging

import (
	"fmt"
	"os"
)

// RotatingQuotaWriter is an io.WriteCloser that spreads its output over
// at most numLogs files named filename, filename.1, ... so that no more
// than the quota is kept on disk.
type RotatingQuotaWriter struct {
	filename      string
	fp            *os.File
	numLogs       int
	logSize       int
	size          int
	records       int
	headerFunc    func() error
	writingHeader bool
}

// NewRotatingQuotaWriter takes a "starting filename" and a quota size in
// megabytes. `headerFunc` is executed upon each new file, after each
// rotation; whatever it writes through the RotatingQuotaWriter lands at
// the top of the new file.
func NewRotatingQuotaWriter(filename string, quotaSize int, numLogs int, headerFunc func() error) (*RotatingQuotaWriter, error) {
	if numLogs < 1 {
		return nil, fmt.Errorf("number of logs must be positive, got %d", numLogs)
	}
	if quotaSize < 1 {
		return nil, fmt.Errorf("quota must be positive, got %d", quotaSize)
	}
	quotaSizeBytes := quotaSize * 1024 * 1024
	w := &RotatingQuotaWriter{
		filename:   filename,
		numLogs:    numLogs,
		logSize:    quotaSizeBytes / numLogs,
		headerFunc: headerFunc,
	}
	return w, nil
}

func (w *RotatingQuotaWriter) Write(output []byte) (int, error) {
	if w.writingHeader {
		w.size += len(output)
		return w.fp.Write(output)
	}
	if w.fp == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	} else if w.records > 0 && w.size+len(output) > w.logSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	w.size += len(output)
	w.records += 1
	return w.fp.Write(output)
}

func (w *RotatingQuotaWriter) Close() error {
	if w.fp == nil {
		return nil
	}
	err := w.fp.Close()
	w.fp = nil
	return err
}

func (w *RotatingQuotaWriter) open() error {
	fp, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	w.fp = fp
	w.size = 0
	w.records = 0
	if w.headerFunc == nil {
		return nil
	}
	w.writingHeader = true
	defer func() { w.writingHeader = false }()
	return w.headerFunc()
}

func (w *RotatingQuotaWriter) rotate() error {
	if err := w.Close(); err != nil {
		return err
	}
	for i := w.numLogs; i > 0; i-- {
		if err := w.shiftLog(i); err != nil {
			return err
		}
	}
	if w.numLogs == 1 {
		return os.Remove(w.filename)
	}
	return os.Rename(w.filename, fmt.Sprintf("%s.1", w.filename))
}

func (w *RotatingQuotaWriter) shiftLog(logNum int) error {
	oldName := fmt.Sprintf("%s.%d", w.filename, logNum)
	if logNum >= w.numLogs-1 {
		err := os.Remove(oldName)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	_, err := os.Stat(oldName)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	return os.Rename(oldName, fmt.Sprintf("%s.%d", w.filename, logNum+1))
}
