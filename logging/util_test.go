package logging

import (
	"bytes"
	"sync"
)

type TestSignalWriter struct {
	sync.Mutex
	buf        bytes.Buffer
	lastWrite  []byte
	closeCount int
}

func NewTestSignalWriter() *TestSignalWriter {
	return &TestSignalWriter{}
}

func (w *TestSignalWriter) Write(data []byte) (int, error) {
	w.Lock()
	defer w.Unlock()
	w.lastWrite = append([]byte(nil), data...)
	w.buf.Write(data)
	return len(data), nil
}

func (w *TestSignalWriter) Close() error {
	w.Lock()
	defer w.Unlock()
	w.closeCount += 1
	return nil
}

func (w *TestSignalWriter) Bytes() []byte {
	w.Lock()
	defer w.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}

func (w *TestSignalWriter) LastWrite() []byte {
	w.Lock()
	defer w.Unlock()
	return w.lastWrite
}
