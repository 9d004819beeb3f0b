// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ScanRequests is a bufio.SplitFunc that frames a byte stream into requests,
// one per line.
//
// A line that holds nothing but a control code, like the output of
// `echo '\c'`, is returned with its newline so it forms a 3 byte control
// request. Every other line is returned without its line terminator. A
// trailing "\r" is dropped in both cases.
func ScanRequests(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if atEOF {
			return len(data), dropCR(data), nil
		}
		return 0, nil, nil
	}
	line := dropCR(data[:i])
	if len(line) == escapeLen-1 {
		if _, ok := escapeFor(line[0], line[1]); ok {
			return i + 1, []byte{line[0], line[1], '\n'}, nil
		}
	}
	return i + 1, line, nil
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}

// ReadFrom implements io.ReaderFrom. It reads requests framed by
// ScanRequests from r until EOF and writes each of them.
//
// The returned count is the sum of the request lengths handled. A read error
// wraps ErrTransport; the request being read is dropped.
func (d *Dev) ReadFrom(r io.Reader) (int64, error) {
	s := bufio.NewScanner(r)
	s.Split(ScanRequests)
	var n int64
	for s.Scan() {
		w, err := d.Write(s.Bytes())
		n += int64(w)
		if err != nil {
			return n, err
		}
	}
	if err := s.Err(); err != nil {
		return n, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return n, nil
}

var _ io.ReaderFrom = &Dev{}
var _ io.StringWriter = &Dev{}
