// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"mime"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
)

// Format is the image format of the frames sent by a Stream.
type Format int

const (
	PNG Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

func (f Format) mimeType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// ParseFormat parses "png", "jpeg" or "jpg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("lcdsim: unknown image format %q", s)
}

// StreamOpts represents the options available for a Stream.
type StreamOpts struct {
	// Image is how frames are drawn. Defaults to DefaultImageOpts.
	Image *ImageOpts
	// Format is sent to clients that don't ask for one with the "format"
	// query parameter.
	Format Format
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	_ struct{}
}

// Stream serves an Emulator over HTTP as an MJPEG style multipart stream.
// Each client gets the current display and a new frame after every change.
//
// Call Changed when the emulator was written to; the usual way is
// e.OnWrite(s.Changed).
type Stream struct {
	e      *Emulator
	image  ImageOpts
	format Format
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	// frames caches the encoded display per format until the next change.
	frames map[Format][]byte
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// NewStream returns a Stream showing e.
func NewStream(e *Emulator, opts *StreamOpts) *Stream {
	if opts == nil {
		opts = &StreamOpts{}
	}
	s := &Stream{
		e:       e,
		image:   DefaultImageOpts,
		format:  opts.Format,
		logger:  opts.Logger,
		clients: map[*client]struct{}{},
		frames:  map[Format][]byte{},
	}
	if opts.Image != nil {
		s.image = *opts.Image
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Stream) String() string {
	return "lcdsim.Stream"
}

// Changed drops the cached frames and wakes up every client.
func (s *Stream) Changed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.frames)
	for c := range s.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

// Halt implements conn.Resource. It ends all running client requests
// asynchronously.
func (s *Stream) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Stream) frame(f Format) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.frames[f]; ok {
		return b, nil
	}
	img, err := Snapshot(s.e, &s.image)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch f {
	case PNG:
		err = pngEncoder.Encode(&buf, img)
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	default:
		err = fmt.Errorf("lcdsim: unhandled image format %s", f)
	}
	if err != nil {
		return nil, err
	}
	// Cached frames are never modified, only replaced.
	s.frames[f] = buf.Bytes()
	return s.frames[f], nil
}

// ServeHTTP implements http.Handler. Clients can pick the image format with
// "?format=png" or "?format=jpeg".
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := s.format
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = ParseFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": pw.boundary}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()
	s.logger.Debug("stream", "client", r.RemoteAddr, "format", f)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", f.mimeType())
	header.Set("Content-Transfer-Encoding", "binary")
	for {
		b, err := s.frame(f)
		if err != nil {
			s.logger.Error("stream", "err", err)
			return
		}
		// There is no way to report an error inside an image stream, the
		// request just ends.
		if err := pw.writeFrame(header, b); err != nil {
			s.logger.Debug("stream", "client", r.RemoteAddr, "err", err)
			return
		}
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
