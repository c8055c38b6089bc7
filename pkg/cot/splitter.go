/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cot

import "bytes"

// DefaultMaxBuffer caps the splitter's internal buffer. A stream that grows
// past the cap without closing an element is treated as garbage and dropped.
const DefaultMaxBuffer = 1 << 20

type splitMode int

const (
	modeText splitMode = iota
	modeTag
	modeComment
	modePI
	modeCDATA
	modeBang
)

// Splitter extracts complete top-level XML elements from a continuous byte
// stream. A TCP stream carries concatenated CoT events with no length prefix,
// so boundaries are found by tracking element nesting depth. Feed may be
// called with arbitrary fragments: a single call can yield zero, one, or many
// events, and an event split across reads is reassembled.
type Splitter struct {
	maxBuffer  int
	buf        []byte
	pos        int
	depth      int
	eventStart int
	mode       splitMode
	quote      byte
	closing    bool
}

// NewSplitter creates a splitter with the given buffer cap (<= 0 uses
// DefaultMaxBuffer).
func NewSplitter(maxBuffer int) *Splitter {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}

	return &Splitter{maxBuffer: maxBuffer, eventStart: -1}
}

// Feed appends stream data and returns any complete top-level elements.
// discarded reports that the buffer exceeded the cap and was reset; the
// connection survives, the buffered bytes do not.
func (s *Splitter) Feed(data []byte) (events [][]byte, discarded bool) {
	s.buf = append(s.buf, data...)

	if len(s.buf) > s.maxBuffer {
		s.reset()
		return nil, true
	}

	for s.pos < len(s.buf) {
		var progressed bool

		switch s.mode {
		case modeText:
			progressed = s.scanText()
		case modeTag:
			progressed = s.scanTag(&events)
		case modeComment:
			progressed = s.scanUntil([]byte("-->"))
		case modePI:
			progressed = s.scanUntil([]byte("?>"))
		case modeCDATA:
			progressed = s.scanUntil([]byte("]]>"))
		case modeBang:
			progressed = s.scanBang()
		}

		if !progressed {
			break
		}
	}

	// Nothing buffered belongs to an event in progress; drop consumed bytes.
	if s.eventStart == -1 && s.pos > 0 {
		s.buf = append(s.buf[:0:0], s.buf[s.pos:]...)
		s.pos = 0
	}

	return events, false
}

func (s *Splitter) reset() {
	s.buf = nil
	s.pos = 0
	s.depth = 0
	s.eventStart = -1
	s.mode = modeText
	s.quote = 0
	s.closing = false
}

// scanText advances to the next '<' and classifies what follows. Returns
// false when more bytes are needed.
func (s *Splitter) scanText() bool {
	idx := bytes.IndexByte(s.buf[s.pos:], '<')
	if idx < 0 {
		s.pos = len(s.buf)
		return false
	}

	i := s.pos + idx

	if i+1 >= len(s.buf) {
		// Lone '<' at the end of the buffer; wait for the next byte.
		s.pos = i
		return false
	}

	switch c := s.buf[i+1]; {
	case c == '?':
		s.mode = modePI
		s.pos = i + 2
	case c == '!':
		return s.classifyBang(i)
	case c == '/':
		s.mode = modeTag
		s.closing = true
		s.pos = i + 2
	default:
		s.mode = modeTag
		s.closing = false
		s.pos = i + 1

		if s.depth == 0 && s.eventStart == -1 {
			s.eventStart = i
		}
	}

	return true
}

// classifyBang distinguishes comments, CDATA sections, and other <!...>
// declarations starting at offset i.
func (s *Splitter) classifyBang(i int) bool {
	const (
		commentOpen = "<!--"
		cdataOpen   = "<![CDATA["
	)

	rest := s.buf[i:]

	if bytes.HasPrefix(rest, []byte(commentOpen)) {
		s.mode = modeComment
		s.pos = i + len(commentOpen)

		return true
	}

	if bytes.HasPrefix(rest, []byte(cdataOpen)) {
		s.mode = modeCDATA
		s.pos = i + len(cdataOpen)

		return true
	}

	if bytes.HasPrefix([]byte(commentOpen), rest) || bytes.HasPrefix([]byte(cdataOpen), rest) {
		// Could still become a comment or CDATA opener; wait for more bytes.
		s.pos = i
		return false
	}

	s.mode = modeBang
	s.pos = i + 2

	return true
}

// scanTag consumes an element tag, honoring attribute quoting, and adjusts
// nesting depth when the closing '>' arrives.
func (s *Splitter) scanTag(events *[][]byte) bool {
	for j := s.pos; j < len(s.buf); j++ {
		b := s.buf[j]

		if s.quote != 0 {
			if b == s.quote {
				s.quote = 0
			}

			continue
		}

		switch b {
		case '"', '\'':
			s.quote = b
			continue
		case '>':
			s.finishTag(j, events)
			return true
		}
	}

	s.pos = len(s.buf)

	return false
}

func (s *Splitter) finishTag(j int, events *[][]byte) {
	selfClosing := !s.closing && j > 0 && s.buf[j-1] == '/'

	switch {
	case s.closing:
		if s.depth > 0 {
			s.depth--
		}

		if s.depth == 0 && s.eventStart != -1 {
			s.emit(j+1, events)
			return
		}
	case selfClosing:
		if s.depth == 0 && s.eventStart != -1 {
			s.emit(j+1, events)
			return
		}
	default:
		s.depth++
	}

	s.mode = modeText
	s.closing = false
	s.pos = j + 1
}

func (s *Splitter) emit(end int, events *[][]byte) {
	ev := append([]byte(nil), s.buf[s.eventStart:end]...)
	*events = append(*events, ev)

	s.buf = append(s.buf[:0:0], s.buf[end:]...)
	s.pos = 0
	s.depth = 0
	s.eventStart = -1
	s.mode = modeText
	s.quote = 0
	s.closing = false
}

// scanUntil consumes bytes through the given terminator, keeping enough tail
// to match a terminator split across reads.
func (s *Splitter) scanUntil(term []byte) bool {
	idx := bytes.Index(s.buf[s.pos:], term)
	if idx < 0 {
		keep := len(s.buf) - (len(term) - 1)
		if keep > s.pos {
			s.pos = keep
		}

		return false
	}

	s.pos += idx + len(term)
	s.mode = modeText

	return true
}

func (s *Splitter) scanBang() bool {
	idx := bytes.IndexByte(s.buf[s.pos:], '>')
	if idx < 0 {
		s.pos = len(s.buf)
		return false
	}

	s.pos += idx + 1
	s.mode = modeText

	return true
}
