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

// Package cot translates between Cursor-on-Target wire events and track
// records. The codec is pure: no I/O, no shared state. Decoding is strict on
// structure (root element, type, point coordinates) and permissive on
// everything else, so unrecognized but well-formed events still yield tracks.
package cot

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/tacops/coplite/pkg/models"
	"github.com/tacops/coplite/pkg/version"
)

const (
	// cotTimeFormat is the timestamp layout TAK servers emit and accept.
	cotTimeFormat = "2006-01-02T15:04:05Z"

	// presenceStale bounds the validity window of a self-SA event.
	presenceStale = 30 * time.Second
)

// event mirrors the CoT XML schema. Coordinates stay strings so a missing
// attribute is distinguishable from a legitimate zero.
type event struct {
	XMLName xml.Name `xml:"event"`
	Version string   `xml:"version,attr,omitempty"`
	UID     string   `xml:"uid,attr,omitempty"`
	ID      string   `xml:"id,attr,omitempty"`
	Type    string   `xml:"type,attr,omitempty"`
	How     string   `xml:"how,attr,omitempty"`
	Time    string   `xml:"time,attr,omitempty"`
	Start   string   `xml:"start,attr,omitempty"`
	Stale   string   `xml:"stale,attr,omitempty"`
	Point   *point   `xml:"point,omitempty"`
	Detail  *detail  `xml:"detail,omitempty"`
}

type point struct {
	Lat string `xml:"lat,attr,omitempty"`
	Lon string `xml:"lon,attr,omitempty"`
	Hae string `xml:"hae,attr,omitempty"`
	Ce  string `xml:"ce,attr,omitempty"`
	Le  string `xml:"le,attr,omitempty"`
}

type detail struct {
	Contact *contact `xml:"contact,omitempty"`
	Group   *group   `xml:"__group,omitempty"`
	Takv    *takv    `xml:"takv,omitempty"`
	Remarks string   `xml:"remarks,omitempty"`
}

type contact struct {
	Callsign string `xml:"callsign,attr,omitempty"`
}

type group struct {
	Name string `xml:"name,attr,omitempty"`
	Role string `xml:"role,attr,omitempty"`
}

type takv struct {
	OS       string `xml:"os,attr,omitempty"`
	Version  string `xml:"version,attr,omitempty"`
	Device   string `xml:"device,attr,omitempty"`
	Platform string `xml:"platform,attr,omitempty"`
}

// Decode parses one CoT event into a track. It fails only when the event is
// structurally malformed: unparseable XML, wrong root element, or a missing
// uid, type, or point. Unknown type codes map to side unknown / layer other.
func Decode(data []byte) (*models.Track, error) {
	var ev event

	if err := xml.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	uid := ev.UID
	if uid == "" {
		uid = ev.ID
	}

	if uid == "" {
		return nil, ErrMissingUID
	}

	if ev.Type == "" {
		return nil, ErrMissingType
	}

	if ev.Point == nil {
		return nil, ErrMissingPoint
	}

	lat, err := strconv.ParseFloat(ev.Point.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: lat %q", ErrBadCoordinates, ev.Point.Lat)
	}

	lon, err := strconv.ParseFloat(ev.Point.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: lon %q", ErrBadCoordinates, ev.Point.Lon)
	}

	side := sideFromType(ev.Type)
	layer := layerFromType(ev.Type, side)

	meta := map[string]string{
		"cot_type": ev.Type,
		"sidc":     sidcFromType(ev.Type, side),
	}

	for key, val := range map[string]string{
		"how":   ev.How,
		"time":  ev.Time,
		"start": ev.Start,
		"stale": ev.Stale,
	} {
		if val != "" {
			meta[key] = val
		}
	}

	callsign := uid
	if ev.Detail != nil && ev.Detail.Contact != nil && ev.Detail.Contact.Callsign != "" {
		callsign = ev.Detail.Contact.Callsign
	}

	meta["callsign"] = callsign

	if ev.Detail != nil && ev.Detail.Remarks != "" {
		meta["remarks"] = ev.Detail.Remarks
	}

	var updated time.Time

	if ev.Time != "" {
		if ts, terr := time.Parse(time.RFC3339, ev.Time); terr == nil {
			updated = ts.UTC()
		}
	}

	return &models.Track{
		UID:       uid,
		Side:      side,
		Layer:     layer,
		Lat:       lat,
		Lon:       lon,
		Meta:      meta,
		UpdatedAt: updated,
	}, nil
}

// Encode renders a track as one CoT event. It is total for any valid track:
// absent optional fields are omitted, never an error. A meta cot_type entry
// overrides the derived type code so re-exported events keep their origin.
func Encode(t *models.Track, now time.Time, staleAfter time.Duration) ([]byte, error) {
	if t == nil {
		return nil, ErrNilTrack
	}

	typ := t.Meta["cot_type"]
	if typ == "" {
		typ = TypeFor(t.Side, t.Layer)
	}

	ts := t.UpdatedAt
	if ts.IsZero() {
		ts = now
	}

	ev := event{
		Version: "2.0",
		UID:     t.UID,
		Type:    typ,
		How:     "m-g",
		Time:    formatTime(ts),
		Start:   formatTime(now),
		Stale:   formatTime(now.Add(staleAfter)),
		Point: &point{
			Lat: formatCoord(t.Lat),
			Lon: formatCoord(t.Lon),
			Hae: "0",
			Ce:  "25",
			Le:  "25",
		},
	}

	if cs := t.Meta["callsign"]; cs != "" {
		ev.Detail = &detail{Contact: &contact{Callsign: cs}}
	}

	if rm := t.Meta["remarks"]; rm != "" {
		if ev.Detail == nil {
			ev.Detail = &detail{}
		}

		ev.Detail.Remarks = rm
	}

	return marshalEvent(&ev)
}

// EncodePresence builds the self-identity SA event announcing this node to
// the TAK network.
func EncodePresence(callsign, device string, now time.Time) ([]byte, error) {
	if callsign == "" {
		return nil, ErrEmptyCallsign
	}

	ev := event{
		Version: "2.0",
		UID:     callsign,
		Type:    "a-f-G-U-C",
		How:     "h-g-i-g-o",
		Time:    formatTime(now),
		Start:   formatTime(now),
		Stale:   formatTime(now.Add(presenceStale)),
		Point: &point{
			Lat: "0.0",
			Lon: "0.0",
			Hae: "0",
			Ce:  "9999999",
			Le:  "9999999",
		},
		Detail: &detail{
			Contact: &contact{Callsign: callsign},
			Group:   &group{Name: "Cyan", Role: "HQ"},
			Takv: &takv{
				OS:       "COP-Lite",
				Version:  version.GetVersion(),
				Device:   device,
				Platform: "Tactical COP Lite",
			},
		},
	}

	return marshalEvent(&ev)
}

func marshalEvent(ev *event) ([]byte, error) {
	body, err := xml.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal CoT event: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(cotTimeFormat)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
