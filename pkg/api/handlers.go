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

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/tacops/coplite/pkg/cot"
	"github.com/tacops/coplite/pkg/models"
	"github.com/tacops/coplite/pkg/registry"
)

// maxCoTBody bounds a single CoT ingest request.
const maxCoTBody = 1 << 20

// cotPullStale is the validity window stamped on pulled export events.
const cotPullStale = 60 * time.Second

type trackRequest struct {
	UID   string            `json:"uid"`
	Side  string            `json:"side"`
	Layer string            `json:"layer"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Meta  map[string]string `json:"meta"`
}

// trackView is a track plus its derived read-time staleness.
type trackView struct {
	*models.Track
	Stale      bool    `json:"stale"`
	AgeSeconds float64 `json:"age_seconds"`
}

func (s *Server) handleListTracks(w http.ResponseWriter, _ *http.Request) {
	now := s.clock()
	tracks := s.registry.List()

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].UID < tracks[j].UID })

	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, trackView{
			Track:      t,
			Stale:      t.IsStale(now),
			AgeSeconds: t.Age(now).Seconds(),
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"tracks":      views,
		"server_time": now.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	t, ok := s.registry.Get(uid)
	if !ok {
		s.writeError(w, http.StatusNotFound, "track not found")
		return
	}

	now := s.clock()

	s.writeJSON(w, http.StatusOK, trackView{
		Track:      t,
		Stale:      t.IsStale(now),
		AgeSeconds: t.Age(now).Seconds(),
	})
}

func (s *Server) handleUpsertTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, ok := s.trackFromRequest(w, &req)
	if !ok {
		return
	}

	stored, err := s.registry.Upsert(r.Context(), t)
	if err != nil {
		s.upsertError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "track": stored})
}

func (s *Server) handleIngestBFT(w http.ResponseWriter, r *http.Request) {
	var batch struct {
		Tracks []trackRequest `json:"tracks"`
	}

	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	for i := range batch.Tracks {
		t, ok := s.trackFromRequest(w, &batch.Tracks[i])
		if !ok {
			return
		}

		if _, err := s.registry.Upsert(r.Context(), t); err != nil {
			s.upsertError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(batch.Tracks)})
}

func (s *Server) handleCoTIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCoTBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	t, err := cot.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid CoT: "+err.Error())
		return
	}

	stored, err := s.registry.Upsert(r.Context(), t)
	if err != nil {
		s.upsertError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "uid": stored.UID})
}

func (s *Server) handleCoTPull(w http.ResponseWriter, _ *http.Request) {
	now := s.clock().UTC()

	var buf bytes.Buffer

	for _, t := range s.registry.List() {
		data, err := cot.Encode(t, now, cotPullStale)
		if err != nil {
			continue
		}

		buf.Write(data)
		buf.WriteByte('\n')
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTAKStatus(w http.ResponseWriter, _ *http.Request) {
	status := models.BridgeStatus{State: models.BridgeDisabled}
	if s.bridge != nil {
		status = s.bridge.Status()
	}

	s.writeJSON(w, http.StatusOK, status)
}

// trackFromRequest validates the side/layer enums strictly; the permissive
// defaults are reserved for wire decode.
func (s *Server) trackFromRequest(w http.ResponseWriter, req *trackRequest) (*models.Track, bool) {
	side, ok := models.SideFromString(req.Side)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid side")
		return nil, false
	}

	layer, ok := models.LayerFromString(req.Layer)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid layer")
		return nil, false
	}

	return &models.Track{
		UID:   req.UID,
		Side:  side,
		Layer: layer,
		Lat:   req.Lat,
		Lon:   req.Lon,
		Meta:  req.Meta,
	}, true
}

func (s *Server) upsertError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrInvalidTrack) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Error().Err(err).Msg("Upsert failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
