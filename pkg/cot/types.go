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

import (
	"strings"

	"github.com/tacops/coplite/pkg/models"
)

// CoT atom type codes are "a-<affiliation>-<dimension>..." strings. The
// fixed table below maps side+layer onto a type code; layerFromType and
// sideFromType invert it for decode.

// TypeFor returns the CoT type code for a side/layer pair.
func TypeFor(side models.Side, layer models.Layer) string {
	aff := affiliationCode(side)

	switch layer {
	case models.LayerAir:
		return "a-" + aff + "-A"
	case models.LayerFires:
		return "a-" + aff + "-G-U-C-F"
	case models.LayerEW:
		return "a-" + aff + "-G-U-C-E"
	case models.LayerFriendly, models.LayerEnemy:
		return "a-" + aff + "-G-U-C"
	case models.LayerOther:
		return "a-" + aff + "-G"
	default:
		return "a-" + aff + "-G"
	}
}

func affiliationCode(side models.Side) string {
	switch side {
	case models.SideFriendly:
		return "f"
	case models.SideEnemy:
		return "h"
	case models.SideNeutral:
		return "n"
	case models.SideUnknown:
		return "u"
	default:
		return "u"
	}
}

func sideFromType(typ string) models.Side {
	if !strings.HasPrefix(typ, "a-") || len(typ) < 3 {
		return models.SideUnknown
	}

	switch typ[2] {
	case 'f':
		return models.SideFriendly
	case 'h':
		return models.SideEnemy
	case 'n':
		return models.SideNeutral
	default:
		return models.SideUnknown
	}
}

func layerFromType(typ string, side models.Side) models.Layer {
	if len(typ) >= 5 && typ[4] == 'A' {
		return models.LayerAir
	}

	switch {
	case strings.HasSuffix(typ, "-U-C-F"):
		return models.LayerFires
	case strings.HasSuffix(typ, "-U-C-E"):
		return models.LayerEW
	}

	switch side {
	case models.SideFriendly:
		return models.LayerFriendly
	case models.SideEnemy:
		return models.LayerEnemy
	case models.SideNeutral, models.SideUnknown:
		return models.LayerOther
	default:
		return models.LayerOther
	}
}

// sidcFromType derives a MIL-STD-2525C symbol code for map rendering.
func sidcFromType(typ string, side models.Side) string {
	aff := "U"

	switch side {
	case models.SideFriendly:
		aff = "F"
	case models.SideEnemy:
		aff = "H"
	case models.SideNeutral:
		aff = "N"
	case models.SideUnknown:
		aff = "U"
	}

	dim := "G"
	if len(typ) >= 5 && typ[4] == 'A' {
		dim = "A"
	}

	return "S" + aff + dim + "P------*****"
}
