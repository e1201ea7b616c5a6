// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the persisted form of an equation object.
//

package equation

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/texpen/internal/geom"
)

type fileObject struct {
	EquationCode   string     `json:"equation_code"`
	EquationConfig *Config    `json:"equation_config,omitempty"`
	VectorImage    *fileImage `json:"vector_image,omitempty"`
}

type fileImage struct {
	SVGData   string     `json:"svg_data"`
	Size      [2]float64 `json:"size"`
	Transform [6]float64 `json:"transform"`
}

// MarshalJSON encodes the object in its persisted form.
func (o *Object) MarshalJSON() ([]byte, error) {
	cfg := o.Config
	fo := fileObject{
		EquationCode:   o.Source,
		EquationConfig: &cfg,
	}
	if o.Image != nil {
		r := o.Image.Rectangle
		t := r.Transform
		fo.VectorImage = &fileImage{
			SVGData:   o.Image.Markup,
			Size:      [2]float64{r.Size.X, r.Size.Y},
			Transform: [6]float64{t.A, t.B, t.C, t.D, t.E, t.F},
		}
	}
	return json.Marshal(fo)
}

// UnmarshalJSON decodes the persisted form. A missing configuration decodes
// to DefaultConfig.
func (o *Object) UnmarshalJSON(b []byte) error {
	var fo fileObject
	if err := json.Unmarshal(b, &fo); err != nil {
		return fmt.Errorf("decoding equation object: %w", err)
	}
	o.Source = fo.EquationCode
	o.Config = DefaultConfig()
	if fo.EquationConfig != nil {
		o.Config = *fo.EquationConfig
	}
	o.Image = nil
	if fi := fo.VectorImage; fi != nil {
		o.Image = &VectorImage{
			Markup: fi.SVGData,
			Rectangle: geom.Rectangle{
				Size: geom.V(fi.Size[0], fi.Size[1]),
				Transform: geom.Transform{
					A: fi.Transform[0], B: fi.Transform[1],
					C: fi.Transform[2], D: fi.Transform[3],
					E: fi.Transform[4], F: fi.Transform[5],
				},
			},
		}
	}
	return nil
}
