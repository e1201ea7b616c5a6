// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the equation object stored in a document.
//

package equation

import (
	"fmt"

	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/svgmeta"
)

// PlaceholderMarkup is shown until the first successful compilation.
const PlaceholderMarkup = `<svg xmlns="http://www.w3.org/2000/svg" width="96" height="32" viewBox="0 0 96 32">
<rect x="1" y="1" width="94" height="30" rx="4" fill="none" stroke="#888" stroke-dasharray="4 3"/>
<text x="48" y="21" font-family="serif" font-size="14" text-anchor="middle" fill="#888">TeX</text>
</svg>`

// VectorImage is rendered SVG markup placed in the document.
type VectorImage struct {
	Markup    string
	Rectangle geom.Rectangle
}

// NewVectorImage measures markup and places it with its upper-left corner at
// pos.
func NewVectorImage(markup string, pos geom.Vec2) (*VectorImage, error) {
	info, err := svgmeta.Parse(markup)
	if err != nil {
		return nil, err
	}
	return &VectorImage{
		Markup: markup,
		Rectangle: geom.Rectangle{
			Size:      geom.V(info.Width, info.Height),
			Transform: geom.Translation(pos),
		},
	}, nil
}

// Object is a typeset equation in a document.
type Object struct {
	Source string
	Config Config
	Image  *VectorImage
}

// NewObject creates an equation showing the placeholder image at pos.
func NewObject(source string, cfg Config, pos geom.Vec2) *Object {
	img, err := NewVectorImage(PlaceholderMarkup, pos)
	if err != nil {
		panic(fmt.Sprintf("equation: placeholder markup is invalid: %v", err))
	}
	return &Object{Source: source, Config: cfg, Image: img}
}

// Task snapshots the object's current source and style.
func (o *Object) Task() Task {
	return NewTask(o.Source, o.Config)
}

// Rectangle returns the placed bounds of the rendered image.
func (o *Object) Rectangle() geom.Rectangle {
	if o.Image == nil {
		return geom.Rectangle{Transform: geom.Identity()}
	}
	return o.Image.Rectangle
}

// Scale returns the length of the image transform's unit x vector, i.e. how
// much the user has scaled the equation since it was placed.
func (o *Object) Scale() float64 {
	return o.Rectangle().Transform.ApplyVector(geom.V(1, 0)).Len()
}

// Contains reports whether the document point p hits the equation.
func (o *Object) Contains(p geom.Vec2) bool {
	return o.Rectangle().Contains(p)
}

// UpdateMarkup replaces the rendered image with new markup. The new image
// takes the intrinsic size of the markup and keeps the existing transform,
// so rotation, scale and the upper-left position are preserved. Invalid
// markup leaves the object untouched and returns an error.
func (o *Object) UpdateMarkup(markup string) error {
	info, err := svgmeta.Parse(markup)
	if err != nil {
		return fmt.Errorf("rendered markup rejected: %w", err)
	}
	rect := o.Rectangle()
	rect.Size = geom.V(info.Width, info.Height)
	o.Image = &VectorImage{Markup: markup, Rectangle: rect}
	return nil
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := *o
	if o.Image != nil {
		img := *o.Image
		c.Image = &img
	}
	return &c
}
