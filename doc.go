// Package vfxcore provides the compute core of a VFX image-processing
// toolkit: a VRAM-aware tiling compute engine, an OpenEXR deep/flat block
// codec, and an OCIO-style color pipeline.
//
// The package is organized around a copy-on-write f32 image buffer (this
// package), region/tile geometry (this package), a deep/flat EXR block
// codec (package exr), a tiling and clustering compute engine with an LRU
// region cache and CPU reference kernels (package compute), and an
// optimizable color operator pipeline with LUT1D/LUT3D/CDL/hue and tone
// curves (package color). Porter-Duff compositing and blend modes live in
// package composite.
//
// This core does not parse command-line arguments, does not own an
// attribute/metadata container, and does not read formats other than the
// EXR block layer; those are external collaborators consumed through
// narrow interfaces.
package vfxcore
