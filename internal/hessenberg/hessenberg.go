// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hessenberg stores the growing upper Hessenberg matrix, the
// accumulated Givens plane rotations, and the rotated right-hand-side
// shadow vector for one restart cycle of GMRES(m).
//
// The source this core is modeled on allocates the Hessenberg matrix as a
// pointer-to-pointer table. Here it is a row-major dense matrix (a flat
// buffer plus a stride), represented with gonum's blas64.General so that
// the back-substitution in Solve can reuse blas64's triangular solve
// instead of a hand-rolled one.
package hessenberg

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// Rotation is a 2x2 Givens plane rotation
//
//	[ c  s]
//	[-s  c]
//
// applied to two adjacent rows of H (and, in lockstep, to two adjacent
// entries of G).
type Rotation struct {
	C, S float64
}

// Store holds the (m+1)x(m) upper Hessenberg matrix H, the m+1 stored
// Givens rotations, and the length-(m+1) right-hand-side shadow G for a
// single restart cycle of capacity m.
type Store struct {
	H    blas64.General // (m+1) rows x m cols, row-major.
	Givs []Rotation     // length m+1.
	G    []float64      // length m+1.

	m int
}

// New allocates a Store with capacity for a Krylov dimension of m.
func New(m int) *Store {
	if m < 1 {
		panic("hessenberg: m must be >= 1")
	}
	return &Store{
		H: blas64.General{
			Rows:   m + 1,
			Cols:   m,
			Stride: m,
			Data:   make([]float64, (m+1)*m),
		},
		Givs: make([]Rotation, m+1),
		G:    make([]float64, m+1),
		m:    m,
	}
}

// Reset zeroes H and the Givens table, and sets G to rho*e_1, in
// preparation for a new restart cycle.
func (s *Store) Reset(rho float64) {
	for i := range s.H.Data {
		s.H.Data[i] = 0
	}
	for i := range s.Givs {
		s.Givs[i] = Rotation{}
	}
	for i := range s.G {
		s.G[i] = 0
	}
	s.G[0] = rho
}

// At returns H[i][j].
func (s *Store) At(i, j int) float64 {
	return s.H.Data[i*s.H.Stride+j]
}

// Set sets H[i][j] = v.
func (s *Store) Set(i, j int, v float64) {
	s.H.Data[i*s.H.Stride+j] = v
}

// ApplyPriorRotations applies the j stored rotations Givs[0..j-1] to rows
// 0..j of column j of H.
func (s *Store) ApplyPriorRotations(j int) {
	for i := 0; i < j; i++ {
		hij, hi1j := s.At(i, j), s.At(i+1, j)
		g := s.Givs[i]
		tau := g.C*hij + g.S*hi1j
		s.Set(i+1, j, -g.S*hij+g.C*hi1j)
		s.Set(i, j, tau)
	}
}

// NextRotation computes the rotation that zeroes H[j+1][j] against
// H[j][j] using the overflow-safe branch (picking whichever of H[j][j],
// H[j+1][j] is larger in magnitude as the divisor), stores it as Givs[j],
// and applies it to column j of H and to G. It returns the resulting
// |G[j+1]|, the new residual-norm estimate.
func (s *Store) NextRotation(j int) float64 {
	hjj, hj1j := s.At(j, j), s.At(j+1, j)

	var rot Rotation
	switch {
	case hj1j == 0:
		rot = Rotation{C: 1, S: 0}
	case math.Abs(hj1j) > math.Abs(hjj):
		tau := hjj / hj1j
		rot.S = 1 / math.Sqrt(1+tau*tau)
		rot.C = tau * rot.S
	default:
		tau := hj1j / hjj
		rot.C = 1 / math.Sqrt(1+tau*tau)
		rot.S = tau * rot.C
	}
	s.Givs[j] = rot

	tau := rot.C*hjj + rot.S*hj1j
	s.Set(j+1, j, 0) // exact in exact arithmetic; store it explicitly.
	s.Set(j, j, tau)

	gj, gj1 := s.G[j], s.G[j+1]
	s.G[j+1] = -rot.S*gj + rot.C*gj1
	s.G[j] = rot.C*gj + rot.S*gj1

	return math.Abs(s.G[j+1])
}

// Solve solves H[0..d][0..d]*y = G[0..d] for the upper-triangular H by
// back-substitution, in place on G, and returns G[:d+1] as the
// coefficient vector y. After Solve returns, the rest of G's contents
// (if any) are unspecified and G must not be reused without Reset.
//
// gonum's blas64 (unlike reference Fortran BLAS) operates on row-major
// storage, which is exactly how H is stored here, so Dtrsv solves it
// directly with Upper+NoTrans; no transpose trick is needed. (The teacher
// package's GMRES.update needed one only because it kept H in genuinely
// column-major layout and had to reinterpret it for blas64's row-major
// Dtrsv via Lower+Trans.)
func (s *Store) Solve(d int) ([]float64, error) {
	for k := d; k >= 0; k-- {
		if s.At(k, k) == 0 {
			return nil, errSingular
		}
	}
	y := s.G[:d+1]
	bi := blas64.Implementation()
	bi.Dtrsv(blas.Upper, blas.NoTrans, blas.NonUnit, d+1, s.H.Data, s.H.Stride, y, 1)
	return y, nil
}

// errSingular is returned by Solve when a diagonal pivot is exactly zero.
var errSingular = sentinelError("hessenberg: singular triangular pivot")

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

// IsSingular reports whether err is the singular-pivot error Solve can
// return.
func IsSingular(err error) bool { return err == errSingular }
