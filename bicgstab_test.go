// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gmres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/gmres"
	"github.com/dkrylov/gmres/densevec"
)

func TestSolveBiCGSTABDiagonalSystem(t *testing.T) {
	b := vec(1, 1, 1, 1)
	x := densevec.New(4)

	out, err := gmres.SolveBiCGSTAB[*densevec.Vector](diagOp([]float64{1, 2, 3, 4}), b, x, gmres.Settings[*densevec.Vector]{
		MaxRestarts: 20,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	want := []float64{1, 0.5, 1.0 / 3, 0.25}
	for i, w := range want {
		assert.InDelta(t, w, x.Data[i], 1e-8)
	}
}

func TestSolveBiCGSTABNonSymmetric(t *testing.T) {
	a := rotationOp()
	b := vec(1, 2, 3, 4, 5)
	x := densevec.New(5)

	out, err := gmres.SolveBiCGSTAB[*densevec.Vector](a, b, x, gmres.Settings[*densevec.Vector]{
		MaxRestarts: 50,
		Tolerance:   1e-9,
	})
	require.NoError(t, err)
	if out.Status == gmres.Converged {
		got := a.Apply(x)
		for i := range b.Data {
			assert.InDelta(t, b.Data[i], got.Data[i], 1e-6)
		}
	}
}

func TestSolveBiCGSTABIdempotentOnSolvedSystem(t *testing.T) {
	b := vec(1, 2, 3, 4)
	x := vec(1, 2, 3, 4)

	out, err := gmres.SolveBiCGSTAB[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
		MaxRestarts: 10,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.Equal(t, 0, out.Iterations)
}

func TestSolveBiCGSTABInvalidArguments(t *testing.T) {
	b, x := vec(1), vec(0)

	assert.Panics(t, func() {
		gmres.SolveBiCGSTAB[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
			MaxRestarts: -1,
			Tolerance:   1e-10,
		})
	})
	assert.Panics(t, func() {
		gmres.SolveBiCGSTAB[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
			MaxRestarts: 1,
			Tolerance:   0,
		})
	})
}
