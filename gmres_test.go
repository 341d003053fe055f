// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gmres_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrylov/gmres"
	"github.com/dkrylov/gmres/densevec"
)

// funcOperator adapts a plain function to gmres.Operator[*densevec.Vector],
// letting the test systems below be given as closed-form maps rather than
// explicit matrices.
type funcOperator func(v *densevec.Vector) *densevec.Vector

func (f funcOperator) Apply(v *densevec.Vector) *densevec.Vector { return f(v) }

func identityOp() funcOperator {
	return func(v *densevec.Vector) *densevec.Vector { return v.Clone() }
}

func diagOp(d []float64) funcOperator {
	return func(v *densevec.Vector) *densevec.Vector {
		out := densevec.New(len(d))
		for i, di := range d {
			out.Data[i] = di * v.Data[i]
		}
		return out
	}
}

func diagPrecond(d []float64) gmres.Preconditioner[*densevec.Vector] {
	return funcPrecond(func(v *densevec.Vector) *densevec.Vector {
		out := densevec.New(len(d))
		for i, di := range d {
			out.Data[i] = v.Data[i] / di
		}
		return out
	})
}

type funcPrecond func(v *densevec.Vector) *densevec.Vector

func (f funcPrecond) Solve(v *densevec.Vector) *densevec.Vector { return f(v) }

func vec(xs ...float64) *densevec.Vector { return densevec.NewFrom(append([]float64(nil), xs...)) }

// TestSolveIdentitySystem checks the trivial A = I case, where the first
// Krylov vector already spans the solution.
func TestSolveIdentitySystem(t *testing.T) {
	b := vec(1, 2, 3, 4)
	x := densevec.New(4)

	out, err := gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     4,
		MaxRestarts: 1,
		Tolerance:   1e-12,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.Equal(t, 1, out.Iterations)
	for i, want := range []float64{1, 2, 3, 4} {
		assert.InDelta(t, want, x.Data[i], 1e-9)
	}
}

// TestSolveDiagonalSystem checks a well-conditioned diagonal system solved
// in a single, unrestarted cycle.
func TestSolveDiagonalSystem(t *testing.T) {
	b := vec(1, 1, 1, 1)
	x := densevec.New(4)

	out, err := gmres.Solve[*densevec.Vector](diagOp([]float64{1, 2, 3, 4}), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     4,
		MaxRestarts: 1,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.LessOrEqual(t, out.Iterations, 4)
	want := []float64{1, 0.5, 1.0 / 3, 0.25}
	for i, w := range want {
		assert.InDelta(t, w, x.Data[i], 1e-8)
	}
}

// TestSolveRestartRequired checks the same diagonal system as
// TestSolveDiagonalSystem but with a restart length too short to converge
// in one cycle, forcing the restart controller to actually restart.
func TestSolveRestartRequired(t *testing.T) {
	b := vec(1, 1, 1, 1)
	x := densevec.New(4)

	out, err := gmres.Solve[*densevec.Vector](diagOp([]float64{1, 2, 3, 4}), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     2,
		MaxRestarts: 10,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.Greater(t, out.Iterations, 2)
	assert.LessOrEqual(t, out.ResidualNorm, 1e-10*math.Sqrt(4))
}

// TestSolvePreconditioningHelps checks that, on an ill-conditioned diagonal
// system, a diagonally-preconditioned solve converges within two inner
// iterations and, if the identity-preconditioned solve also converges, it
// needs at least as many inner iterations to reach the same tolerance.
func TestSolvePreconditioningHelps(t *testing.T) {
	d := []float64{1, 10, 100, 1000}
	b := vec(1, 1, 1, 1)

	xNoPrecond := densevec.New(4)
	outNoPrecond, err := gmres.Solve[*densevec.Vector](diagOp(d), b, xNoPrecond, gmres.Settings[*densevec.Vector]{
		Restart:     2,
		MaxRestarts: 10,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)

	xPrecond := densevec.New(4)
	outPrecond, err := gmres.Solve[*densevec.Vector](diagOp(d), b, xPrecond, gmres.Settings[*densevec.Vector]{
		Precond:     diagPrecond(d),
		Restart:     2,
		MaxRestarts: 10,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)

	assert.Equal(t, gmres.Converged, outPrecond.Status)
	assert.LessOrEqual(t, outPrecond.Iterations, 2)
	if outNoPrecond.Status == gmres.Converged {
		assert.GreaterOrEqual(t, outNoPrecond.Iterations, outPrecond.Iterations)
	}
}

// TestSolveLuckyBreakdown checks A = I, b = e1, so the Krylov space is
// exhausted after one Arnoldi step and the subdiagonal entry is exactly
// zero. The solver must report convergence, not a breakdown, and must not
// divide by zero.
func TestSolveLuckyBreakdown(t *testing.T) {
	b := vec(1, 0, 0, 0, 0)
	x := densevec.New(5)

	out, err := gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     5,
		MaxRestarts: 1,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.Equal(t, 1, out.Iterations)
	assert.InDelta(t, 1, x.Data[0], 1e-9)
	for i := 1; i < 5; i++ {
		assert.InDelta(t, 0, x.Data[i], 1e-9)
	}
}

// rotationOp is a small non-symmetric operator (a cyclic permutation plus a
// diagonal shift) for which GMRES needs more than a handful of unrestarted
// iterations to converge.
func rotationOp() funcOperator {
	return func(v *densevec.Vector) *densevec.Vector {
		n := v.Len()
		out := densevec.New(n)
		for i := 0; i < n; i++ {
			out.Data[i] = 2*v.Data[i] + v.Data[(i+1)%n]
		}
		return out
	}
}

// TestSolveBudgetExhaustion checks a restart length too short relative to
// the system: the restart budget is exhausted without reaching tolerance,
// but the residual must still have strictly decreased.
func TestSolveBudgetExhaustion(t *testing.T) {
	n := 25
	b := densevec.New(n)
	for i := range b.Data {
		b.Data[i] = float64(i%7) - 3
	}
	x := densevec.New(n)

	initialResidual := b.Norm()

	out, err := gmres.Solve[*densevec.Vector](rotationOp(), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     3,
		MaxRestarts: 2,
		Tolerance:   1e-14,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.NotConverged, out.Status)
	assert.Equal(t, 6, out.Iterations)
	assert.Less(t, out.ResidualNorm, initialResidual)
}

// TestSolveIdempotentOnSolvedSystem checks that starting from the exact
// solution returns Converged(0) without perturbing x beyond floating-point
// noise.
func TestSolveIdempotentOnSolvedSystem(t *testing.T) {
	b := vec(1, 2, 3, 4)
	x := vec(1, 2, 3, 4)

	out, err := gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
		Restart:     4,
		MaxRestarts: 1,
		Tolerance:   1e-10,
	})
	require.NoError(t, err)
	assert.Equal(t, gmres.Converged, out.Status)
	assert.Equal(t, 0, out.Iterations)
	for i, want := range []float64{1, 2, 3, 4} {
		assert.InDelta(t, want, x.Data[i], 1e-9)
	}
}

// TestSolveInvalidArguments mirrors the teacher package's convention of
// panicking eagerly on malformed Settings rather than returning an error.
func TestSolveInvalidArguments(t *testing.T) {
	b, x := vec(1), vec(0)

	assert.Panics(t, func() {
		gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
			Restart:     0,
			MaxRestarts: 1,
			Tolerance:   1e-10,
		})
	})
	assert.Panics(t, func() {
		gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
			Restart:     1,
			MaxRestarts: -1,
			Tolerance:   1e-10,
		})
	})
	assert.Panics(t, func() {
		gmres.Solve[*densevec.Vector](identityOp(), b, x, gmres.Settings[*densevec.Vector]{
			Restart:     1,
			MaxRestarts: 1,
			Tolerance:   0,
		})
	})
}
