// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gmres

import (
	"math"

	"github.com/pkg/errors"

	"github.com/dkrylov/gmres/internal/hessenberg"
)

// Solve finds an approximate solution x to A*x = b using restarted,
// right-preconditioned GMRES(m). x holds the initial guess on entry and
// is overwritten in place with the final approximation; A,
// settings.Precond and b are not mutated.
//
// settings.Restart (m) must be >= 1, settings.MaxRestarts must be >= 0,
// and settings.Tolerance must be > 0; Solve panics otherwise, mirroring
// the teacher package's eager argument validation in LinearSolve.
func Solve[T Operand[T]](a Operator[T], b, x T, settings Settings[T]) (Outcome, error) {
	m := settings.Restart
	if m < 1 {
		panic("gmres: Settings.Restart must be >= 1")
	}
	if settings.MaxRestarts < 0 {
		panic("gmres: Settings.MaxRestarts must be >= 0")
	}
	if settings.Tolerance <= 0 {
		panic("gmres: Settings.Tolerance must be > 0")
	}
	precond := settings.precond()
	logger := settings.Logger

	beta := math.Max(b.Norm(), settings.rhsFloor())

	// r <- M^-1*(b - A*x), the preconditioned initial residual.
	r := precond.Solve(b.Sub(a.Apply(x)))
	rho := r.Norm()
	if rho <= settings.Tolerance*beta {
		return Outcome{Status: Converged, ResidualNorm: rho}, nil
	}

	hs := hessenberg.New(m)
	v := make([]T, m+1)

	total := 0
	cycle := 0
	for ; cycle < settings.MaxRestarts; cycle++ {
		hs.Reset(rho)
		v[0] = r.Scale(1 / rho)

		d, converged, breakdown := innerIteration(a, precond, hs, v, m, settings.Tolerance, beta)

		if err := update(x, hs, v, d); err != nil {
			total += d + 1
			logger.Warn().Int("cycle", cycle).Int("inner", d).Msg("gmres singular triangular pivot")
			be := &BreakdownError{Kind: SingularTriangular, Cycle: cycle, Inner: d, Iterations: total}
			return Outcome{Status: Breakdown, Iterations: total, BreakdownKind: SingularTriangular}, errors.Wrapf(be, "gmres: back-substitution failed")
		}
		total += d + 1

		if breakdown != NoBreakdown && !converged {
			logger.Warn().Int("cycle", cycle).Int("inner", d).Str("kind", breakdown.String()).Msg("gmres breakdown")
			be := &BreakdownError{Kind: breakdown, Cycle: cycle, Inner: d, Iterations: total}
			return Outcome{Status: Breakdown, Iterations: total, BreakdownKind: breakdown, ResidualNorm: math.Abs(hs.G[d+1])}, errors.Wrapf(be, "gmres: arnoldi breakdown")
		}
		if converged {
			logger.Debug().Int("cycle", cycle).Int("iterations", total).Msg("gmres converged")
			return Outcome{Status: Converged, Iterations: total, ResidualNorm: math.Abs(hs.G[d+1])}, nil
		}

		// Cycle completed without early convergence: recompute the true
		// residual from the updated x before deciding whether to restart.
		r = precond.Solve(a.Apply(x).Sub(b))
		rho = r.Norm()
		logger.Debug().Int("cycle", cycle).Float64("residual", rho).Msg("gmres restart")

		if rho <= settings.Tolerance*beta {
			return Outcome{Status: Converged, Iterations: total, ResidualNorm: rho}, nil
		}
	}

	return Outcome{Status: NotConverged, Iterations: total, ResidualNorm: rho}, nil
}

// innerIteration runs the Arnoldi process and incremental QR update for up
// to m steps starting at index 0. It returns the highest inner index d
// actually used, whether early convergence was detected at that index, and
// the breakdown kind if a lucky breakdown (or worse) was hit.
func innerIteration[T Operand[T]](a Operator[T], precond Preconditioner[T], hs *hessenberg.Store, v []T, m int, tol, beta float64) (d int, converged bool, kind BreakdownKind) {
	for j := 0; j < m; j++ {
		// Arnoldi expansion: w <- M^-1*(A*V[j]).
		w := precond.Solve(a.Apply(v[j]))

		// Modified Gram-Schmidt orthogonalisation of w against the basis
		// built so far.
		for i := 0; i <= j; i++ {
			hij := w.Dot(v[i])
			hs.Set(i, j, hij)
			w.AXPY(-hij, v[i])
		}

		// Sub-diagonal entry and basis extension.
		wnorm := w.Norm()
		hs.Set(j+1, j, wnorm)

		if wnorm <= breakdownFloor(colNorm(hs, j)) {
			// Lucky breakdown: the Krylov space is invariant. v[j+1] is
			// left unset; rotate the (already-zero) subdiagonal entry
			// and check whether the current iterate already satisfies
			// the tolerance.
			hs.ApplyPriorRotations(j)
			rho := hs.NextRotation(j)
			if rho <= tol*beta {
				return j, true, NoBreakdown
			}
			return j, false, ZeroSubdiagonal
		}
		v[j+1] = w.Scale(1 / wnorm)

		// Apply the previously accumulated rotations to column j, then
		// compute and apply the new one that zeroes its sub-diagonal
		// entry.
		hs.ApplyPriorRotations(j)
		rho := hs.NextRotation(j)

		if rho <= tol*beta {
			return j, true, NoBreakdown
		}
	}
	return m - 1, false, NoBreakdown
}

// colNorm estimates ||H*e_j|| (the norm of column j of H before the
// subdiagonal entry was stored) for scaling the breakdown floor.
func colNorm(hs *hessenberg.Store, j int) float64 {
	var sumSq float64
	for i := 0; i <= j; i++ {
		v := hs.At(i, j)
		sumSq += v * v
	}
	return math.Sqrt(sumSq)
}

// update solves the triangularized least-squares problem over the first
// d+1 basis vectors and folds the result into x. It reports a singular
// pivot error if a diagonal entry of H is exactly zero.
func update[T Operand[T]](x T, hs *hessenberg.Store, v []T, d int) error {
	y, err := hs.Solve(d)
	if err != nil {
		return err
	}
	for k := 0; k <= d; k++ {
		x.AXPY(y[k], v[k])
	}
	return nil
}
