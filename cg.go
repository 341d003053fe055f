// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gmres

import "github.com/pkg/errors"

// SolveCG finds an approximate solution x to A*x = b using the
// preconditioned conjugate gradient method, for symmetric positive-definite
// A. It is a sibling of Solve that shares the same Operand/Operator/
// Preconditioner traits but needs no restart bookkeeping: CG has a
// short recurrence (O(1) operands of state) instead of a growing Krylov
// basis.
//
// x holds the initial guess on entry and is overwritten with the final
// approximation. settings.Restart is ignored; settings.MaxRestarts bounds
// the number of inner iterations (mirroring the teacher package's
// MaxIterations).
func SolveCG[T Operand[T]](a Operator[T], b, x T, settings Settings[T]) (Outcome, error) {
	if settings.MaxRestarts < 0 {
		panic("gmres: Settings.MaxRestarts must be >= 0")
	}
	if settings.Tolerance <= 0 {
		panic("gmres: Settings.Tolerance must be > 0")
	}
	precond := settings.precond()
	logger := settings.Logger

	beta := maxFloat(b.Norm(), settings.rhsFloor())

	r := b.Sub(a.Apply(x))
	rnorm := r.Norm()
	if rnorm <= settings.Tolerance*beta {
		return Outcome{Status: Converged, ResidualNorm: rnorm}, nil
	}

	var p T
	var rhoPrev float64

	i := 0
	for ; i < settings.MaxRestarts; i++ {
		// z <- M^-1*r; rho <- r.z (CG recurrence, adapted from cg.go).
		z := precond.Solve(r)
		rho := r.Dot(z)

		if i == 0 {
			p = z.Clone()
		} else {
			beta := rho / rhoPrev
			z.AXPY(beta, p)
			p = z
		}

		ap := a.Apply(p)
		pAp := p.Dot(ap)
		if pAp == 0 {
			be := &BreakdownError{Kind: RhoBreakdown, Iterations: i}
			logger.Warn().Int("iteration", i).Msg("cg breakdown: p.Ap == 0")
			return Outcome{Status: Breakdown, Iterations: i, BreakdownKind: RhoBreakdown}, errors.Wrapf(be, "gmres: cg breakdown")
		}
		alpha := rho / pAp

		x.AXPY(alpha, p)
		r.AXPY(-alpha, ap)

		rnorm = r.Norm()
		if rnorm <= settings.Tolerance*beta {
			logger.Debug().Int("iterations", i+1).Msg("cg converged")
			return Outcome{Status: Converged, Iterations: i + 1, ResidualNorm: rnorm}, nil
		}
		rhoPrev = rho
	}

	return Outcome{Status: NotConverged, Iterations: i, ResidualNorm: rnorm}, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
