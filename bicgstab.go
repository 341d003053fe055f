// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gmres

import (
	"math"

	"github.com/pkg/errors"
)

// SolveBiCGSTAB finds an approximate solution x to A*x = b for general
// (non-symmetric) A using the preconditioned BiConjugate Gradient
// STABilized method. Unlike Solve (GMRES), it needs only O(1) operands of
// state per iteration instead of a growing Krylov basis, at the cost of a
// less predictable convergence pattern. It needs only Operator.Apply and
// Preconditioner.Solve — no transpose — so it generalizes onto the same
// traits as Solve and SolveCG without requiring a transpose capability.
//
// x holds the initial guess on entry and is overwritten with the final
// approximation. settings.Restart is ignored; settings.MaxRestarts bounds
// the number of inner iterations.
func SolveBiCGSTAB[T Operand[T]](a Operator[T], b, x T, settings Settings[T]) (Outcome, error) {
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
	rt := r.Clone() // the shadow residual, fixed for the whole solve.

	var p, v T
	var rho, rhoPrev, alpha, omega float64

	i := 0
	for ; i < settings.MaxRestarts; i++ {
		rho = rt.Dot(r)
		if math.Abs(rho) < dlamchE*dlamchE {
			be := &BreakdownError{Kind: RhoBreakdown, Iterations: i}
			logger.Warn().Int("iteration", i).Msg("bicgstab breakdown: rho collapsed")
			return Outcome{Status: Breakdown, Iterations: i, BreakdownKind: RhoBreakdown}, errors.Wrapf(be, "gmres: bicgstab breakdown")
		}

		if i == 0 {
			p = r.Clone()
		} else {
			// p_i = r_i + beta*(p_{i-1} - omega*v_{i-1}).
			bcoef := (rho / rhoPrev) * (alpha / omega)
			p.AXPY(-omega, v)
			p = p.Scale(bcoef)
			p.AXPY(1, r)
		}

		phat := precond.Solve(p)
		v = a.Apply(phat)

		alpha = rho / rt.Dot(v)
		r.AXPY(-alpha, v)

		rnorm = r.Norm()
		if rnorm <= settings.Tolerance*beta {
			x.AXPY(alpha, phat)
			logger.Debug().Int("iterations", i+1).Msg("bicgstab converged")
			return Outcome{Status: Converged, Iterations: i + 1, ResidualNorm: rnorm}, nil
		}

		shat := precond.Solve(r)
		t := a.Apply(shat)
		tDotT := t.Dot(t)
		if tDotT == 0 {
			be := &BreakdownError{Kind: OmegaBreakdown, Iterations: i}
			logger.Warn().Int("iteration", i).Msg("bicgstab breakdown: t.t == 0")
			return Outcome{Status: Breakdown, Iterations: i, BreakdownKind: OmegaBreakdown}, errors.Wrapf(be, "gmres: bicgstab breakdown")
		}
		omega = t.Dot(r) / tDotT

		x.AXPY(alpha, phat)
		x.AXPY(omega, shat)
		r.AXPY(-omega, t)

		rnorm = r.Norm()
		if rnorm <= settings.Tolerance*beta {
			logger.Debug().Int("iterations", i+1).Msg("bicgstab converged")
			return Outcome{Status: Converged, Iterations: i + 1, ResidualNorm: rnorm}, nil
		}
		if math.Abs(omega) < dlamchE*dlamchE {
			be := &BreakdownError{Kind: OmegaBreakdown, Iterations: i + 1}
			logger.Warn().Int("iteration", i).Msg("bicgstab breakdown: omega collapsed")
			return Outcome{Status: Breakdown, Iterations: i + 1, BreakdownKind: OmegaBreakdown}, errors.Wrapf(be, "gmres: bicgstab breakdown")
		}
		rhoPrev = rho
	}

	return Outcome{Status: NotConverged, Iterations: i, ResidualNorm: rnorm}, nil
}
