// Package gmres implements a restarted, right-preconditioned GMRES(m)
// iterative solver generic over the vector-like operand it is applied to.
package gmres

import (
	"github.com/rs/zerolog"
)

// Operand is the vector-space contract the solver is generic over. A type
// T implementing Operand[T] supplies the handful of operations the inner
// iteration needs: a norm, an inner product, scaling, an in-place AXPY
// update, pure addition/subtraction, deep copy, and construction of an
// additive identity of matching shape.
//
// T is ordinarily a pointer type (e.g. *densevec.Vector) so that AXPY's
// in-place update is observable through every alias of a value; Solve's
// "x is mutated in place" contract depends on this.
//
// An operand's shape must not change for the lifetime of a solve: Clone,
// Zero, Scale, Add and Sub must all return operands of the same shape as
// their receiver/arguments.
type Operand[T any] interface {
	// Norm returns the Euclidean (l2) norm of the receiver.
	Norm() float64

	// Dot returns the inner product of the receiver with other. It must
	// be consistent with Norm: v.Dot(v) == v.Norm()*v.Norm().
	Dot(other T) float64

	// Scale returns a new operand equal to the receiver multiplied by
	// alpha. It does not mutate the receiver.
	Scale(alpha float64) T

	// AXPY updates the receiver in place: self <- self + alpha*other.
	AXPY(alpha float64, other T)

	// Add returns a new operand equal to the receiver plus other. It
	// does not mutate either argument.
	Add(other T) T

	// Sub returns a new operand equal to the receiver minus other. It
	// does not mutate either argument.
	Sub(other T) T

	// Clone returns a deep, independent copy of the receiver.
	Clone() T

	// Zero returns a new additive identity with the same shape as the
	// receiver.
	Zero() T
}

// Operator wraps a linear map A. Apply computes A*v and returns it as a
// freshly allocated operand; it must not mutate v. No assumption is made
// about symmetry, positive-definiteness, or sparsity of A.
type Operator[T any] interface {
	Apply(v T) T
}

// Preconditioner wraps a linear map M^-1 approximating A^-1. Solve computes
// M^-1*v and returns it as a freshly allocated operand; it must not mutate
// v. Solve applies M^-1 to the initial residual b - A*x and to A*V[j] at
// every Arnoldi step, so its Krylov vectors are formed from M^-1*A and its
// residual test uses the preconditioned residual.
type Preconditioner[T any] interface {
	Solve(v T) T
}

// identity is the Preconditioner used when Settings.Precond is nil: M^-1
// is the identity map.
type identity[T Operand[T]] struct{}

func (identity[T]) Solve(v T) T { return v.Clone() }

// Settings holds the configuration for a GMRES(m) solve (or for one of its
// siblings, SolveCG and SolveBiCGSTAB). Zero values of the fields mean
// defaults, mirroring the teacher package's Settings convention.
type Settings[T any] struct {
	// Precond is the right preconditioner M^-1. A nil value means no
	// preconditioning (M is the identity).
	Precond Preconditioner[T]

	// Restart is the Krylov subspace dimension per cycle (m). It is
	// ignored by SolveCG and SolveBiCGSTAB. Must be >= 1.
	Restart int

	// MaxRestarts is the maximum number of outer restart cycles GMRES
	// will perform (or, for SolveCG/SolveBiCGSTAB, the maximum number of
	// inner iterations). Must be >= 0.
	MaxRestarts int

	// Tolerance is the relative residual tolerance: the solve stops once
	// ||r|| <= Tolerance * max(||b||, RHSNormFloor). Must be > 0.
	Tolerance float64

	// RHSNormFloor is the minimum denominator used in the relative
	// residual test, guarding against an (almost) zero right-hand side.
	// Zero means the default of 1e-5.
	RHSNormFloor float64

	// Logger receives one debug event per restart cycle and one warn
	// event on breakdown. The zero value is zerolog's documented no-op
	// Logger (nil writer, every event discarded), so leaving this unset
	// disables logging without a nil check at each call site.
	Logger zerolog.Logger
}

func (s *Settings[T]) rhsFloor() float64 {
	if s.RHSNormFloor == 0 {
		return 1e-5
	}
	return s.RHSNormFloor
}

func (s *Settings[T]) precond() Preconditioner[T] {
	if s.Precond == nil {
		return identity[T]{}
	}
	return s.Precond
}

// Status is the outcome of a solve.
type Status int

const (
	// Converged indicates the relative residual tolerance was met.
	Converged Status = iota
	// NotConverged indicates the iteration/restart budget was exhausted
	// without meeting the tolerance. x still holds the best iterate
	// produced.
	NotConverged
	// Breakdown indicates a numerical breakdown prevented further
	// progress. x still holds the best iterate produced.
	Breakdown
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case NotConverged:
		return "not converged"
	case Breakdown:
		return "breakdown"
	default:
		return "unknown"
	}
}

// BreakdownKind classifies a Breakdown outcome.
type BreakdownKind int

const (
	// NoBreakdown is the zero value, used when Status != Breakdown.
	NoBreakdown BreakdownKind = iota
	// ZeroSubdiagonal indicates H[j+1][j] underflowed below the
	// breakdown floor during Arnoldi, i.e. a lucky breakdown that could
	// not be converted into a Converged outcome because the residual
	// test still failed.
	ZeroSubdiagonal
	// SingularTriangular indicates a zero pivot was encountered during
	// back-substitution.
	SingularTriangular
	// RhoBreakdown indicates the BiCGSTAB rho collapsed (rho ~ 0), or
	// that SolveCG hit p.Ap == 0.
	RhoBreakdown
	// OmegaBreakdown indicates the BiCGSTAB stabilization step
	// collapsed (omega ~ 0).
	OmegaBreakdown
)

func (k BreakdownKind) String() string {
	switch k {
	case ZeroSubdiagonal:
		return "zero subdiagonal"
	case SingularTriangular:
		return "singular triangular pivot"
	case RhoBreakdown:
		return "rho breakdown"
	case OmegaBreakdown:
		return "omega breakdown"
	default:
		return "no breakdown"
	}
}

// BreakdownError is the concrete error type returned (wrapped with
// github.com/pkg/errors context) when a solve reports Breakdown. Invalid
// Settings are not reported through it: the solvers panic on them.
type BreakdownError struct {
	Kind       BreakdownKind
	Cycle      int // outer restart cycle in which the breakdown occurred
	Inner      int // inner iteration index within Cycle
	Iterations int // total inner iterations performed before the breakdown
}

func (e *BreakdownError) Error() string {
	return "gmres: " + e.Kind.String()
}

// Outcome summarizes the result of a solve.
type Outcome struct {
	Status Status
	// Iterations is the total number of inner iterations performed
	// across all cycles, not a per-cycle count.
	Iterations int
	// BreakdownKind is NoBreakdown unless Status == Breakdown.
	BreakdownKind BreakdownKind
	// ResidualNorm is the (estimated) norm of the residual at return.
	ResidualNorm float64
}

const dlamchE = 1.0 / (1 << 53)

// breakdownFloor is the relative floor below which a Hessenberg
// subdiagonal entry is treated as a lucky breakdown rather than roundoff.
func breakdownFloor(scale float64) float64 {
	if scale == 0 {
		return dlamchE
	}
	return dlamchE * scale
}
