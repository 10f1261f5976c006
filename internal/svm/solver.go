package svm

import "math"

// Alpha status relative to its box constraint.
const (
	lowerBound int8 = iota
	upperBound
	free
)

const (
	solverEps = 1e-3
	// tau replaces non-positive curvature in the pair subproblem.
	tau = 1e-12
)

// smoSolver runs sequential minimal optimization on the two-class soft
// margin dual. Labels are +1/-1; cp and cn bound the positive and negative
// alphas.
type smoSolver struct {
	l      int
	q      *qMatrix
	y      []int8
	alpha  []float64
	g      []float64
	status []int8
	cp, cn float64
}

// solveCSVC maximizes the soft-margin dual and returns the per-sample
// coefficients alpha_i * y_i together with the offset rho.
func solveCSVC(x [][]float64, y []int8, cp, cn float64, p Params) (coef []float64, rho float64) {
	l := len(y)
	s := &smoSolver{
		l:      l,
		q:      newQMatrix(x, y, p),
		y:      y,
		alpha:  make([]float64, l),
		g:      make([]float64, l),
		status: make([]int8, l),
		cp:     cp,
		cn:     cn,
	}
	for i := 0; i < l; i++ {
		s.g[i] = -1
		s.updateStatus(i)
	}

	maxIter := 10000000
	if 100*l > maxIter {
		maxIter = 100 * l
	}
	for iter := 0; iter < maxIter; iter++ {
		i, j, ok := s.selectWorkingSet()
		if !ok {
			break
		}
		s.optimizePair(i, j)
	}

	rho = s.calculateRho()
	coef = s.alpha
	for i := range coef {
		coef[i] *= float64(s.y[i])
	}
	return coef, rho
}

func (s *smoSolver) c(i int) float64 {
	if s.y[i] > 0 {
		return s.cp
	}
	return s.cn
}

func (s *smoSolver) updateStatus(i int) {
	switch {
	case s.alpha[i] >= s.c(i):
		s.status[i] = upperBound
	case s.alpha[i] <= 0:
		s.status[i] = lowerBound
	default:
		s.status[i] = free
	}
}

// selectWorkingSet picks the maximal violating pair, breaking ties with
// second order information. Returns false once no pair violates the KKT
// conditions by more than the solver tolerance.
func (s *smoSolver) selectWorkingSet() (int, int, bool) {
	gmax := math.Inf(-1)
	gmax2 := math.Inf(-1)
	gmaxIdx := -1
	gminIdx := -1
	objDiffMin := math.Inf(1)

	for t := 0; t < s.l; t++ {
		if s.y[t] == +1 {
			if s.status[t] != upperBound && -s.g[t] >= gmax {
				gmax = -s.g[t]
				gmaxIdx = t
			}
		} else {
			if s.status[t] != lowerBound && s.g[t] >= gmax {
				gmax = s.g[t]
				gmaxIdx = t
			}
		}
	}

	i := gmaxIdx
	var qi []float64
	if i != -1 {
		qi = s.q.row(i)
	}

	for t := 0; t < s.l; t++ {
		if s.y[t] == +1 {
			if s.status[t] != lowerBound {
				gradDiff := gmax + s.g[t]
				if s.g[t] >= gmax2 {
					gmax2 = s.g[t]
				}
				if gradDiff > 0 {
					quadCoef := s.q.diag[i] + s.q.diag[t] - 2*float64(s.y[i])*qi[t]
					if quadCoef <= 0 {
						quadCoef = tau
					}
					if objDiff := -(gradDiff * gradDiff) / quadCoef; objDiff <= objDiffMin {
						gminIdx = t
						objDiffMin = objDiff
					}
				}
			}
		} else {
			if s.status[t] != upperBound {
				gradDiff := gmax - s.g[t]
				if -s.g[t] >= gmax2 {
					gmax2 = -s.g[t]
				}
				if gradDiff > 0 {
					quadCoef := s.q.diag[i] + s.q.diag[t] + 2*float64(s.y[i])*qi[t]
					if quadCoef <= 0 {
						quadCoef = tau
					}
					if objDiff := -(gradDiff * gradDiff) / quadCoef; objDiff <= objDiffMin {
						gminIdx = t
						objDiffMin = objDiff
					}
				}
			}
		}
	}

	if gmax+gmax2 < solverEps || gminIdx == -1 {
		return -1, -1, false
	}
	return gmaxIdx, gminIdx, true
}

// optimizePair solves the two-variable subproblem analytically, clips the
// result into its box and updates the gradient.
func (s *smoSolver) optimizePair(i, j int) {
	qi := s.q.row(i)
	qj := s.q.row(j)
	ci := s.c(i)
	cj := s.c(j)
	oldAi := s.alpha[i]
	oldAj := s.alpha[j]

	if s.y[i] != s.y[j] {
		quadCoef := s.q.diag[i] + s.q.diag[j] + 2*qi[j]
		if quadCoef <= 0 {
			quadCoef = tau
		}
		delta := (-s.g[i] - s.g[j]) / quadCoef
		diff := s.alpha[i] - s.alpha[j]
		s.alpha[i] += delta
		s.alpha[j] += delta

		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = diff
			}
		} else {
			if s.alpha[i] < 0 {
				s.alpha[i] = 0
				s.alpha[j] = -diff
			}
		}
		if diff > ci-cj {
			if s.alpha[i] > ci {
				s.alpha[i] = ci
				s.alpha[j] = ci - diff
			}
		} else {
			if s.alpha[j] > cj {
				s.alpha[j] = cj
				s.alpha[i] = cj + diff
			}
		}
	} else {
		quadCoef := s.q.diag[i] + s.q.diag[j] - 2*qi[j]
		if quadCoef <= 0 {
			quadCoef = tau
		}
		delta := (s.g[i] - s.g[j]) / quadCoef
		sum := s.alpha[i] + s.alpha[j]
		s.alpha[i] -= delta
		s.alpha[j] += delta

		if sum > ci {
			if s.alpha[i] > ci {
				s.alpha[i] = ci
				s.alpha[j] = sum - ci
			}
		} else {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = sum
			}
		}
		if sum > cj {
			if s.alpha[j] > cj {
				s.alpha[j] = cj
				s.alpha[i] = sum - cj
			}
		} else {
			if s.alpha[i] < 0 {
				s.alpha[i] = 0
				s.alpha[j] = sum
			}
		}
	}

	dAi := s.alpha[i] - oldAi
	dAj := s.alpha[j] - oldAj
	for t := 0; t < s.l; t++ {
		s.g[t] += qi[t]*dAi + qj[t]*dAj
	}
	s.updateStatus(i)
	s.updateStatus(j)
}

// calculateRho averages y*G over the free vectors, falling back to the
// midpoint of the feasible interval when every alpha sits on a bound.
func (s *smoSolver) calculateRho() float64 {
	ub := math.Inf(1)
	lb := math.Inf(-1)
	sumFree := 0.0
	nFree := 0

	for i := 0; i < s.l; i++ {
		yg := float64(s.y[i]) * s.g[i]
		switch s.status[i] {
		case upperBound:
			if s.y[i] == -1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case lowerBound:
			if s.y[i] == +1 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}

	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
