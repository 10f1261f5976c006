package svm

import (
	"math"
	"math/rand"
)

const (
	calibrationFolds = 5
	// Fixed shuffle seed keeps calibration reproducible run to run and
	// across concurrent candidate evaluations.
	calibrationSeed = 1
	minProbability  = 1e-7
)

// calibrate derives Platt scaling constants from decision values produced
// by an internal cross-validation, so probabilities reflect out-of-sample
// behavior rather than training fit. Folds whose training part collapses to
// one class contribute constant decision values for their held-out rows.
func (m *SVC) calibrate(x [][]float64, y []int8, cp, cn float64) (probA, probB float64) {
	l := len(y)
	perm := rand.New(rand.NewSource(calibrationSeed)).Perm(l)
	dec := make([]float64, l)

	for f := 0; f < calibrationFolds; f++ {
		begin := f * l / calibrationFolds
		end := (f + 1) * l / calibrationFolds

		trainIdx := make([]int, 0, l-(end-begin))
		trainIdx = append(trainIdx, perm[:begin]...)
		trainIdx = append(trainIdx, perm[end:]...)

		posCount, negCount := 0, 0
		for _, idx := range trainIdx {
			if y[idx] > 0 {
				posCount++
			} else {
				negCount++
			}
		}

		switch {
		case posCount == 0 && negCount == 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = 0
			}
		case posCount > 0 && negCount == 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = 1
			}
		case negCount > 0 && posCount == 0:
			for _, idx := range perm[begin:end] {
				dec[idx] = -1
			}
		default:
			subX := make([][]float64, len(trainIdx))
			subY := make([]int8, len(trainIdx))
			for k, idx := range trainIdx {
				subX[k] = x[idx]
				subY[k] = y[idx]
			}
			coef, rho := solveCSVC(subX, subY, cp, cn, m.Params)
			kern := m.Params.kernelFunc()
			for _, idx := range perm[begin:end] {
				v := -rho
				for k := range subX {
					if coef[k] != 0 {
						v += coef[k] * kern(subX[k], x[idx])
					}
				}
				dec[idx] = v
			}
		}
	}

	return sigmoidTrain(dec, y)
}

// sigmoidTrain fits P(y=1|f) = 1/(1+exp(A*f+B)) to decision values with
// Newton steps and a backtracking line search. The formulation follows
// Platt's with the Lin-Weng fixes for numerical stability.
func sigmoidTrain(dec []float64, y []int8) (a, b float64) {
	l := len(dec)
	prior0, prior1 := 0.0, 0.0
	for _, v := range y {
		if v > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)

	target := make([]float64, l)
	for i := range target {
		if y[i] > 0 {
			target[i] = hiTarget
		} else {
			target[i] = loTarget
		}
	}

	a = 0
	b = math.Log((prior0 + 1) / (prior1 + 1))
	fval := 0.0
	for i := 0; i < l; i++ {
		fApB := dec[i]*a + b
		if fApB >= 0 {
			fval += target[i]*fApB + math.Log(1+math.Exp(-fApB))
		} else {
			fval += (target[i]-1)*fApB + math.Log(1+math.Exp(fApB))
		}
	}

	for iter := 0; iter < maxIter; iter++ {
		h11, h22 := sigma, sigma
		h21, g1, g2 := 0.0, 0.0, 0.0
		for i := 0; i < l; i++ {
			fApB := dec[i]*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += dec[i] * dec[i] * d2
			h22 += d2
			h21 += dec[i] * d2
			d1 := target[i] - p
			g1 += dec[i] * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		stepsize := 1.0
		for stepsize >= minStep {
			newA := a + stepsize*dA
			newB := b + stepsize*dB
			newf := 0.0
			for i := 0; i < l; i++ {
				fApB := dec[i]*newA + newB
				if fApB >= 0 {
					newf += target[i]*fApB + math.Log(1+math.Exp(-fApB))
				} else {
					newf += (target[i]-1)*fApB + math.Log(1+math.Exp(fApB))
				}
			}
			if newf < fval+0.0001*stepsize*gd {
				a, b, fval = newA, newB, newf
				break
			}
			stepsize /= 2
		}
		if stepsize < minStep {
			break
		}
	}
	return a, b
}

// sigmoidPredict maps a decision value through the fitted scaling.
func sigmoidPredict(f, a, b float64) float64 {
	fApB := f*a + b
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}
