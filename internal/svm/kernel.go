package svm

import (
	"container/list"
	"math"

	"gonum.org/v1/gonum/floats"
)

type kernelFunc func(a, b []float64) float64

func (p Params) kernelFunc() kernelFunc {
	switch p.Kernel {
	case KernelLinear:
		return floats.Dot
	default:
		gamma := p.Gamma
		return func(a, b []float64) float64 {
			d := 0.0
			for i := range a {
				diff := a[i] - b[i]
				d += diff * diff
			}
			return math.Exp(-gamma * d)
		}
	}
}

// rowCache keeps recently used kernel matrix rows so the solver does not
// recompute them on every working-set pass.
type rowCache struct {
	capacity int
	order    *list.List
	rows     map[int]*list.Element
}

type cacheEntry struct {
	index int
	row   []float64
}

func newRowCache(capacity int) *rowCache {
	return &rowCache{
		capacity: capacity,
		order:    list.New(),
		rows:     make(map[int]*list.Element, capacity),
	}
}

func (c *rowCache) get(i int) ([]float64, bool) {
	el, ok := c.rows[i]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(cacheEntry).row, true
}

func (c *rowCache) put(i int, row []float64) {
	if el, ok := c.rows[i]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.rows[i] = c.order.PushFront(cacheEntry{index: i, row: row})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.rows, oldest.Value.(cacheEntry).index)
	}
}

// qMatrix serves rows of Q, where Q[i][j] = y_i * y_j * K(x_i, x_j), plus
// the kernel diagonal. RBF rows reuse precomputed squared norms.
type qMatrix struct {
	x      [][]float64
	y      []int8
	linear bool
	gamma  float64
	xsq    []float64
	diag   []float64
	cache  *rowCache
}

func newQMatrix(x [][]float64, y []int8, p Params) *qMatrix {
	l := len(x)
	q := &qMatrix{
		x:      x,
		y:      y,
		linear: p.Kernel == KernelLinear,
		gamma:  p.Gamma,
		diag:   make([]float64, l),
	}
	if !q.linear {
		q.xsq = make([]float64, l)
		for i := range x {
			q.xsq[i] = floats.Dot(x[i], x[i])
		}
	}
	for i := range x {
		if q.linear {
			q.diag[i] = floats.Dot(x[i], x[i])
		} else {
			q.diag[i] = 1
		}
	}

	capacity := 4096
	if l < capacity {
		capacity = l
	}
	q.cache = newRowCache(capacity)
	return q
}

func (q *qMatrix) row(i int) []float64 {
	if row, ok := q.cache.get(i); ok {
		return row
	}
	row := make([]float64, len(q.x))
	yi := float64(q.y[i])
	for j := range q.x {
		var k float64
		if q.linear {
			k = floats.Dot(q.x[i], q.x[j])
		} else {
			k = math.Exp(-q.gamma * (q.xsq[i] + q.xsq[j] - 2*floats.Dot(q.x[i], q.x[j])))
		}
		row[j] = yi * float64(q.y[j]) * k
	}
	q.cache.put(i, row)
	return row
}
