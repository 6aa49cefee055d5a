package genval

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A WorkerPool bounds the fan-out of Parallel-flagged operations. The
// zero limit means one worker per CPU.
type WorkerPool struct {
	limit int
}

// NewWorkerPool creates a pool running at most limit workers at once.
func NewWorkerPool(limit int) *WorkerPool { return &WorkerPool{limit: limit} }

func (p *WorkerPool) workers() int {
	if p == nil || p.limit <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.limit
}

// SetWorkerPool supplies the pool used by Parallel-flagged operations
// on this builder.
func (b *Builder) SetWorkerPool(p *WorkerPool) { b.pool = p }

// Filter returns the elements of seq for which pred holds.
func (b *Builder) Filter(in Value, pred PredFunc) Value {
	return b.opFilter(0, in, pred)
}

// FilterParallel is Filter on the builder's worker pool.
func (b *Builder) FilterParallel(in Value, pred PredFunc) Value {
	return b.opFilter(Parallel, in, pred)
}

func (b *Builder) opFilter(flags OpFlags, in Value, pred PredFunc) Value {
	seq, ok := seqInput(in)
	if !ok || pred == nil {
		return Invalid
	}
	if flags&Parallel != 0 {
		return b.parallelFilterMap(seq, pred, nil)
	}
	items := seq.seqItems()
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if pred(b, it) {
			out = append(out, it)
		}
	}
	return b.createSeq(out)
}

// Map applies fn to every element of seq.
func (b *Builder) Map(in Value, fn MapFunc) Value {
	return b.opMap(0, in, fn)
}

// MapParallel is Map on the builder's worker pool.
func (b *Builder) MapParallel(in Value, fn MapFunc) Value {
	return b.opMap(Parallel, in, fn)
}

func (b *Builder) opMap(flags OpFlags, in Value, fn MapFunc) Value {
	seq, ok := seqInput(in)
	if !ok || fn == nil {
		return Invalid
	}
	if flags&Parallel != 0 {
		return b.parallelFilterMap(seq, nil, fn)
	}
	items := seq.seqItems()
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = fn(b, it)
		if out[i].IsInvalid() {
			return Invalid
		}
	}
	return b.createSeq(out)
}

// Reduce folds seq into acc0 with fn, left to right.
func (b *Builder) Reduce(in Value, acc0 Value, fn ReduceFunc) Value {
	return b.opReduce(0, in, acc0, fn)
}

// ReduceParallel is Reduce on the builder's worker pool. fn must be
// associative: chunk partials are combined in chunk order, so the
// result is deterministic up to combiner associativity and not
// guaranteed deterministic for non-associative combiners.
func (b *Builder) ReduceParallel(in Value, acc0 Value, fn ReduceFunc) Value {
	return b.opReduce(Parallel, in, acc0, fn)
}

func (b *Builder) opReduce(flags OpFlags, in Value, acc0 Value, fn ReduceFunc) Value {
	seq, ok := seqInput(in)
	if !ok || fn == nil || acc0.IsInvalid() {
		return Invalid
	}
	if flags&Parallel != 0 {
		return b.parallelReduce(seq, acc0, fn)
	}
	acc := acc0
	items := seq.seqItems()
	for _, it := range items {
		acc = fn(b, acc, it)
		if acc.IsInvalid() {
			return Invalid
		}
	}
	return b.Internalize(acc)
}

// chunkBounds splits n items into at most workers contiguous chunks.
func chunkBounds(n, workers int) [][2]int {
	if workers > n {
		workers = n
	}
	if workers == 0 {
		return nil
	}
	bounds := make([][2]int, 0, workers)
	per := n / workers
	rem := n % workers
	start := 0
	for i := 0; i < workers; i++ {
		size := per
		if i < rem {
			size++
		}
		bounds = append(bounds, [2]int{start, start + size})
		start += size
	}
	return bounds
}

// parallelFilterMap fans elements out over worker goroutines. Each
// worker allocates into a thread-local staging builder; partial
// results are merged back into b's arena on the originating
// goroutine, in chunk order.
func (b *Builder) parallelFilterMap(seq Value, pred PredFunc, fn MapFunc) Value {
	items := seq.seqItems()
	bounds := chunkBounds(len(items), b.pool.workers())
	if len(bounds) <= 1 {
		if pred != nil {
			return b.opFilter(0, seq, pred)
		}
		return b.opMap(0, seq, fn)
	}

	stage := make([]*Builder, len(bounds))
	partial := make([][]Value, len(bounds))
	var g errgroup.Group
	g.SetLimit(b.pool.workers())
	for ci, bd := range bounds {
		ci, bd := ci, bd
		stage[ci] = NewBuilder(BuilderConfig{Parent: b, ScopeLeader: true, Schema: b.cfg.Schema})
		g.Go(func() error {
			wb := stage[ci]
			out := make([]Value, 0, bd[1]-bd[0])
			for _, it := range items[bd[0]:bd[1]] {
				if pred != nil {
					if pred(wb, it) {
						out = append(out, it)
					}
					continue
				}
				v := fn(wb, it)
				if v.IsInvalid() {
					return errInvalidResult
				}
				out = append(out, v)
			}
			partial[ci] = out
			return nil
		})
	}
	err := g.Wait()

	// Merge on the originating goroutine, then discard the scopes.
	var out []Value
	if err == nil {
		for _, p := range partial {
			for _, v := range p {
				v = b.Internalize(v)
				if v.IsInvalid() {
					err = errInvalidResult
					break
				}
				out = append(out, v)
			}
			if err != nil {
				break
			}
		}
	}
	for _, s := range stage {
		s.Destroy()
	}
	if err != nil {
		return Invalid
	}
	return b.createSeq(out)
}

func (b *Builder) parallelReduce(seq Value, acc0 Value, fn ReduceFunc) Value {
	items := seq.seqItems()
	bounds := chunkBounds(len(items), b.pool.workers())
	if len(bounds) <= 1 {
		return b.opReduce(0, seq, acc0, fn)
	}

	stage := make([]*Builder, len(bounds))
	partial := make([]Value, len(bounds))
	var g errgroup.Group
	g.SetLimit(b.pool.workers())
	for ci, bd := range bounds {
		ci, bd := ci, bd
		stage[ci] = NewBuilder(BuilderConfig{Parent: b, ScopeLeader: true, Schema: b.cfg.Schema})
		g.Go(func() error {
			wb := stage[ci]
			chunk := items[bd[0]:bd[1]]
			acc := chunk[0]
			for _, it := range chunk[1:] {
				acc = fn(wb, acc, it)
				if acc.IsInvalid() {
					return errInvalidResult
				}
			}
			partial[ci] = acc
			return nil
		})
	}
	err := g.Wait()

	acc := acc0
	if err == nil {
		for _, p := range partial {
			acc = fn(b, acc, p)
			if acc.IsInvalid() {
				err = errInvalidResult
				break
			}
		}
		if err == nil {
			acc = b.Internalize(acc)
		}
	}
	for _, s := range stage {
		s.Destroy()
	}
	if err != nil || acc.IsInvalid() {
		return Invalid
	}
	return acc
}
