package pool

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/fatal"
)

// ============================================================================
// Test Helpers
// ============================================================================

func addr[T any](p *T) uintptr { return uintptr(unsafe.Pointer(p)) }

// allocAndFree exercises the full life cycle of a pool of size n.
func allocAndFree[T any](t *testing.T, n int) {
	t.Helper()

	p := New[T](n, nil)
	defer p.Close()

	var zero T
	elem := unsafe.Sizeof(zero)

	require.Equal(t, n, p.Capacity())
	require.Equal(t, n, p.Size())

	ptrs := make([]*T, n)
	for i := range n {
		ptrs[i] = p.Alloc()
		require.NotNil(t, ptrs[i], "alloc %d of %d", i, n)
		require.Equal(t, n-i-1, p.Capacity())
	}

	require.Zero(t, p.Capacity())
	require.Nil(t, p.Alloc(), "alloc beyond size must return nil")

	for i := 1; i < n; i++ {
		require.Equal(t, elem, addr(ptrs[i])-addr(ptrs[i-1]), "slot %d spacing", i)
	}
	if n > 1 {
		require.Equal(t, uintptr(n-1)*elem, addr(ptrs[n-1])-addr(ptrs[0]))
	}

	require.NoError(t, p.Release(ptrs[0]))
	require.NoError(t, p.Release(nil))
	require.Equal(t, 1, p.Capacity())

	again := p.Alloc()
	require.Equal(t, addr(ptrs[0]), addr(again), "freed slot is reused")
	require.Nil(t, p.Alloc())

	p.ReleaseAll()
	require.Equal(t, n, p.Capacity())
	require.NoError(t, p.Verify())
}

type pair struct {
	a, b float64
}

// recorder appends its id to a shared log when destroyed.
type recorder struct {
	id  int
	log *[]int
}

func (r *recorder) Destroy() {
	*r.log = append(*r.log, r.id)
}

// ============================================================================
// Allocation
// ============================================================================

func Test_Pool_AllocAndFree(t *testing.T) {
	t.Run("byte/1", func(t *testing.T) { allocAndFree[byte](t, 1) })
	t.Run("int64/1", func(t *testing.T) { allocAndFree[int64](t, 1) })
	t.Run("bool/17", func(t *testing.T) { allocAndFree[bool](t, 17) })
	t.Run("float64/17", func(t *testing.T) { allocAndFree[float64](t, 17) })
	t.Run("pointer/17", func(t *testing.T) { allocAndFree[*int](t, 17) })
	t.Run("int32/4790", func(t *testing.T) { allocAndFree[int32](t, 4790) })
	t.Run("pair/4790", func(t *testing.T) { allocAndFree[pair](t, 4790) })
	t.Run("string/18647", func(t *testing.T) { allocAndFree[string](t, 18647) })
}

func Test_Pool_CapacityTracksAllocations(t *testing.T) {
	const n = 10
	p := New[int](n, nil)

	var live []*int
	for k := 1; k <= 6; k++ {
		live = append(live, p.Alloc())
		assert.Equal(t, n-k, p.Capacity())
		assert.Equal(t, k, p.Used())
	}

	victim := live[3]
	require.NoError(t, p.Release(victim))
	assert.Equal(t, n-6+1, p.Capacity())

	reused := p.Alloc()
	assert.Equal(t, addr(victim), addr(reused), "next alloc takes the freed slot")
}

func Test_Pool_RoundTrip(t *testing.T) {
	p := New[pair](8, nil)
	p.Alloc()
	p.Alloc()

	before := p.Capacity()
	first := p.Alloc()
	require.NoError(t, p.Release(first))
	assert.Equal(t, before, p.Capacity())

	second := p.Alloc()
	assert.Equal(t, addr(first), addr(second))
}

func Test_Pool_AllocReturnsZeroValue(t *testing.T) {
	p := New[pair](1, nil)
	obj := p.Alloc()
	obj.a, obj.b = 3, 4
	require.NoError(t, p.Release(obj))

	obj = p.Alloc()
	assert.Equal(t, pair{}, *obj)
}

func Test_Pool_ReleaseNil(t *testing.T) {
	p := New[int](3, nil)
	p.Alloc()
	require.NoError(t, p.Release(nil))
	assert.Equal(t, 2, p.Capacity())
}

func Test_Pool_ReleaseForeignPointer(t *testing.T) {
	p := New[pair](4, nil)
	p.Alloc()

	var outside pair
	assert.ErrorIs(t, p.Release(&outside), ErrNotOwned)
	assert.False(t, p.Owns(&outside))

	other := New[pair](4, nil)
	assert.ErrorIs(t, p.Release(other.Alloc()), ErrNotOwned)

	// A pointer into the middle of a slot is not a slot address.
	obj := p.Alloc()
	inner := (*pair)(unsafe.Add(unsafe.Pointer(obj), unsafe.Sizeof(float64(0))))
	assert.ErrorIs(t, p.Release(inner), ErrNotOwned)

	assert.Equal(t, 2, p.Capacity())
	require.NoError(t, p.Verify())
}

func Test_Pool_Owns(t *testing.T) {
	p := New[int](2, nil)
	obj := p.Alloc()
	assert.True(t, p.Owns(obj))
	require.NoError(t, p.Release(obj))
	assert.True(t, p.Owns(obj), "free slots are still owned")
	assert.False(t, p.Owns(nil))
}

// ============================================================================
// Destruction
// ============================================================================

func Test_Pool_ReleaseRunsDestructor(t *testing.T) {
	var destroyed []int
	p := New[recorder](4, nil)

	a := p.Alloc()
	*a = recorder{id: 7, log: &destroyed}
	require.NoError(t, p.Release(a))

	assert.Equal(t, []int{7}, destroyed)
	assert.Equal(t, recorder{}, *a, "slot is cleared after destruction")
}

func Test_Pool_ReleaseAll_ReverseOrder(t *testing.T) {
	const n = 64
	var destroyed []int
	p := New[recorder](n, nil)

	for i := range n {
		obj := p.Alloc()
		*obj = recorder{id: i, log: &destroyed}
	}
	p.ReleaseAll()

	require.Len(t, destroyed, n, "each destructor runs exactly once")
	for i := range n {
		require.Equal(t, n-i-1, destroyed[i])
	}
	assert.Equal(t, n, p.Capacity())
	require.NoError(t, p.Verify())
}

func Test_Pool_ReleaseAll_AfterIntermediateRelease(t *testing.T) {
	var destroyed []int
	p := New[recorder](5, nil)

	objs := make([]*recorder, 5)
	for i := range objs {
		objs[i] = p.Alloc()
		*objs[i] = recorder{id: i, log: &destroyed}
	}
	require.NoError(t, p.Release(objs[2]))
	destroyed = destroyed[:0]

	p.ReleaseAll()
	assert.Equal(t, []int{4, 3, 1, 0}, destroyed)
}

func Test_Pool_Close_DestroysLiveObjects(t *testing.T) {
	const n = 16
	var destroyed []int
	func() {
		p := New[recorder](n, nil)
		defer p.Close()
		for i := range n {
			obj := p.Alloc()
			*obj = recorder{id: i, log: &destroyed}
		}
	}()

	require.Len(t, destroyed, n)
	for i := range n {
		assert.Equal(t, n-i-1, destroyed[i])
	}
}

func Test_Pool_Close_DisablesPool(t *testing.T) {
	p := New[int](3, nil)
	obj := p.Alloc()
	p.Close()

	assert.Nil(t, p.Alloc())
	assert.ErrorIs(t, p.Release(obj), ErrNotOwned)
	assert.Equal(t, 3, p.Size())
	assert.Zero(t, p.Capacity())
	assert.NoError(t, p.Verify())

	p.Close() // idempotent
}

// ============================================================================
// Constructors
// ============================================================================

func Test_Pool_AllocWith_RunsConstructor(t *testing.T) {
	p := New[pair](2, nil)
	obj, err := p.AllocWith(func(v *pair) error {
		v.a, v.b = 1.5, 2.5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, pair{1.5, 2.5}, *obj)
	assert.Equal(t, 1, p.Capacity())
}

func Test_Pool_AllocWith_NilConstructor(t *testing.T) {
	p := New[pair](1, nil)
	obj, err := p.AllocWith(nil)
	require.NoError(t, err)
	assert.NotNil(t, obj)
}

func Test_Pool_AllocWith_ErrorRollsBack(t *testing.T) {
	var destroyed []int
	p := New[recorder](3, nil)
	p.Alloc()
	expected := addr(&p.storage[1])

	boom := errors.New("boom")
	obj, err := p.AllocWith(func(r *recorder) error {
		r.id = 99
		r.log = &destroyed
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, obj)
	assert.Equal(t, 2, p.Capacity(), "reservation is undone")
	assert.Empty(t, destroyed, "no destructor for an object that was never built")
	assert.Equal(t, recorder{}, p.storage[1])

	next := p.Alloc()
	assert.Equal(t, expected, addr(next), "rolled back slot is handed out next")
	require.NoError(t, p.Verify())
}

func Test_Pool_AllocWith_PanicRollsBack(t *testing.T) {
	p := New[int](2, nil)

	assert.PanicsWithValue(t, "ctor", func() {
		_, _ = p.AllocWith(func(*int) error { panic("ctor") })
	})
	assert.Equal(t, 2, p.Capacity())
	require.NoError(t, p.Verify())
}

func Test_Pool_AllocWith_Exhausted(t *testing.T) {
	p := New[int](1, nil)
	p.Alloc()

	called := false
	obj, err := p.AllocWith(func(*int) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Nil(t, obj)
	assert.False(t, called)
}

// ============================================================================
// Double release
// ============================================================================

func Test_Pool_DoubleRelease_Checked(t *testing.T) {
	var logBuf bytes.Buffer
	p := New[recorder](4, &Options{
		CheckDoubleRelease: true,
		Logger:             slog.New(slog.NewTextHandler(&logBuf, nil)),
	})

	var destroyed []int
	obj := p.Alloc()
	*obj = recorder{id: 1, log: &destroyed}
	p.Alloc()

	require.NoError(t, p.Release(obj))
	err := p.Release(obj)
	require.ErrorIs(t, err, ErrDoubleRelease)

	assert.Equal(t, []int{1}, destroyed, "destructor is not run twice")
	assert.Equal(t, 3, p.Capacity())
	assert.Contains(t, logBuf.String(), "release called twice")
	require.NoError(t, p.Verify())
}

// Without the check a double release silently corrupts the chains.
func Test_Pool_DoubleRelease_UncheckedCorrupts(t *testing.T) {
	p := New[int](4, nil)
	obj := p.Alloc()
	p.Alloc()

	require.NoError(t, p.Release(obj))
	require.NoError(t, p.Release(obj))
	assert.Error(t, p.Verify())
}

// ============================================================================
// Fatal conditions
// ============================================================================

func Test_Pool_ZeroCapacityIsFatal(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r, "New(0) must not return")
		e, ok := r.(*fatal.Error)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, fatal.KindConfig, e.Kind)
	}()
	p := New[int](0, nil)
	t.Fatalf("New(0) returned %v", p)
}

func Test_Pool_ZeroSizedTypeIsFatal(t *testing.T) {
	assert.Panics(t, func() { New[struct{}](8, nil) })
}

func Test_Pool_OnFatalHandler(t *testing.T) {
	var got error
	opts := &Options{OnFatal: func(err error) {
		got = err
		panic(err)
	}}

	assert.Panics(t, func() { New[int](-1, opts) })

	var fe *fatal.Error
	require.ErrorAs(t, got, &fe)
	assert.Contains(t, fe.Message, "capacity must be positive")
}

func Test_Pool_OptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(configWithCheck(true))
	assert.True(t, opts.CheckDoubleRelease)
	assert.Nil(t, opts.Logger)
}

// ============================================================================
// Diagnostics
// ============================================================================

func Test_Pool_TraceLogging(t *testing.T) {
	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := New[int](1, &Options{Logger: log})

	obj := p.Alloc()
	assert.Nil(t, p.Alloc())
	require.NoError(t, p.Release(obj))
	p.Alloc()
	p.ReleaseAll()

	out := logBuf.String()
	assert.Contains(t, out, "pool: new")
	assert.Contains(t, out, "type=int")
	assert.Contains(t, out, "pool: alloc")
	assert.Contains(t, out, "pool: insufficient storage")
	assert.Contains(t, out, "pool: free")
	assert.Contains(t, out, "pool: released all")
	assert.Contains(t, out, "count=1")
}
