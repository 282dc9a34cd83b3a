package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tandf/ssac/token"
)

func newMainEmitter() (*Program, *Emitter) {
	names := token.NewNames()
	prog := NewProgram(names)
	fn := prog.DeclareFunction("main", true, nil)
	return prog, NewEmitter(prog, fn)
}

func TestNumberPooling(t *testing.T) {
	_, e := newMainEmitter()
	a := e.Number(7)
	b := e.Number(7)
	c := e.Number(8)
	assert.Equal(t, a.ID(), b.ID(), "same function requesting the same constant twice must get the same value")
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestAddIsCommonSubexpressionEliminated(t *testing.T) {
	_, e := newMainEmitter()
	x := e.Number(1)
	y := e.Number(2)
	first := e.Add(x, y).(*Inst)
	second := e.Add(x, y).(*Inst)
	assert.Equal(t, first, second.GetCS(), "identical ADD must be recognized as a common subexpression")
	assert.Equal(t, first.ID(), second.EffectiveID())
}

func TestCommutativeAddMatchesSwappedOperands(t *testing.T) {
	_, e := newMainEmitter()
	x := e.Number(1)
	y := e.Number(2)
	first := e.Add(x, y).(*Inst)
	second := e.Add(y, x).(*Inst)
	assert.Equal(t, first, second.GetCS())
}

func TestSubIsNotCommutative(t *testing.T) {
	_, e := newMainEmitter()
	x := e.Number(1)
	y := e.Number(2)
	first := e.Sub(x, y).(*Inst)
	second := e.Sub(y, x).(*Inst)
	assert.Nil(t, second.GetCS())
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestScalarAssignAndReadRoundTrip(t *testing.T) {
	_, e := newMainEmitter()
	fn := e.fn
	x := fn.declaredForTest()

	v := e.Number(42)
	_, err := e.AssignScalar(x, v)
	assert.NoError(t, err)

	got, defaulted, err := e.ReadScalar(x)
	assert.NoError(t, err)
	assert.False(t, defaulted)
	assert.Equal(t, v.ID(), got.ID())
}

func TestAssigningUndeclaredScalarIsAnError(t *testing.T) {
	_, e := newMainEmitter()
	_, err := e.AssignScalar(token.IdentID(999), e.Number(1))
	assert.Error(t, err)
}

func TestReadingUndeclaredScalarIsAnError(t *testing.T) {
	_, e := newMainEmitter()
	_, _, err := e.ReadScalar(token.IdentID(999))
	assert.Error(t, err)
}

func TestReadBeforeAssignDefaultsToZeroAndWarns(t *testing.T) {
	_, e := newMainEmitter()
	x := e.fn.declaredForTest()
	v, defaulted, err := e.ReadScalar(x)
	assert.NoError(t, err)
	assert.True(t, defaulted)
	assert.Equal(t, int64(0), v.(*Const).Num)
}

func TestArrayLoadIsCSEdAcrossRereads(t *testing.T) {
	_, e := newMainEmitter()
	id := e.fn.declaredArrayForTest([]int{4})
	idx := e.Number(0)

	first, err := e.ReadArray(id, []Value{idx})
	assert.NoError(t, err)
	second, err := e.ReadArray(id, []Value{idx})
	assert.NoError(t, err)

	assert.Equal(t, first.(*Inst).EffectiveID(), second.(*Inst).EffectiveID())
}

func TestStoreKillsEarlierLoadCSE(t *testing.T) {
	_, e := newMainEmitter()
	id := e.fn.declaredArrayForTest([]int{4})
	idx := e.Number(0)

	first, err := e.ReadArray(id, []Value{idx})
	assert.NoError(t, err)

	assert.NoError(t, e.StoreArray(id, []Value{idx}, e.Number(99)))

	second, err := e.ReadArray(id, []Value{idx})
	assert.NoError(t, err)

	assert.NotEqual(t, first.(*Inst).ID(), second.(*Inst).ID())
	assert.Nil(t, second.(*Inst).GetCS(), "a load after an intervening store to the same array must not be eliminated")
}

func TestArrayAddressComputationComposesAcrossRereads(t *testing.T) {
	_, e := newMainEmitter()
	id := e.fn.declaredArrayForTest([]int{4, 4})
	i := e.Number(1)
	j := e.Number(2)

	first, err := e.ReadArray(id, []Value{i, j})
	assert.NoError(t, err)
	second, err := e.ReadArray(id, []Value{i, j})
	assert.NoError(t, err)

	assert.Equal(t, first.(*Inst).EffectiveID(), second.(*Inst).EffectiveID(),
		"re-reading the same multi-dimensional index must CSE even though the address arithmetic is freshly emitted each time")
}

func TestInvalidateAllCSEForcesRecompute(t *testing.T) {
	_, e := newMainEmitter()
	x := e.Number(1)
	y := e.Number(2)
	first := e.Add(x, y).(*Inst)
	second := e.Add(x, y).(*Inst)
	assert.Equal(t, first, second.GetCS())

	e.fn.InvalidateAllCSE()

	assert.False(t, first.csComputed)
	assert.False(t, second.csComputed)
	assert.Equal(t, first, second.GetCS(), "recomputing after invalidation must find the same equivalence")
}

func TestCallToUndeclaredFunctionIsAnError(t *testing.T) {
	_, e := newMainEmitter()
	_, err := e.Call("doesNotExist", nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrUndeclaredFunction, "callers distinguish this from an arity mismatch")
}

func TestBuiltinOutputNumEmitsWrite(t *testing.T) {
	_, e := newMainEmitter()
	v, err := e.Call(BuiltinOutputNum, []Value{e.Number(1)})
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, WRITE, e.block.Instructions[len(e.block.Instructions)-1].Op)
}

func TestBuiltinInputNumEmitsRead(t *testing.T) {
	_, e := newMainEmitter()
	v, err := e.Call(BuiltinInputNum, nil)
	assert.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, READ, v.(*Inst).Op)
}

// declaredForTest/declaredArrayForTest let these whitebox tests declare a
// scalar/array without going through the parser.
func (fn *Function) declaredForTest() token.IdentID {
	id := token.IdentID(len(fn.declared) + 1000)
	fn.declared[id] = true
	return id
}

func (fn *Function) declaredArrayForTest(dims []int) token.IdentID {
	id := token.IdentID(len(fn.arrays) + 2000)
	fn.ArrayDecl(id, dims)
	return id
}
