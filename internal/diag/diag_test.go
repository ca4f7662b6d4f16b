package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistle/internal/source"
)

func TestBagPreservesEmissionOrder(t *testing.T) {
	bag := NewBag()
	pre := BagReporter{Bag: bag, Stage: StagePreprocess}
	chk := BagReporter{Bag: bag, Stage: StageCheck}

	Warnf(pre, PreMacroRedefined, source.Span{Start: 0, End: 1}, "macro %q redefined", "N")
	Errorf(chk, SemaUnresolvedSymbol, source.Span{Start: 4, End: 5}, "undefined: %s", "y")
	Errorf(chk, SemaUnresolvedSymbol, source.Span{Start: 4, End: 5}, "undefined: %s", "y")

	items := bag.Items()
	require.Len(t, items, 3, "duplicates are kept")
	assert.Equal(t, StagePreprocess, items[0].Stage)
	assert.Equal(t, SevWarning, items[0].Severity)
	assert.Equal(t, StageCheck, items[1].Stage)
	assert.True(t, items[1].Located)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, 2, bag.ErrorCount())
}

func TestNilBag(t *testing.T) {
	var bag *Bag
	assert.False(t, bag.HasErrors())
	assert.Equal(t, 0, bag.Len())
	assert.Nil(t, bag.Snapshot())
}

func TestCodeID(t *testing.T) {
	assert.Equal(t, "LEX1001", LexUnknownChar.ID())
	assert.Equal(t, "PRE1101", PreUnknownDirective.ID())
	assert.Equal(t, "SYN2001", SynUnexpectedToken.ID())
	assert.Equal(t, "SEM3005", SemaUnresolvedSymbol.ID())
	assert.Equal(t, "GEN4001", GenMissingEntry.ID())
	assert.Equal(t, "[SEM3005]: Unresolved symbol", SemaUnresolvedSymbol.String())
	assert.Equal(t, "Unknown error", Code(9999).Title())
}

func TestSnapshotIsACopy(t *testing.T) {
	bag := NewBag()
	bag.Add(NewUnlocated(StageGenerate, SevError, GenMissingEntry, "no main"))
	snap := bag.Snapshot()
	snap[0].Message = "changed"
	assert.Equal(t, "no main", bag.Items()[0].Message)
	assert.False(t, bag.Items()[0].Located)
}

func TestSeverityOrdering(t *testing.T) {
	assert.Equal(t, "WARNING", SevWarning.String())
	assert.Equal(t, "UNKNOWN", Severity(9).String())
	assert.True(t, SevError.AtLeast(SevWarning))
	assert.False(t, SevInfo.AtLeast(SevWarning))
}
