package scene

import (
	"testing"

	"aq-designs/internal/image"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemType(t *testing.T) {
	tests := []struct {
		in   string
		want ItemType
	}{
		{"jacket", ItemJacket},
		{"hoodie", ItemHoodie},
		{"HOODIE", ItemHoodie},
		{"tshirt", ItemTShirt},
		{"T-Shirt", ItemTShirt},
		{"", ItemJacket},
		{"scarf", ItemJacket},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseItemType(tt.in))
		})
	}
}

func TestItemTypeRoundTripsThroughString(t *testing.T) {
	for _, it := range Items {
		assert.Equal(t, it, ParseItemType(it.String()))
		assert.Equal(t, it, ParseItemType(it.Label()))
	}
}

func TestNewAnnotationHasUniqueUUID(t *testing.T) {
	a := NewAnnotation("hi", "#000", 1, 2, "Arial", 20)
	b := NewAnnotation("hi", "#000", 1, 2, "Arial", 20)

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFindRemove(t *testing.T) {
	s := New()
	a := NewAnnotation("a", "#000", 0, 0, "Arial", 20)
	b := NewAnnotation("b", "#000", 0, 0, "Arial", 20)
	s.Append(a)
	s.Append(b)

	assert.Same(t, b, s.Find(b.ID))
	assert.Equal(t, 1, s.IndexOf(b.ID))
	assert.Nil(t, s.Find("missing"))

	assert.True(t, s.Remove(a.ID))
	assert.False(t, s.Remove(a.ID))
	assert.Equal(t, []string{b.ID}, s.IDs())
}

func TestSnapshotIsolatedFromLaterEdits(t *testing.T) {
	s := New()
	bg := image.NewLayerFromImage(nil, "bg.png")
	s.Background = bg
	a := NewAnnotation("hello", "#000", 10, 20, "Arial", 20)
	s.Append(a)

	snap := s.Snapshot()
	a.Text = "changed"
	a.X = 99

	assert.Equal(t, "hello", snap.Annotations[0].Text)
	assert.Equal(t, 10.0, snap.Annotations[0].X)
	assert.Same(t, bg, snap.Background)
}

func TestRestoreCopiesRecords(t *testing.T) {
	s := New()
	s.Append(NewAnnotation("one", "#000", 1, 1, "Arial", 12))
	snap := s.Snapshot()

	other := New()
	other.Restore(snap)
	require.Len(t, other.Annotations, 1)
	other.Annotations[0].Text = "edited"

	assert.Equal(t, "one", snap.Annotations[0].Text)
	assert.Equal(t, snap.Annotations[0].ID, other.Annotations[0].ID)
}
