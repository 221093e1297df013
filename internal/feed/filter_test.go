package feed

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kata-app/kata-backend/internal/models"
)

func item(title, typ, lang, loc, username string) models.Contribution {
	return models.Contribution{
		ID:       primitive.NewObjectID(),
		Type:     typ,
		Title:    title,
		Language: lang,
		Location: loc,
		Username: username,
	}
}

func titles(items []models.Contribution) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestApplyLanguageIsEquality(t *testing.T) {
	items := []models.Contribution{
		item("a", models.TypeAudio, "Swahili", "", ""),
		item("b", models.TypeAudio, "swahili", "", ""),
		item("c", models.TypeAudio, "Swahili-Coastal", "", ""),
	}

	got := Criteria{Language: "swahili"}.Apply(items)
	// Case-insensitive equality, not substring: the dialect tag does not match.
	assert.Equal(t, []string{"a", "b"}, titles(got))
}

func TestApplySubstringsCaseInsensitive(t *testing.T) {
	items := []models.Contribution{
		item("Morning Chant", models.TypeAudio, "", "Mombasa, Kenya", "amina_k"),
		item("Evening Tale", models.TypeText, "", "Nairobi", "joseph"),
	}

	assert.Len(t, Criteria{Location: "mombasa"}.Apply(items), 1)
	assert.Len(t, Criteria{Username: "AMINA"}.Apply(items), 1)
	assert.Len(t, Criteria{Query: "chant"}.Apply(items), 1)
	assert.Len(t, Criteria{Query: "tale"}.Apply(items), 1)
}

func TestApplyConjunction(t *testing.T) {
	items := []models.Contribution{
		item("Chant", models.TypeAudio, "Swahili", "Mombasa", "amina"),
		item("Chant", models.TypeAudio, "Hausa", "Mombasa", "amina"),
	}

	got := Criteria{Language: "Swahili", Location: "mombasa", Query: "chant"}.Apply(items)
	require.Len(t, got, 1)
	assert.Equal(t, "Swahili", got[0].Language)
}

func TestApplyIsPureAndIdempotent(t *testing.T) {
	items := []models.Contribution{
		item("Chant", models.TypeAudio, "Swahili", "Mombasa", "amina"),
		item("Tale", models.TypeText, "Hausa", "Kano", "joseph"),
	}
	snapshot := append([]models.Contribution(nil), items...)
	crit := Criteria{Language: "Swahili"}

	once := crit.Apply(items)
	twice := crit.Apply(items)

	assert.Equal(t, once, twice)
	assert.Equal(t, snapshot, items)
}

func TestApplyEmptyCriteriaKeepsOrder(t *testing.T) {
	items := []models.Contribution{
		item("z", models.TypeAudio, "", "", ""),
		item("a", models.TypeText, "", "", ""),
	}
	got := Criteria{}.Apply(items)
	assert.Equal(t, []string{"z", "a"}, titles(got))
}

func TestDedupeByIDKeepsFirst(t *testing.T) {
	a := item("first", models.TypeAudio, "", "", "")
	dup := a
	dup.Title = "duplicate"
	b := item("other", models.TypeText, "", "", "")

	got := DedupeByID([]models.Contribution{a, dup, b})
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "other", got[1].Title)
}

func TestServerFilter(t *testing.T) {
	assert.Nil(t, Criteria{}.ServerFilter())
	assert.Nil(t, Criteria{Type: TypeAll}.ServerFilter())

	f := Criteria{Type: "Audio"}.ServerFilter()
	require.NotNil(t, f)
	assert.Equal(t, models.TypeAudio, f.Type)
	assert.Empty(t, f.OwnerUID)
}

func TestDebouncerSupersedesPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Trigger(func() { fired.Add(1) })
	d.Trigger(func() { fired.Add(1) })
	d.Trigger(func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncerStopCancels(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30 * time.Millisecond)

	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
