package filter

import (
	"testing"

	"marketplace/pkg/model"

	"github.com/stretchr/testify/assert"
)

type plainItem struct {
	title, desc, status string
}

func (p plainItem) SearchTitle() string       { return p.title }
func (p plainItem) SearchDescription() string { return p.desc }
func (p plainItem) FilterStatus() string      { return p.status }

func discoveries() []*model.CatalogItem {
	return []*model.CatalogItem{
		{ID: "1", Title: "Route des épices", Description: "Visite guidée", Status: "active", Tags: []string{"vanille", "Nature"}},
		{ID: "2", Title: "Lagon bleu", Description: "Snorkeling au récif", Status: "active", Tags: []string{"Mer"}},
		{ID: "3", Title: "Cascade cachée", Description: "Randonnée", Status: "draft", Tags: []string{"Nature"}},
	}
}

func TestApply_EmptyTermAllStatusKeepsOrder(t *testing.T) {
	items := discoveries()
	got := Apply(items, "", model.StatusAll)
	assert.Equal(t, items, got)
}

func TestApply_MatchesTagOnly(t *testing.T) {
	got := Apply(discoveries(), "vanille", model.StatusAll)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "1", got[0].ID)
	}
}

func TestApply_CaseInsensitiveTitleAndDescription(t *testing.T) {
	items := discoveries()

	got := Apply(items, "LAGON", model.StatusAll)
	assert.Len(t, got, 1)

	got = Apply(items, "randonnée", model.StatusAll)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "3", got[0].ID)
	}
}

func TestApply_StatusExactMatch(t *testing.T) {
	got := Apply(discoveries(), "nature", "active")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "1", got[0].ID)
	}

	assert.Empty(t, Apply(discoveries(), "", "act"))
}

func TestApply_UntaggedItemsIgnoreTags(t *testing.T) {
	items := []plainItem{
		{title: "Massage", desc: "Relaxation", status: "pending"},
		{title: "Coiffure", desc: "Coupe homme", status: "confirmed"},
	}

	assert.Empty(t, Apply(items, "vanille", model.StatusAll))
	assert.Equal(t, items[1:], Apply(items, "", "confirmed"))
}

func TestApply_StableSubsequence(t *testing.T) {
	items := []plainItem{
		{title: "b match"}, {title: "a"}, {title: "c match"}, {title: "a match"},
	}
	got := Apply(items, "match", "")
	assert.Equal(t, []plainItem{items[0], items[2], items[3]}, got)
}

func TestApply_TermIsNotTrimmed(t *testing.T) {
	items := discoveries()

	assert.Empty(t, Apply(items, "vanille ", model.StatusAll))

	got := Apply(items, "   ", model.StatusAll)
	assert.Empty(t, got)

	got = Apply(items, " ", model.StatusAll)
	if assert.Len(t, got, 3) {
		assert.Equal(t, "1", got[0].ID)
	}

	got = Apply(items, "lagon ", model.StatusAll)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "2", got[0].ID)
	}
}
