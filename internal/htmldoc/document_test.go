package htmldoc

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/formfill/internal/page"
)

const signupForm = `<!doctype html>
<html><body>
<form id="signup">
  <label for="em">E-mail address</label>
  <input id="em" type="email">
  <label>Full Name <input name="fn"></label>
  <div class="row"><span>hint</span><label>City</label><input id="c1"></div>
  <label>Phone</label><input id="p1">
  <input type="hidden" name="csrf" value="tok">
  <input name="nick" style="display: none">
  <div style="visibility:hidden"><input name="ghost"></div>
  <input name="locked" disabled>
  <textarea name="address"></textarea>
</form>
</body></html>`

func TestCandidates_DocumentOrderAndFacts(t *testing.T) {
	doc, err := ParseString(signupForm)
	require.NoError(t, err)

	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 9)

	keys := make([]string, len(cands))
	for i, c := range cands {
		keys[i] = c.Element.Key()
	}
	assert.Equal(t, "/html/body/form/input[1]", keys[0])
	assert.Equal(t, "/html/body/form/textarea", keys[len(keys)-1])

	em := cands[0]
	assert.Equal(t, "em", em.ID)
	assert.Equal(t, "email", em.Type)
	assert.Equal(t, []string{"E-mail address"}, em.Labels.Associated)

	wrapped := cands[1]
	assert.Equal(t, "fn", wrapped.Name)
	require.Len(t, wrapped.Labels.Associated, 1)
	assert.Contains(t, wrapped.Labels.Associated[0], "Full Name")
	assert.Equal(t, "text", wrapped.Type)

	city := cands[2]
	assert.Empty(t, city.Labels.Associated)
	assert.Equal(t, "City", city.Labels.Parent)
	assert.True(t, city.Labels.PrevSiblingIsLabel)

	phone := cands[3]
	assert.Equal(t, "Phone", phone.Labels.PrevSibling)
	assert.True(t, phone.Labels.PrevSiblingIsLabel)

	assert.Equal(t, "textarea", cands[8].Type)
}

func TestCandidates_Render(t *testing.T) {
	doc, err := ParseString(signupForm)
	require.NoError(t, err)
	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)

	hidden := cands[4]
	assert.Equal(t, "csrf", hidden.Name)
	assert.Zero(t, hidden.Render.Height)

	nick := cands[5]
	assert.Equal(t, "none", nick.Render.Display)

	ghost := cands[6]
	assert.Equal(t, "hidden", ghost.Render.Visibility)

	locked := cands[7]
	assert.True(t, locked.Render.Disabled)

	assert.Equal(t, float64(boxWidth), cands[0].Render.Width)
	assert.Equal(t, "visible", cands[0].Render.Visibility)
}

func TestCandidates_ZeroSizeStyle(t *testing.T) {
	doc, err := ParseString(`<input id="a" style="height:0px"><input id="b" style="width: 0">`)
	require.NoError(t, err)
	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Zero(t, cands[0].Render.Height)
	assert.Zero(t, cands[1].Render.Width)
}

func TestCandidates_Root(t *testing.T) {
	doc, err := ParseString(`<input id="outside"><form id="f"><input id="inside"></form>`, WithRoot("form#f"))
	require.NoError(t, err)
	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "inside", cands[0].ID)

	doc, err = ParseString(`<input>`, WithRoot("#missing"))
	require.NoError(t, err)
	cands, err = doc.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestApply_Timeline(t *testing.T) {
	doc, err := ParseString(`<input id="a" value="old"><textarea id="b">old</textarea>`)
	require.NoError(t, err)

	steps := []page.Step{page.Dispatch("input"), page.SetValue(), page.Dispatch("input")}

	a, err := doc.Element("#a")
	require.NoError(t, err)
	require.NoError(t, a.Apply(context.Background(), steps, "new"))
	assert.Equal(t, "new", a.Value())

	tl := a.Timeline()
	require.Len(t, tl, 3)
	assert.Equal(t, "old", tl[0].Value)
	assert.Equal(t, "new", tl[1].Value)
	assert.Less(t, tl[0].Seq, tl[1].Seq)
	assert.Less(t, tl[1].Seq, tl[2].Seq)

	b, err := doc.Element("textarea#b")
	require.NoError(t, err)
	require.NoError(t, b.Apply(context.Background(), steps, "line"))
	assert.Equal(t, "line", b.Value())
	assert.Greater(t, b.Timeline()[0].Seq, tl[2].Seq)

	var out bytes.Buffer
	require.NoError(t, doc.Render(&out))
	assert.Contains(t, out.String(), `value="new"`)
	assert.Contains(t, out.String(), `>line</textarea>`)
}

func TestApply_Detached(t *testing.T) {
	doc, err := ParseString(`<form><input id="a"></form>`)
	require.NoError(t, err)
	a, err := doc.Element("#a")
	require.NoError(t, err)

	require.NoError(t, doc.Remove("#a"))
	err = a.Apply(context.Background(), []page.Step{page.SetValue()}, "x")
	assert.ErrorIs(t, err, page.ErrDetached)
	assert.Empty(t, a.Timeline())
}

func TestWatch_AppendNotifies(t *testing.T) {
	doc, err := ParseString(`<body><form id="f"></form></body>`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := doc.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, doc.Append("form#f", `<input type="email">`))
	select {
	case c := <-ch:
		assert.Equal(t, 1, c.Added)
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "email", cands[0].Type)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestShowBanner(t *testing.T) {
	doc, err := ParseString(`<p>`)
	require.NoError(t, err)
	require.NoError(t, doc.ShowBanner(context.Background(), "done", time.Second))
	assert.Equal(t, []Banner{{Message: "done", TTL: time.Second}}, doc.Banners())
}

func TestCandidates_WrappingLabelTiesOnlyFirstControl(t *testing.T) {
	doc, err := ParseString(`<form><label>Email
		<input type="hidden" name="tok">
		<input id="first">
		<input id="second">
	</label></form>`)
	require.NoError(t, err)

	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 3)

	assert.Empty(t, cands[0].Labels.Associated)
	require.Len(t, cands[1].Labels.Associated, 1)
	assert.Contains(t, cands[1].Labels.Associated[0], "Email")
	assert.Empty(t, cands[2].Labels.Associated)
}

func TestRemove_StopsTrackingDetachedHandles(t *testing.T) {
	doc, err := ParseString(`<body><form id="f"><input id="a"><textarea id="b"></textarea></form><input id="c"></body>`)
	require.NoError(t, err)

	_, err = doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.elems, 3)

	a, err := doc.Element("#a")
	require.NoError(t, err)

	require.NoError(t, doc.Remove("#f"))
	assert.Len(t, doc.elems, 1)

	err = a.Apply(context.Background(), []page.Step{page.SetValue()}, "x")
	assert.ErrorIs(t, err, page.ErrDetached)

	cands, err := doc.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "c", cands[0].ID)
}
