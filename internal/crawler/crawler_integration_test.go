//go:build integration

package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/formfill/internal/autofill"
	"github.com/v0xg/formfill/internal/detect"
	"github.com/v0xg/formfill/internal/executor"
	"github.com/v0xg/formfill/internal/page"
	"github.com/v0xg/formfill/internal/watch"
)

const signupPage = `<!doctype html>
<html><body>
<form id="signup">
  <label for="fullname">Full Name</label>
  <input id="fullname" type="text">
  <input id="user" name="username" type="text">
  <input id="mail" type="email">
  <input id="hidden-mail" type="email" style="display:none">
  <div><label>Mobile</label><input id="contact" type="text"></div>
  <textarea id="street" placeholder="Street address"></textarea>
</form>
<p id="log"></p>
<script>
  const log = document.getElementById('log');
  document.getElementById('mail').addEventListener('input', e => {
    log.textContent += 'input:' + e.target.value + ';';
  });
  setTimeout(() => {
    const late = document.createElement('input');
    late.type = 'tel';
    late.id = 'late-phone';
    document.getElementById('signup').appendChild(late);
  }, 300);
</script>
</body></html>`

func openTestPage(t *testing.T) (*Browser, context.Context) {
	t.Helper()
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no Chromium available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(signupPage))
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	b, err := Open(ctx, srv.URL, Options{Headless: true, Timeout: 15 * time.Second})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b, ctx
}

func TestBrowser_CandidatesAndFill(t *testing.T) {
	b, ctx := openTestPage(t)

	cands, err := b.Candidates(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(cands), 6)

	eng := autofill.New(b)
	rep := eng.Fill(ctx, autofill.Persona{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Address: "12 Analytical Row",
	})
	assert.Equal(t, 4, rep.Filled())

	res, err := b.Page().Eval(`() => ({
		name: document.getElementById('fullname').value,
		user: document.getElementById('user').value,
		mail: document.getElementById('mail').value,
		hidden: document.getElementById('hidden-mail').value,
		street: document.getElementById('street').value,
		log: document.getElementById('log').textContent,
	})`)
	require.NoError(t, err)
	v := res.Value
	assert.Equal(t, "Ada Lovelace", v.Get("name").Str())
	assert.Equal(t, "", v.Get("user").Str())
	assert.Equal(t, "ada@example.com", v.Get("mail").Str())
	assert.Equal(t, "", v.Get("hidden").Str())
	assert.Equal(t, "12 Analytical Row", v.Get("street").Str())
	// First input fires before the value is set, the last one after.
	assert.Equal(t, "input:;input:ada@example.com;", v.Get("log").Str())
}

func TestBrowser_WatchReindexesInsertedFields(t *testing.T) {
	b, ctx := openTestPage(t)

	eng := autofill.New(b)
	rctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- watch.New(b, eng, watch.Config{}).Run(rctx) }()

	require.Eventually(t, func() bool {
		for _, f := range eng.Index().Fields(detect.Phone) {
			if f.Signals.ID == "late-phone" {
				return true
			}
		}
		return false
	}, 10*time.Second, 50*time.Millisecond)

	// The earlier phone field still wins.
	f, ok := eng.Index().First(detect.Phone)
	require.True(t, ok)
	assert.Equal(t, "contact", f.Signals.ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reindexer did not stop")
	}
}

func TestBrowser_ShowBanner(t *testing.T) {
	b, ctx := openTestPage(t)

	require.NoError(t, b.ShowBanner(ctx, "Form filled successfully!", time.Second))

	res, err := b.Page().Eval(`() => document.body.innerText`)
	require.NoError(t, err)
	assert.Contains(t, res.Value.Str(), "Form filled successfully!")
}

func TestBrowser_ReleasesHandlesOfOlderScans(t *testing.T) {
	b, ctx := openTestPage(t)

	first, err := b.Candidates(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	var latest []page.Candidate
	for i := 0; i < keepScans; i++ {
		latest, err = b.Candidates(ctx)
		require.NoError(t, err)
	}

	assert.Error(t, first[0].Element.Apply(ctx, executor.Protocol, "stale"))
	assert.NoError(t, latest[0].Element.Apply(ctx, executor.Protocol, "fresh"))
}
