package router

import (
	"testing"
)

func TestExtractSlots(t *testing.T) {
	html := `<main>
<h2 data-slot="title">Contact Details</h2>
<div data-slot="errors"><p class="error">Required</p><div><span>nested</span></div></div>
<span data-slot="empty"></span>
<section><div data-slot="outer"><b data-slot="inner">x</b></div></section>
</main>`

	text, markup := extractSlots(html)

	if text["title"] != "Contact Details" {
		t.Errorf("title = %q", text["title"])
	}
	if got := markup["errors"]; got != `<p class="error">Required</p><div><span>nested</span></div>` {
		t.Errorf("errors = %q", got)
	}
	if v, ok := text["empty"]; !ok || v != "" {
		t.Errorf("empty slot should be an empty text slot, got %q (%v)", v, ok)
	}
	if markup["outer"] != `<b data-slot="inner">x</b>` {
		t.Errorf("outer = %q", markup["outer"])
	}
	if _, ok := text["inner"]; ok {
		t.Error("nested slot should stay inside its parent")
	}
}

func TestExtractSlots_Unterminated(t *testing.T) {
	text, markup := extractSlots(`<div data-slot="a">never closed <span data-slot="b">ok</span>`)
	if _, ok := text["a"]; ok {
		t.Error("unterminated slot should be skipped")
	}
	if text["b"] != "ok" {
		t.Errorf("b = %q", text["b"])
	}
	if len(markup) != 0 {
		t.Errorf("unexpected html slots %v", markup)
	}
}

func TestBuildDiffPayload(t *testing.T) {
	s := NewLiveSession("sock", nil, nil, nil)

	seedSlotHashes(s, `<p data-slot="a">1</p><div data-slot="b"><i>x</i></div>`)

	p := buildDiffPayload(s, `<p data-slot="a">2</p><div data-slot="b"><i>x</i></div>`)
	if p.Slots["a"] != "2" {
		t.Errorf("changed slot missing: %#v", p)
	}
	if _, ok := p.HTMLSlots["b"]; ok {
		t.Error("unchanged slot sent")
	}
	if p.Full != "" {
		t.Error("full render should not be sent when slots exist")
	}

	p = buildDiffPayload(s, `<p data-slot="a">2</p><div data-slot="b"><i>x</i></div>`)
	if !p.IsEmpty() {
		t.Errorf("identical render should produce an empty diff, got %#v", p)
	}

	p = buildDiffPayload(s, `<p>no slots</p>`)
	if p.Full != `<p>no slots</p>` {
		t.Errorf("page without slots should be sent whole, got %#v", p)
	}
	if p.Version != 3 {
		t.Errorf("version = %d, want 3", p.Version)
	}
}

func TestHashSlotContent(t *testing.T) {
	if hashSlotContent("a") == hashSlotContent("b") {
		t.Error("different content should hash differently")
	}
	if hashSlotContent("same") != hashSlotContent("same") {
		t.Error("hash must be stable")
	}
}

func BenchmarkExtractSlots(b *testing.B) {
	html := `<main>` +
		`<h2 data-slot="title">Academic Information</h2>` +
		`<ol data-slot="progress"><li class="done">1</li><li class="active">2</li></ol>` +
		`<div data-slot="form"><label>GPA<input name="gpa" value="3.7"></label></div>` +
		`</main>`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		extractSlots(html)
	}
}
