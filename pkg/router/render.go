package router

import (
	"bytes"
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/campusmatch/campusmatch/pkg/core"
)

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// renderHTML renders comp to a string.
func renderHTML(ctx context.Context, comp core.Component) (string, error) {
	renderer := comp.Render(ctx)
	if renderer == nil {
		return "", ErrNilRenderer
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= 64*1024 {
			bufferPool.Put(buf)
		}
	}()

	if err := renderer.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildDiffPayload compares the slots of html with the hashes last sent to
// the session and returns only the changed ones. A page without slots is
// sent whole.
func buildDiffPayload(session *LiveSession, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.nextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	textSlots, htmlSlots := extractSlots(html)
	if len(textSlots) == 0 && len(htmlSlots) == 0 {
		session.swapSlotHashes(nil)
		payload.Full = html
		return payload
	}

	next := make(map[string]uint64, len(textSlots)+len(htmlSlots))
	for id, content := range textSlots {
		next[id] = hashSlotContent(content)
	}
	for id, content := range htmlSlots {
		next[id] = hashSlotContent(content)
	}
	prev := session.swapSlotHashes(next)

	for id, content := range textSlots {
		if h, ok := prev[id]; !ok || h != next[id] {
			payload.Slots[id] = content
		}
	}
	for id, content := range htmlSlots {
		if h, ok := prev[id]; !ok || h != next[id] {
			payload.HTMLSlots[id] = content
		}
	}
	return payload
}

// seedSlotHashes records the slots of a full render without producing a
// diff, so the first event after a join only sends what changed.
func seedSlotHashes(session *LiveSession, html string) {
	textSlots, htmlSlots := extractSlots(html)
	hashes := make(map[string]uint64, len(textSlots)+len(htmlSlots))
	for id, content := range textSlots {
		hashes[id] = hashSlotContent(content)
	}
	for id, content := range htmlSlots {
		hashes[id] = hashSlotContent(content)
	}
	session.swapSlotHashes(hashes)
}

func hashSlotContent(content string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return h.Sum64()
}

// extractSlots collects the inner content of every element carrying
// data-slot="id" in a single pass. Content without markup is a text slot,
// anything else an HTML slot. Slots nested inside another slot are part of
// the outer slot's content.
func extractSlots(html string) (textSlots, htmlSlots map[string]string) {
	textSlots = make(map[string]string)
	htmlSlots = make(map[string]string)

	const marker = `data-slot="`
	n := len(html)
	pos := 0

	for pos < n {
		idx := strings.Index(html[pos:], marker)
		if idx == -1 {
			break
		}

		idStart := pos + idx + len(marker)
		idLen := strings.IndexByte(html[idStart:], '"')
		if idLen == -1 {
			break
		}
		slotID := html[idStart : idStart+idLen]

		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}
		nameEnd := tagStart + 1
		for nameEnd < n && !isTagNameEnd(html[nameEnd]) {
			nameEnd++
		}
		tagName := html[tagStart+1 : nameEnd]

		openEnd := strings.IndexByte(html[idStart+idLen:], '>')
		if openEnd == -1 {
			break
		}
		contentStart := idStart + idLen + openEnd + 1

		openTag := "<" + tagName
		closeTag := "</" + tagName + ">"

		depth := 1
		search := contentStart
		contentEnd := -1
		for depth > 0 && search < n {
			nextClose := strings.Index(html[search:], closeTag)
			if nextClose == -1 {
				break
			}
			nextClose += search

			nextOpen := strings.Index(html[search:nextClose], openTag)
			if nextOpen != -1 {
				nextOpen += search
				after := nextOpen + len(openTag)
				if after < n && isTagNameEnd(html[after]) {
					depth++
				}
				search = after
				continue
			}

			depth--
			if depth == 0 {
				contentEnd = nextClose
			}
			search = nextClose + len(closeTag)
		}

		if contentEnd == -1 {
			pos = contentStart
			continue
		}

		content := strings.TrimSpace(html[contentStart:contentEnd])
		if strings.ContainsAny(content, "<>") {
			htmlSlots[slotID] = content
		} else {
			textSlots[slotID] = content
		}
		pos = search
	}

	return textSlots, htmlSlots
}

func isTagNameEnd(c byte) bool {
	return c == ' ' || c == '>' || c == '/' || c == '\t' || c == '\n' || c == '\r'
}
