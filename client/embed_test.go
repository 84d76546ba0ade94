package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesScript(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + ScriptPath())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, event := range []string{"phx_join", "set_field", "toggle_item", "lv:navigate", "lv:back"} {
		if !strings.Contains(string(body), event) {
			t.Errorf("client script does not handle %s", event)
		}
	}
	if got := resp.Header.Get("ETag"); got != `"`+Version()+`"` {
		t.Errorf("ETag = %q", got)
	}
}

func TestHandlerRevalidates(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+ScriptPath(), nil)
	req.Header.Set("If-None-Match", `"`+Version()+`"`)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want 304", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + Prefix + "nope.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing file status = %d", resp.StatusCode)
	}
}

func TestVersion(t *testing.T) {
	v := Version()
	if len(v) != 12 || v != Version() {
		t.Errorf("Version() = %q", v)
	}
}
