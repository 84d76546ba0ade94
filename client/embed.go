// Package client embeds the browser client served at /_live/.
package client

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"net/http"
	"sync"
)

// ScriptName is the client script's file name under the asset prefix.
const ScriptName = "campusmatch.js"

// Prefix is the URL path the assets are served under.
const Prefix = "/_live/"

//go:embed src/*.js
var assets embed.FS

// Assets returns the embedded filesystem containing JavaScript files.
func Assets() fs.FS {
	fsys, err := fs.Sub(assets, "src")
	if err != nil {
		panic(err)
	}
	return fsys
}

// Version is a short content hash of the client script. It changes with
// every build that changes the script.
var Version = sync.OnceValue(func() string {
	data, err := assets.ReadFile("src/" + ScriptName)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
})

// Handler serves the embedded assets. Mount it under Prefix. Browsers
// revalidate on every load and get 304 while Version is unchanged.
func Handler() http.Handler {
	files := http.FileServer(http.FS(Assets()))
	etag := `"` + Version() + `"`
	return http.StripPrefix(Prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == ScriptName {
			w.Header().Set("ETag", etag)
		}
		files.ServeHTTP(w, r)
	}))
}

// ScriptPath is the URL of the client script.
func ScriptPath() string {
	return Prefix + ScriptName
}
