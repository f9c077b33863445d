// internal/app/features/boards/templates.go
package boards

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "boards",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
