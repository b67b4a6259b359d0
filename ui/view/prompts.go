package view

import (
	"fmt"
	"strings"

	"github.com/soocke/image-picker-go/domain/provider"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Prompts runs the native file and question dialogs. Both block the Tk
// thread until the user answers.
type Prompts struct{}

func (Prompts) AskFile(title, dir string, exts []string) []string {
	types := []FileType{{TypeName: "All files", Extensions: []string{"*"}}}
	if len(exts) > 0 {
		dotted := make([]string, 0, len(exts))
		for _, e := range exts {
			dotted = append(dotted, "."+strings.TrimPrefix(e, "."))
		}
		types = append([]FileType{{TypeName: "Images", Extensions: dotted}}, types...)
	}
	opts := []Opt{Title(title), Filetypes(types)}
	if dir != "" {
		opts = append(opts, Initialdir(dir))
	}
	return GetOpenFile(opts...)
}

func (Prompts) AskPermission(path provider.Path) bool {
	answer := MessageBox(
		Icon("question"),
		Title("Permission"),
		Msg(fmt.Sprintf("Allow %s access?", strings.ToLower(path.Label()))),
		Detail("The picker will grab the screen or the configured region."),
		Type("yesno"),
	)
	return answer == "yes"
}
