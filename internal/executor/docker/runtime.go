package docker

// Runtime describes how a language is executed inside a container.
type Runtime struct {
	// Name is the canonical language name.
	Name string
	// Image is the container image started for this runtime.
	Image string
	// Command produces the argv that runs the given source inline.
	Command func(code string) []string
}

// runtimes maps language names, including aliases, to their runtime.
var runtimes = map[string]Runtime{
	"python": {
		Name:  "python",
		Image: "python:3.12-alpine",
		Command: func(code string) []string {
			return []string{"python", "-c", code}
		},
	},
	"javascript": {
		Name:  "javascript",
		Image: "node:22-alpine",
		Command: func(code string) []string {
			return []string{"node", "-e", code}
		},
	},
}

func init() {
	runtimes["py"] = runtimes["python"]
	runtimes["js"] = runtimes["javascript"]
	runtimes["node"] = runtimes["javascript"]
}

// lookupRuntime resolves a language name or alias.
func lookupRuntime(language string) (Runtime, bool) {
	rt, ok := runtimes[language]
	return rt, ok
}
