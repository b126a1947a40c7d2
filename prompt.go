package parley

import "strings"

// DefaultPreamble is the instruction block placed at the top of every
// system turn unless the configuration supplies its own.
const DefaultPreamble = `You are an assistant made for a scripting environment.
Respond with your answers in markdown (` + "```" + `).
When you are asked to change the environment, respond with code surrounded by three tick marks.
Only use the first code block in a response; any further blocks are ignored.
Do not ask the user to do anything; the code you write is run as is.
If a request cannot be fulfilled in code, respond with ` + "`not possible`" + ` and nothing else.

The environment currently contains:`

// SystemPrompt assembles the system turn text from a preamble and a scene
// description. An empty preamble selects DefaultPreamble.
func SystemPrompt(preamble, scene string) string {
	if strings.TrimSpace(preamble) == "" {
		preamble = DefaultPreamble
	}
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return preamble
	}
	return preamble + "\n" + scene
}
