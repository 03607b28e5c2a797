// Command unillm sends canonical generation requests to OpenAI, Anthropic or
// Gemini from the command line, or serves them over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(defaultDeps()).Execute(); err != nil {
		os.Exit(1)
	}
}
