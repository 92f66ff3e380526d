// Command pipewalk runs build pipelines described as trees of tasks,
// sequences and selectors.
package main

import "github.com/deixis/pipewalk/cmd/pipewalk/cmd"

func main() {
	cmd.Execute()
}
