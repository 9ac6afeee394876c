// cmd/quiz-runner/main.go
package main

import "taqneeq-quiz/internal/cli"

func main() {
	cli.Execute()
}
