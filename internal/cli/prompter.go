package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"taqneeq-quiz/internal/models"
	"taqneeq-quiz/internal/quiz"
)

var scaleLabels = []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"}

// ErrInputClosed is returned when stdin ends before the quiz does.
var ErrInputClosed = fmt.Errorf("input closed before the quiz finished")

// Prompter renders snapshots and events to out and reads answers from in or
// from a scripted list of responses.
type Prompter struct {
	in         *bufio.Scanner
	out        io.Writer
	script     []int
	confidence float64
}

func NewPrompter(in io.Reader, out io.Writer, script []int, confidence float64) *Prompter {
	return &Prompter{
		in:         bufio.NewScanner(in),
		out:        out,
		script:     script,
		confidence: confidence,
	}
}

// OnEvent prints lifecycle notices.
func (p *Prompter) OnEvent(e quiz.Event) {
	switch e.Kind {
	case quiz.EventStarted:
		_, estimated := e.Snapshot.Progress()
		total := 0
		if e.Snapshot.Metadata != nil {
			total = e.Snapshot.Metadata.TotalDepartments
		}
		fmt.Fprintf(p.out, "Session %s started: %d departments, about %s questions.\n", e.Snapshot.SessionID, total, orUnknown(estimated))
	case quiz.EventOffline:
		fmt.Fprintf(p.out, "The classification service is unreachable: %s\n", errText(e.Snapshot))
	case quiz.EventFailed:
		fmt.Fprintf(p.out, "The session failed: %s\n", errText(e.Snapshot))
	}
}

// Ask shows the current question and returns the answer. Interactive input is
// "<response>" or "<response> <confidence>".
func (p *Prompter) Ask(snap quiz.Snapshot) (models.Answer, error) {
	q := snap.Question
	asked, estimated := snap.Progress()
	fmt.Fprintf(p.out, "\n[%d answered, ~%s] (%s) %s\n", asked, orUnknown(estimated), q.Stage, q.Text)
	for i, label := range scaleLabels {
		fmt.Fprintf(p.out, "  %d = %s\n", i+1, label)
	}

	if len(p.script) > 0 {
		response := p.script[0]
		p.script = p.script[1:]
		fmt.Fprintf(p.out, "> %d\n", response)
		return models.Answer{QuestionID: q.ID, Response: response, Confidence: p.confidence}, nil
	}

	for {
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return models.Answer{}, err
			}
			return models.Answer{}, ErrInputClosed
		}
		answer, err := parseAnswer(p.in.Text(), p.confidence)
		if err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		answer.QuestionID = q.ID
		return answer, nil
	}
}

// Confirm asks a yes/no question; scripted runs and closed input answer no.
func (p *Prompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return false
	}
	reply := strings.ToLower(strings.TrimSpace(p.in.Text()))
	return reply == "y" || reply == "yes"
}

// Notice prints a recoverable problem with the last command.
func (p *Prompter) Notice(err error) {
	fmt.Fprintf(p.out, "! %v\n", err)
}

// ShowResult prints the final classification and, when available, its explanation.
func (p *Prompter) ShowResult(snap quiz.Snapshot) {
	r := snap.Result
	if r == nil {
		return
	}

	fmt.Fprintf(p.out, "\nYour department: %s (%.0f%%, %s confidence, %d questions)\n",
		r.TopDepartment, r.TopProbability*100, r.ConfidenceLevel, r.QuestionsAsked)
	if r.SecondaryDepartment != nil && r.SecondaryProbability != nil {
		fmt.Fprintf(p.out, "Runner-up: %s (%.0f%%)\n", *r.SecondaryDepartment, *r.SecondaryProbability*100)
	}
	if len(r.TopTraits) > 0 {
		traits := make([]string, len(r.TopTraits))
		for i, t := range r.TopTraits {
			traits[i] = fmt.Sprintf("%s %.2f", t.Trait, t.Score)
		}
		fmt.Fprintf(p.out, "Top traits: %s\n", strings.Join(traits, ", "))
	}
	if len(r.AllProbabilities) > 0 {
		fmt.Fprintln(p.out, "All departments:")
		for _, name := range sortedByProbability(r.AllProbabilities) {
			fmt.Fprintf(p.out, "  %-24s %5.1f%%\n", name, r.AllProbabilities[name]*100)
		}
	}

	if snap.ExplanationDegraded {
		fmt.Fprintln(p.out, "\n(The detailed explanation is unavailable right now.)")
	} else if e := snap.Explanation; e != nil {
		printSection(p.out, "Overview", e.Overview)
		printSection(p.out, "Why it fits", e.WhyGoodFit)
		printSection(p.out, "Responsibilities", e.Responsibilities)
		printSection(p.out, "Skills you'll gain", e.SkillsGained)
		printSection(p.out, "Next steps", e.NextSteps)
		if len(e.Alternatives) > 0 {
			fmt.Fprintln(p.out, "\nAlso consider:")
			for _, alt := range e.Alternatives {
				fmt.Fprintf(p.out, "  %s (%.0f%%) %s\n", orUnknown(alt.Name), alt.Probability*100, alt.Description)
			}
		}
	}

	for _, a := range snap.Anomalies {
		fmt.Fprintf(p.out, "note: %s (%s)\n", a.Kind, a.Detail)
	}
}

func parseAnswer(line string, defaultConfidence float64) (models.Answer, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || len(fields) > 2 {
		return models.Answer{}, fmt.Errorf("enter a number from 1 to 5, optionally followed by a confidence from 0.1 to 1.0")
	}
	response, err := strconv.Atoi(fields[0])
	if err != nil || response < models.MinResponse || response > models.MaxResponse {
		return models.Answer{}, fmt.Errorf("enter a number from 1 to 5")
	}
	answer := models.Answer{Response: response, Confidence: defaultConfidence}
	if len(fields) == 2 {
		c, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || !(c >= models.MinConfidence && c <= models.MaxConfidence) {
			return models.Answer{}, fmt.Errorf("confidence must be between 0.1 and 1.0")
		}
		answer.Confidence = c
	}
	return answer, nil
}

// parseScript reads a comma separated list of responses.
func parseScript(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid scripted answer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func sortedByProbability(probs map[string]float64) []string {
	names := make([]string, 0, len(probs))
	for name := range probs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if probs[names[i]] == probs[names[j]] {
			return names[i] < names[j]
		}
		return probs[names[i]] > probs[names[j]]
	})
	return names
}

func printSection(w io.Writer, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(w, "\n%s:\n%s\n", title, body)
}

func errText(snap quiz.Snapshot) string {
	if snap.Err == nil {
		return "unknown error"
	}
	if snap.Err.Details != "" {
		return snap.Err.Details
	}
	return snap.Err.Message
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
