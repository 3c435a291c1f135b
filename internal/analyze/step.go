package analyze

import "fmt"

// StepStatus is the outcome of one pipeline step
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
)

// StepResult records what a rewrite or advisory step did. A skipped step
// left the query and the result untouched.
type StepResult struct {
	Step   string     `json:"step"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

func stepOK(reason string) StepResult { return StepResult{Status: StepOK, Reason: reason} }

func stepSkipped(format string, args ...any) StepResult {
	return StepResult{Status: StepSkipped, Reason: fmt.Sprintf(format, args...)}
}

// runStep runs fn and turns a panic into a skipped result. fn must only
// publish its output once it has finished computing it.
func runStep(name string, fn func() StepResult) (res StepResult) {
	defer func() {
		if r := recover(); r != nil {
			res = StepResult{Step: name, Status: StepSkipped, Reason: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	res = fn()
	res.Step = name
	return res
}
