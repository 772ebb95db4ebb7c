package coordtree

import "fmt"

// StepError reports the bootstrap step that failed. Steps completed before
// it are not rolled back.
type StepError struct {
	Step string
	Path string
	Err  error
}

func (e *StepError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bootstrap step '%s' failed: %v", e.Step, e.Err)
	}

	return fmt.Sprintf("bootstrap step '%s' failed at '%s': %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
