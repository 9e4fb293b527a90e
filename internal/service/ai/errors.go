package ai

import (
	"errors"
	"fmt"
)

// ErrResolution matches every *ResolutionError via errors.Is.
var ErrResolution = errors.New("answer resolution failed")

// Resolution stages reported in ResolutionError.
const (
	StageInvoke   = "invoke"
	StageParse    = "parse"
	StageValidate = "validate"
)

// ResolutionError 描述一次问答解析失败：模型调用、输出解析或坐标校验。
type ResolutionError struct {
	Question string
	Stage    string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve question (%s): %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}
